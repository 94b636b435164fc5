package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"
)

func newTestCLI(out *bytes.Buffer) *cli.Command {
	root := newRootCommand()
	root.Commands = []*cli.Command{newMigrateCommand(out)}
	return root
}

func TestMigrateCommands(t *testing.T) {
	t.Setenv("TASKTRACKER_DATABASE_DRIVER", "sqlite")
	t.Setenv("TASKTRACKER_DATABASE_URL", filepath.Join(t.TempDir(), "cli.db"))
	t.Setenv("TASKTRACKER_SERVER_LOG_LEVEL", "error")
	ctx := context.Background()

	var out bytes.Buffer
	require.NoError(t, newTestCLI(&out).Run(ctx, []string{"tasktracker", "migrate", "version"}))
	assert.Equal(t, "0", strings.TrimSpace(out.String()))

	out.Reset()
	require.NoError(t, newTestCLI(&out).Run(ctx, []string{"tasktracker", "migrate", "up"}))
	require.NoError(t, newTestCLI(&out).Run(ctx, []string{"tasktracker", "migrate", "status"}))
	assert.Contains(t, out.String(), "00001  applied")
	assert.Contains(t, out.String(), "00001_create_tasks_data.sql")

	out.Reset()
	require.NoError(t, newTestCLI(&out).Run(ctx, []string{"tasktracker", "migrate", "down"}))
	require.NoError(t, newTestCLI(&out).Run(ctx, []string{"tasktracker", "migrate", "version"}))
	assert.Equal(t, "0", strings.TrimSpace(out.String()))
}

func TestMigrateCommand_MissingConfigFile(t *testing.T) {
	var out bytes.Buffer
	err := newTestCLI(&out).Run(context.Background(),
		[]string{"tasktracker", "--config", filepath.Join(t.TempDir(), "missing.yaml"), "migrate", "up"})
	assert.ErrorContains(t, err, "failed to load configuration")
}
