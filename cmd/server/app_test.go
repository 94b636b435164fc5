package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/phrazzld/tasktracker/internal/config"
	"github.com/phrazzld/tasktracker/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Server: config.ServerConfig{
			Port:                   0,
			LogLevel:               "debug",
			LogFormat:              "json",
			ShutdownTimeoutSeconds: 1,
		},
		Database: config.DatabaseConfig{
			Driver:      config.DriverSQLite,
			URL:         filepath.Join(t.TempDir(), "tasks.db"),
			AutoMigrate: true,
		},
		Tasks: config.TasksConfig{
			MaxOpen:      10,
			MaxBatchSize: 5,
			Consistency:  config.ConsistencyWeak,
		},
	}
}

func newTestApp(t *testing.T, cfg *config.Config) (*application, *logger.TestLogBuffer) {
	t.Helper()

	l, buf := logger.GetTestLogger(t)
	ctx := logger.WithLogger(context.Background(), l)

	db, dialect, err := setupAppDatabase(ctx, cfg.Database)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	app, err := newApplication(cfg, l, db, dialect)
	require.NoError(t, err)
	return app, buf
}

func call(t *testing.T, srv *httptest.Server, method, path, body string) (int, string) {
	t.Helper()

	req, err := http.NewRequest(method, srv.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(data)
}

func TestRouter_TaskLifecycle(t *testing.T) {
	app, logs := newTestApp(t, testConfig(t))
	srv := httptest.NewServer(app.setupRouter())
	defer srv.Close()

	const base = "/rest_api_based/tasks"

	status, body := call(t, srv, http.MethodPost, base+"/add_task/1",
		`[{"task_description":"a"},{"task_description":"b"},{"task_description":"c"}]`)
	assert.Equal(t, http.StatusCreated, status)
	assert.JSONEq(t, `{"message":"Tasks added successfully"}`, body)

	status, body = call(t, srv, http.MethodGet, base+"/counter/1", "")
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"tasks_created":3,"tasks_closed":0}`, body)

	status, body = call(t, srv, http.MethodGet, base+"/in_progress/1", "")
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"tasks_in_progress":3}`, body)

	status, body = call(t, srv, http.MethodPut, base+"/close_task/1/1", "")
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"message":"Task closed successfully"}`, body)

	status, body = call(t, srv, http.MethodDelete, base+"/delete_task/1/2", "")
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"message":"Task removed successfully"}`, body)

	status, body = call(t, srv, http.MethodDelete, base+"/delete_task/1/2", "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.JSONEq(t, `{"error":"Task not found"}`, body)

	status, body = call(t, srv, http.MethodGet, base+"/counter/1", "")
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"tasks_created":2,"tasks_closed":1}`, body)

	status, body = call(t, srv, http.MethodPost, base+"/add_task/1", `[]`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.JSONEq(t, `{"message":"Not so fast, cowboy! Only 1 to 5 tasks supported in one request"}`, body)

	logger.AssertLogField(t, logs, "event_type", "task.created")
	logger.AssertLogField(t, logs, "event_type", "task.deleted")
}

func TestRouter_EvictsAtCeiling(t *testing.T) {
	app, _ := newTestApp(t, testConfig(t))
	srv := httptest.NewServer(app.setupRouter())
	defer srv.Close()

	five := `[{},{},{},{},{}]`
	for range 2 {
		status, _ := call(t, srv, http.MethodPost, "/rest_api_based/tasks/add_task/9", five)
		require.Equal(t, http.StatusCreated, status)
	}
	status, _ := call(t, srv, http.MethodPost, "/rest_api_based/tasks/add_task/9", `[{"task_description":"eleventh"}]`)
	require.Equal(t, http.StatusCreated, status)

	_, body := call(t, srv, http.MethodGet, "/rest_api_based/tasks/counter/9", "")
	var counters map[string]int
	require.NoError(t, json.Unmarshal([]byte(body), &counters))
	assert.Equal(t, map[string]int{"tasks_created": 11, "tasks_closed": 1}, counters)

	_, body = call(t, srv, http.MethodGet, "/rest_api_based/tasks/in_progress/9", "")
	assert.JSONEq(t, `{"tasks_in_progress":10}`, body)
}

func TestRouter_IndexAndHealth(t *testing.T) {
	app, _ := newTestApp(t, testConfig(t))
	router := app.setupRouter()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "<p>Hello!</p>", w.Body.String())

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", w.Body.String())
}

func TestNewApplication_RejectsUnknownConsistency(t *testing.T) {
	cfg := testConfig(t)
	cfg.Tasks.Consistency = "eventual"

	l, _ := logger.GetTestLogger(t)
	db, dialect, err := setupAppDatabase(context.Background(), cfg.Database)
	require.NoError(t, err)
	defer db.Close()

	_, err = newApplication(cfg, l, db, dialect)
	assert.ErrorContains(t, err, "consistency")
}

func TestStartHTTPServer_GracefulShutdown(t *testing.T) {
	app, logs := newTestApp(t, testConfig(t))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.startHTTPServer(ctx, app.setupRouter()) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}

	logger.AssertLogContains(t, logs, "server shutdown completed")
	assert.Error(t, app.db.Ping(), "database closed on shutdown")
}

func TestStartHTTPServer_ListenFailure(t *testing.T) {
	cfg := testConfig(t)
	cfg.Server.Port = 70000
	app, _ := newTestApp(t, cfg)

	err := app.startHTTPServer(context.Background(), app.setupRouter())
	assert.ErrorContains(t, err, fmt.Sprintf("%d", 70000))
}
