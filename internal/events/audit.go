package events

import (
	"context"
	"log/slog"

	"github.com/phrazzld/tasktracker/internal/platform/logger"
)

const auditComponent = "task_audit"

// AuditLogHandler writes every task event to the log.
type AuditLogHandler struct {
	logger *slog.Logger
}

// NewAuditLogHandler creates an audit handler. If logger is nil, the default
// logger is used.
func NewAuditLogHandler(l *slog.Logger) *AuditLogHandler {
	if l == nil {
		l = slog.Default()
	}
	return &AuditLogHandler{logger: l}
}

// HandleEvent implements EventHandler.
func (h *AuditLogHandler) HandleEvent(ctx context.Context, event *TaskEvent) error {
	attrs := []any{
		slog.String("event_id", event.ID.String()),
		slog.String("event_type", event.Type),
		slog.Int64("user_id", event.UserID),
		slog.Int64("task_id", event.TaskID),
	}

	logger.ForComponent(ctx, h.logger, auditComponent).Info("task event", attrs...)
	return nil
}
