package errors

import (
	"context"
	"errors"
	"log/slog"

	"github.com/Proton-105/liveness-probe/pkg/logger"
	"github.com/Proton-105/liveness-probe/pkg/metrics"
)

// Handler logs classified errors. Records at error level reach Sentry
// through the logger's slog-sentry handler when it is enabled, so the
// handler never reports to Sentry itself.
type Handler struct {
	log *slog.Logger
}

func NewHandler(log *slog.Logger) *Handler {
	return &Handler{log: log}
}

// Handle logs err and reports whether the process has to terminate.
// Errors that are not an AppError are treated as fatal.
func (h *Handler) Handle(ctx context.Context, err error) bool {
	if err == nil {
		return false
	}

	if ctx == nil {
		ctx = context.Background()
	}

	log := slog.Default()
	if h != nil && h.log != nil {
		log = h.log
	}

	var appErr *AppError
	if errors.As(err, &appErr) && appErr != nil {
		attrs := []slog.Attr{
			slog.String("code", appErr.Code),
			slog.String("severity", string(appErr.Severity)),
			slog.Bool("fatal", appErr.Fatal),
			slog.Bool("retryable", appErr.Retryable),
		}
		if cause := appErr.Unwrap(); cause != nil {
			attrs = append(attrs, slog.String("cause", cause.Error()))
		}

		if correlationID := logger.CorrelationIDFromContext(ctx); correlationID != "" {
			attrs = append(attrs, slog.String("correlation_id", correlationID))
		}

		log.LogAttrs(ctx, levelFor(appErr.Severity), appErr.Message, attrs...)
		metrics.RecordError(appErr.Code, string(appErr.Severity))

		return appErr.Fatal
	}

	attrs := []slog.Attr{
		slog.String("message", err.Error()),
		slog.String("severity", string(SeverityCritical)),
		slog.Bool("fatal", true),
	}

	if correlationID := logger.CorrelationIDFromContext(ctx); correlationID != "" {
		attrs = append(attrs, slog.String("correlation_id", correlationID))
	}

	log.LogAttrs(ctx, slog.LevelError, "unknown error", attrs...)
	metrics.RecordError("unknown", string(SeverityCritical))

	return true
}

func levelFor(severity Severity) slog.Level {
	switch severity {
	case SeverityLow:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}
