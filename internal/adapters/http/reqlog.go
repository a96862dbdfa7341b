package http

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel/trace"
)

type loggerKey struct{}

// RequestIDLogMiddleware stores a request-scoped *slog.Logger in the user
// context. It carries the Fiber request ID and, when the request is traced,
// the trace ID so log lines can be joined with spans.
func RequestIDLogMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		l := slog.Default()

		if rid, ok := c.Locals("requestid").(string); ok && rid != "" {
			l = l.With("request_id", rid)
		}
		if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
			l = l.With("trace_id", sc.TraceID().String())
		}

		c.SetUserContext(context.WithValue(ctx, loggerKey{}, l))
		return c.Next()
	}
}

// LoggerFromCtx extracts the per-request slog.Logger from a context.
// Falls back to the default logger if none is set.
func LoggerFromCtx(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}
