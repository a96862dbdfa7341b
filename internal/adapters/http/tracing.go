package http

import (
	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/samirrijal/geodraw/internal/adapters/http")

// fiberCarrier adapts fasthttp request headers to propagation.TextMapCarrier.
type fiberCarrier struct{ c *fiber.Ctx }

func (fc fiberCarrier) Get(key string) string { return fc.c.Get(key) }

func (fc fiberCarrier) Set(key, value string) { fc.c.Request().Header.Set(key, value) }

func (fc fiberCarrier) Keys() []string {
	var keys []string
	fc.c.Request().Header.VisitAll(func(k, _ []byte) {
		keys = append(keys, string(k))
	})
	return keys
}

// TracingMiddleware continues an incoming W3C trace (or starts a new one)
// and stores the server span in the user context. With no tracer provider
// installed the span is a no-op.
func TracingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := otel.GetTextMapPropagator().Extract(c.UserContext(), fiberCarrier{c})
		ctx, span := tracer.Start(ctx, c.Method()+" "+c.Path(), trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()
		c.SetUserContext(ctx)

		err := c.Next()

		status := c.Response().StatusCode()
		if r := c.Route(); r != nil && r.Path != "" {
			span.SetName(c.Method() + " " + r.Path)
		}
		span.SetAttributes(
			attribute.String("http.method", c.Method()),
			attribute.String("http.target", c.OriginalURL()),
			attribute.Int("http.status_code", status),
		)
		if err != nil {
			span.RecordError(err)
		}
		if status >= 500 || err != nil {
			span.SetStatus(codes.Error, "server error")
		}
		return err
	}
}
