package httpserver

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/dmitrijs2005/userkeeper/internal/server/httpserver"

// headerCarrier adapts fiber request headers to propagation.TextMapCarrier.
type headerCarrier struct {
	c *fiber.Ctx
}

func (h headerCarrier) Get(key string) string { return h.c.Get(key) }

func (h headerCarrier) Set(key, value string) { h.c.Request().Header.Set(key, value) }

func (h headerCarrier) Keys() []string {
	keys := make([]string, 0)
	for k := range h.c.GetReqHeaders() {
		keys = append(keys, k)
	}
	return keys
}

// traceRequests starts a server span per request, continuing a trace passed
// in by the caller, and makes it the request's user context.
func (s *HTTPServer) traceRequests(c *fiber.Ctx) error {
	ctx := otel.GetTextMapPropagator().Extract(c.UserContext(), headerCarrier{c: c})

	ctx, span := otel.Tracer(tracerName).Start(ctx, c.Method()+" "+c.Path(),
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String("http.request.method", c.Method()),
			attribute.String("url.path", c.Path()),
		),
	)
	defer span.End()

	c.SetUserContext(ctx)

	err := c.Next()

	// requestLogger runs the error handler itself, so the final status is
	// normally on the response already.
	code := c.Response().StatusCode()
	if err != nil {
		code, _ = statusFor(err)
	}
	span.SetAttributes(attribute.Int("http.response.status_code", code))
	if code >= fiber.StatusInternalServerError {
		span.SetStatus(codes.Error, utils.StatusMessage(code))
	}
	return err
}
