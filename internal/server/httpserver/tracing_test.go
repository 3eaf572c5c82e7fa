package httpserver

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dmitrijs2005/userkeeper/internal/logging"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func recordSpans(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec)))
	t.Cleanup(func() { otel.SetTracerProvider(prev) })
	return rec
}

func spanStatusCode(span sdktrace.ReadOnlySpan) int64 {
	for _, kv := range span.Attributes() {
		if kv.Key == attribute.Key("http.response.status_code") {
			return kv.Value.AsInt64()
		}
	}
	return 0
}

func TestTraceRequests_RecordsServerSpan(t *testing.T) {
	rec := recordSpans(t)

	e := newTestEnv(t)
	r := e.do(t, http.MethodGet, "/auth/admin/users", nil, "garbage")
	require.Equal(t, http.StatusUnauthorized, r.status)

	spans := rec.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "GET /auth/admin/users", spans[0].Name())

	assert.Equal(t, int64(http.StatusUnauthorized), spanStatusCode(spans[0]))
	assert.Equal(t, codes.Unset, spans[0].Status().Code, "client errors do not fail the span")
}

func TestTraceRequests_ServerErrorMarksSpan(t *testing.T) {
	rec := recordSpans(t)

	srv := NewHTTPServer(":0", "/auth", logging.Nop(), stubUsers{err: errors.New("db down")})
	req := httptest.NewRequest(http.MethodPost, "/auth/signup",
		strings.NewReader(`{"email":"a@x.com","firstname":"A","lastname":"B","password":"pw"}`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	resp, err := srv.App().Test(req, -1)
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	spans := rec.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, int64(http.StatusInternalServerError), spanStatusCode(spans[0]))
	assert.Equal(t, codes.Error, spans[0].Status().Code)
}
