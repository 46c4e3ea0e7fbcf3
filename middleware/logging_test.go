package middleware_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deployable-tech/deployable-knowledge-web/core/handler"
	"github.com/deployable-tech/deployable-knowledge-web/core/response"
	"github.com/deployable-tech/deployable-knowledge-web/core/router"
	"github.com/deployable-tech/deployable-knowledge-web/middleware"
)

func logRecord(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec), buf.String())
	return rec
}

func TestLogging(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		resp   handler.Response
		status float64
		level  string
	}{
		{"success", response.String("ok"), 200, "INFO"},
		{"client error", response.Error(response.ErrNotFound), 404, "WARN"},
		{"written client error", response.JSONWithStatus(response.ErrForbidden, http.StatusForbidden), 403, "WARN"},
		{"server error", response.Error(errors.New("boom")), 500, "ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			log := slog.New(slog.NewJSONHandler(&buf, nil))

			req := httptest.NewRequest(http.MethodPost, "/chat?q=secret", nil)
			req.AddCookie(&http.Cookie{Name: "session_id", Value: "cookie-value-never-logged"})
			req.RemoteAddr = "192.0.2.7:5555"

			mw := func(next handler.HandlerFunc[*router.Context]) handler.HandlerFunc[*router.Context] {
				return middleware.RequestID[*router.Context]()(middleware.Logging[*router.Context](log)(next))
			}
			w := runMiddleware(t, mw, req, func(*router.Context) handler.Response { return tt.resp })
			_ = w

			rec := logRecord(t, &buf)
			assert.Equal(t, tt.level, rec["level"])
			assert.Equal(t, "http request", rec["msg"])
			assert.Equal(t, "http", rec["component"])
			assert.Equal(t, "POST", rec["method"])
			assert.Equal(t, "/chat", rec["path"])
			assert.Equal(t, tt.status, rec["status_code"])
			assert.Equal(t, "192.0.2.7", rec["client_ip"])
			assert.NotEmpty(t, rec["request_id"])
			assert.NotContains(t, buf.String(), "cookie-value-never-logged")
			assert.NotContains(t, buf.String(), "secret")
		})
	}
}

func TestLogging_SlowRequest(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	mw := middleware.LoggingWithConfig[*router.Context](middleware.LoggingConfig{
		Logger:               slog.New(slog.NewJSONHandler(&buf, nil)),
		SlowRequestThreshold: time.Millisecond,
		Component:            "web",
	})
	runMiddleware(t, mw, httptest.NewRequest(http.MethodGet, "/sessions", nil), func(*router.Context) handler.Response {
		time.Sleep(5 * time.Millisecond)
		return response.NoContent()
	})

	rec := logRecord(t, &buf)
	assert.Equal(t, "WARN", rec["level"])
	assert.Equal(t, "web", rec["component"])
	assert.Equal(t, true, rec["slow_request"])
}

func TestLogging_Skip(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	mw := middleware.LoggingWithConfig[*router.Context](middleware.LoggingConfig{
		Logger: slog.New(slog.NewJSONHandler(&buf, nil)),
		Skip:   func(ctx handler.Context) bool { return ctx.Request().URL.Path == "/healthz" },
	})
	runMiddleware(t, mw, httptest.NewRequest(http.MethodGet, "/healthz", nil), func(*router.Context) handler.Response {
		return response.NoContent()
	})
	assert.Zero(t, buf.Len())
}
