package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deployable-tech/deployable-knowledge-web/core/handler"
	"github.com/deployable-tech/deployable-knowledge-web/core/response"
	"github.com/deployable-tech/deployable-knowledge-web/core/router"
	"github.com/deployable-tech/deployable-knowledge-web/middleware"
)

func runMiddleware(t *testing.T, mw handler.Middleware[*router.Context], req *http.Request, h handler.HandlerFunc[*router.Context]) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	ctx := router.NewContext(w, req)
	resp := mw(h)(ctx)
	require.NotNil(t, resp)
	_ = resp(w, ctx.Request())
	return w
}

func TestRequestID(t *testing.T) {
	t.Parallel()

	echo := func(ctx *router.Context) handler.Response {
		id, _ := middleware.GetRequestID(ctx)
		return response.String(id)
	}

	t.Run("generates uuid", func(t *testing.T) {
		t.Parallel()
		w := runMiddleware(t, middleware.RequestID[*router.Context](), httptest.NewRequest(http.MethodGet, "/", nil), echo)

		id := w.Header().Get("X-Request-ID")
		_, err := uuid.Parse(id)
		require.NoError(t, err)
		assert.Equal(t, id, w.Body.String())
	})

	t.Run("incoming id ignored by default", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-ID", "client-id")
		w := runMiddleware(t, middleware.RequestID[*router.Context](), req, echo)
		assert.NotEqual(t, "client-id", w.Body.String())
	})

	tests := []struct {
		name     string
		incoming string
		reused   bool
	}{
		{"valid id reused", "edge-1234", true},
		{"spaces rejected", "a b", false},
		{"control chars rejected", "id\x00", false},
		{"oversized rejected", strings.Repeat("x", 129), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			mw := middleware.RequestIDWithConfig[*router.Context](middleware.RequestIDConfig{
				UseExisting: true,
				HeaderName:  "X-Trace",
				Generator:   func() string { return "generated" },
			})
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("X-Trace", tt.incoming)
			w := runMiddleware(t, mw, req, echo)

			want := "generated"
			if tt.reused {
				want = tt.incoming
			}
			assert.Equal(t, want, w.Body.String())
			assert.Equal(t, want, w.Header().Get("X-Trace"))
		})
	}
}

func TestRequestIDExtractor(t *testing.T) {
	t.Parallel()

	_, ok := middleware.RequestIDExtractor(context.Background())
	assert.False(t, ok)

	var attrValue string
	runMiddleware(t, middleware.RequestID[*router.Context](), httptest.NewRequest(http.MethodGet, "/", nil),
		func(ctx *router.Context) handler.Response {
			attr, ok := middleware.RequestIDExtractor(ctx)
			require.True(t, ok)
			assert.Equal(t, "request_id", attr.Key)
			attrValue = attr.Value.String()
			return response.NoContent()
		})
	assert.NotEmpty(t, attrValue)
}
