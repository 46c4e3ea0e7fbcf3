package middleware_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deployable-tech/deployable-knowledge-web/core/handler"
	"github.com/deployable-tech/deployable-knowledge-web/core/kvstore"
	"github.com/deployable-tech/deployable-knowledge-web/core/response"
	"github.com/deployable-tech/deployable-knowledge-web/core/router"
	"github.com/deployable-tech/deployable-knowledge-web/core/session"
	"github.com/deployable-tech/deployable-knowledge-web/middleware"
)

const testUA = "Mozilla/5.0 (X11; Linux x86_64) Firefox/130.0"

func newGatedRouter(t *testing.T) (http.Handler, *session.Manager) {
	t.Helper()

	mgr, err := session.NewManager(kvstore.NewMemoryStore(), session.DefaultConfig())
	require.NoError(t, err)

	whoami := func(ctx *router.Context) handler.Response {
		rec := middleware.MustGetSession(ctx)
		return response.JSON(map[string]string{"user": rec.Identity})
	}

	r := router.New(router.WithErrorHandler(response.JSONErrorHandler[*router.Context]))
	r.Use(middleware.Gate[*router.Context](mgr))
	r.Get("/health", func(ctx *router.Context) handler.Response {
		_, ok := middleware.GetSession(ctx)
		assert.False(t, ok)
		return response.String("ok")
	})
	r.Get("/static/", func(*router.Context) handler.Response { return response.String("asset") })
	r.Get("/user", whoami)
	r.Post("/chat", whoami)
	return r, mgr
}

func issueCookies(t *testing.T, mgr *session.Manager) (session.Record, []*http.Cookie) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("User-Agent", testUA)
	w := httptest.NewRecorder()
	rec, err := mgr.Issue(context.Background(), w, req, "")
	require.NoError(t, err)
	return rec, w.Result().Cookies()
}

func gatedRequest(method, target string, cookies []*http.Cookie) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	req.Header.Set("User-Agent", testUA)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return req
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Code
}

func TestGate(t *testing.T) {
	t.Parallel()

	h, mgr := newGatedRouter(t)
	rec, cookies := issueCookies(t, mgr)

	do := func(req *http.Request) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		return w
	}

	t.Run("allowlisted paths bypass", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, http.StatusOK, do(gatedRequest(http.MethodGet, "/health", nil)).Code)
		assert.Equal(t, http.StatusOK, do(gatedRequest(http.MethodGet, "/static/app.css", nil)).Code)
	})

	t.Run("missing session", func(t *testing.T) {
		t.Parallel()
		w := do(gatedRequest(http.MethodGet, "/user", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "unauthenticated", errorCode(t, w))
	})

	t.Run("valid session reaches handler", func(t *testing.T) {
		t.Parallel()
		w := do(gatedRequest(http.MethodGet, "/user", cookies))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"user":"local-user"}`, w.Body.String())
	})

	t.Run("unsafe method without csrf header", func(t *testing.T) {
		t.Parallel()
		w := do(gatedRequest(http.MethodPost, "/chat", cookies))
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, "csrf_invalid", errorCode(t, w))
	})

	t.Run("unsafe method with csrf header", func(t *testing.T) {
		t.Parallel()
		req := gatedRequest(http.MethodPost, "/chat", cookies)
		req.Header.Set("X-CSRF-Token", rec.CSRFSecret())
		assert.Equal(t, http.StatusOK, do(req).Code)
	})

	t.Run("different client", func(t *testing.T) {
		t.Parallel()
		req := gatedRequest(http.MethodGet, "/user", cookies)
		req.Header.Set("User-Agent", "curl/8.0")
		w := do(req)
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, "session_binding_mismatch", errorCode(t, w))

		// the owner keeps working
		assert.Equal(t, http.StatusOK, do(gatedRequest(http.MethodGet, "/user", cookies)).Code)
	})

	t.Run("unknown path is not found", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, http.StatusNotFound, do(gatedRequest(http.MethodGet, "/nope", nil)).Code)
	})
}

func TestGate_Skip(t *testing.T) {
	t.Parallel()

	mgr, err := session.NewManager(kvstore.NewMemoryStore(), session.DefaultConfig())
	require.NoError(t, err)

	gate := middleware.GateWithConfig(middleware.GateConfig[*router.Context]{
		Manager: mgr,
		Skip:    func(ctx *router.Context) bool { return ctx.Request().Header.Get("X-Internal") == "1" },
	})
	h := gate(func(*router.Context) handler.Response { return response.NoContent() })

	req := httptest.NewRequest(http.MethodGet, "/user", nil)
	req.Header.Set("X-Internal", "1")
	w := httptest.NewRecorder()
	require.NoError(t, h(router.NewContext(w, req))(w, req))
	assert.Equal(t, http.StatusNoContent, w.Code)

	assert.Panics(t, func() { middleware.Gate[*router.Context](nil) })
}

func TestSessionHTTPError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err    error
		status int
		code   string
	}{
		{session.ErrUnauthenticated, http.StatusUnauthorized, "unauthenticated"},
		{session.ErrSessionExpired, http.StatusUnauthorized, "session_expired"},
		{session.ErrSessionIdleTimeout, http.StatusUnauthorized, "session_idle_timeout"},
		{session.ErrCSRFInvalid, http.StatusForbidden, "csrf_invalid"},
		{session.ErrBindingMismatch, http.StatusForbidden, "session_binding_mismatch"},
		{errors.Join(session.ErrStorage, errors.New("disk")), http.StatusInternalServerError, "storage_error"},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			t.Parallel()
			got := middleware.SessionHTTPError(tt.err)
			assert.Equal(t, tt.status, got.Status)
			assert.Equal(t, tt.code, got.Code)
			assert.Empty(t, got.Details)
		})
	}
}

func TestIsSafeMethod(t *testing.T) {
	t.Parallel()

	for _, m := range []string{"GET", "head", "OPTIONS", "TRACE"} {
		assert.True(t, middleware.IsSafeMethod(m), m)
	}
	for _, m := range []string{"POST", "PUT", "PATCH", "DELETE"} {
		assert.False(t, middleware.IsSafeMethod(m), m)
	}
}
