package middleware_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/deployable-tech/deployable-knowledge-web/core/handler"
	"github.com/deployable-tech/deployable-knowledge-web/core/response"
	"github.com/deployable-tech/deployable-knowledge-web/core/router"
	"github.com/deployable-tech/deployable-knowledge-web/middleware"
)

func TestBodyLimit(t *testing.T) {
	t.Parallel()

	readAll := func(ctx *router.Context) handler.Response {
		body, err := io.ReadAll(ctx.Request().Body)
		if middleware.IsBodyTooLarge(err) {
			return response.Error(response.ErrRequestEntityTooLarge)
		}
		return response.String(string(body))
	}

	r := router.New(router.WithErrorHandler(response.JSONErrorHandler[*router.Context]))
	r.With(middleware.BodyLimitWithSize[*router.Context](8)).Post("/chat", readAll)

	t.Run("within limit", func(t *testing.T) {
		t.Parallel()
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader("message")))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "message", w.Body.String())
	})

	t.Run("declared length over limit", func(t *testing.T) {
		t.Parallel()
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader("far too long body")))
		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		assert.Contains(t, w.Body.String(), `"limit":8`)
	})

	t.Run("undeclared length over limit", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodPost, "/chat", io.NopCloser(strings.NewReader("far too long body")))
		req.ContentLength = -1
		req.Header.Del("Content-Length")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	})
}
