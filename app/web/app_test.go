package web_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deployable-tech/deployable-knowledge-web/app/web"
	"github.com/deployable-tech/deployable-knowledge-web/core/kvstore"
	"github.com/deployable-tech/deployable-knowledge-web/core/logger"
)

type client struct {
	t    *testing.T
	base string
	http *http.Client
	csrf string
}

func newClient(t *testing.T, mutate ...func(*web.Config)) *client {
	t.Helper()

	cfg := web.DefaultConfig()
	cfg.ChatBodyLimit = 4096
	for _, fn := range mutate {
		fn(&cfg)
	}

	app, err := web.New(cfg,
		web.WithLogger(logger.Discard()),
		web.WithSessionStore(kvstore.NewMemoryStore()),
		web.WithConversationStore(kvstore.NewMemoryStore()),
	)
	require.NoError(t, err)

	srv := httptest.NewServer(app.Handler())
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &client{t: t, base: srv.URL, http: &http.Client{Jar: jar}}
}

func (c *client) do(method, path string, form url.Values, withCSRF bool) (int, []byte) {
	c.t.Helper()

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequest(method, c.base+path, body)
	require.NoError(c.t, err)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if withCSRF {
		req.Header.Set("X-CSRF-Token", c.csrf)
	}

	resp, err := c.http.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)
	return resp.StatusCode, data
}

func (c *client) login() {
	c.t.Helper()
	status, body := c.do(http.MethodGet, "/auth/session", nil, false)
	require.Equal(c.t, http.StatusOK, status)

	var out struct {
		User       string `json:"user"`
		CSRFToken  string `json:"csrf_token"`
		CSRFHeader string `json:"csrf_header"`
	}
	require.NoError(c.t, json.Unmarshal(body, &out))
	require.Equal(c.t, "local-user", out.User)
	require.Equal(c.t, "X-CSRF-Token", out.CSRFHeader)
	require.NotEmpty(c.t, out.CSRFToken)
	c.csrf = out.CSRFToken
}

func decode[T any](t *testing.T, body []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(body, &v), string(body))
	return v
}

func errorCode(t *testing.T, body []byte) string {
	return decode[struct {
		Code string `json:"code"`
	}](t, body).Code
}

func TestEndToEnd(t *testing.T) {
	t.Parallel()

	c := newClient(t)

	status, _ := c.do(http.MethodGet, "/healthz", nil, false)
	assert.Equal(t, http.StatusOK, status, "allowlisted path without cookies")

	status, body := c.do(http.MethodGet, "/user", nil, false)
	assert.Equal(t, http.StatusUnauthorized, status, "protected path without cookies")
	assert.Equal(t, "unauthenticated", errorCode(t, body))

	c.login()

	status, body = c.do(http.MethodGet, "/user", nil, false)
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"user":"local-user"}`, string(body))

	form := url.Values{"message": {"What is Veltara?"}}
	status, body = c.do(http.MethodPost, "/chat", form, false)
	assert.Equal(t, http.StatusForbidden, status, "unsafe method without csrf header")
	assert.Equal(t, "csrf_invalid", errorCode(t, body))

	status, body = c.do(http.MethodPost, "/chat", form, true)
	require.Equal(t, http.StatusOK, status, string(body))
	chat := decode[struct {
		ID    string `json:"session_id"`
		Reply string `json:"reply"`
	}](t, body)
	assert.Equal(t, "[rag_chat] You said: What is Veltara?. TopK=8. Persona=default.", chat.Reply)

	status, body = c.do(http.MethodGet, "/sessions", nil, false)
	require.Equal(t, http.StatusOK, status)
	list := decode[[]struct {
		ID string `json:"session_id"`
	}](t, body)
	require.Len(t, list, 1)
	assert.Equal(t, chat.ID, list[0].ID)

	status, body = c.do(http.MethodGet, "/sessions/"+chat.ID, nil, false)
	require.Equal(t, http.StatusOK, status)
	detail := decode[struct {
		Title   string      `json:"title"`
		History [][2]string `json:"history"`
	}](t, body)
	assert.Equal(t, "What is Veltara?", detail.Title)
	require.Len(t, detail.History, 1)
	assert.Equal(t, chat.Reply, detail.History[0][1])

	status, _ = c.do(http.MethodGet, "/session", nil, false)
	require.Equal(t, http.StatusOK, status)

	status, _ = c.do(http.MethodDelete, "/sessions/"+chat.ID, nil, false)
	assert.Equal(t, http.StatusForbidden, status)
	status, _ = c.do(http.MethodDelete, "/sessions/"+chat.ID, nil, true)
	assert.Equal(t, http.StatusNoContent, status)
	status, body = c.do(http.MethodGet, "/sessions/"+chat.ID, nil, false)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "conversation_not_found", errorCode(t, body))

	status, _ = c.do(http.MethodPost, "/auth/logout", nil, true)
	assert.Equal(t, http.StatusOK, status)
	status, _ = c.do(http.MethodGet, "/user", nil, false)
	assert.Equal(t, http.StatusUnauthorized, status, "revoked session")
}

func TestLanding(t *testing.T) {
	t.Parallel()

	c := newClient(t)

	resp, err := c.http.Get(c.base + "/")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "Deployable Knowledge")
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	// the landing page issued a session, so protected paths now work
	status, _ := c.do(http.MethodGet, "/user", nil, false)
	assert.Equal(t, http.StatusOK, status)

	status, _ = c.do(http.MethodGet, "/static/app.js", nil, false)
	assert.Equal(t, http.StatusOK, status)
	status, _ = c.do(http.MethodGet, "/favicon.ico", nil, false)
	assert.Equal(t, http.StatusNoContent, status)
	status, _ = c.do(http.MethodGet, "/health", nil, false)
	assert.Equal(t, http.StatusOK, status)

	status, body = c.do(http.MethodGet, "/does-not-exist", nil, false)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "not_found", errorCode(t, body))
}

func TestConversationCookie(t *testing.T) {
	t.Parallel()

	c := newClient(t)
	c.login()

	current := func() string {
		status, body := c.do(http.MethodGet, "/session", nil, false)
		require.Equal(t, http.StatusOK, status)
		return decode[struct {
			ID string `json:"session_id"`
		}](t, body).ID
	}

	first := current()
	second := current()
	assert.NotEqual(t, first, second, "an empty conversation is never resumed")

	status, _ := c.do(http.MethodPost, "/chat", url.Values{"message": {"hello"}}, true)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, second, current(), "the remembered conversation is resumed once it has history")

	status, body := c.do(http.MethodPost, "/session", nil, true)
	require.Equal(t, http.StatusOK, status)
	fresh := decode[struct {
		ID string `json:"session_id"`
	}](t, body).ID
	assert.NotEqual(t, second, fresh)
}

func TestChatValidation(t *testing.T) {
	t.Parallel()

	c := newClient(t)
	c.login()

	tests := []struct {
		name   string
		form   url.Values
		status int
		code   string
	}{
		{"empty message", url.Values{"message": {"   "}}, http.StatusBadRequest, "empty_message"},
		{"bad top_k", url.Values{"message": {"hi"}, "top_k": {"many"}}, http.StatusBadRequest, "invalid_top_k"},
		{"zero top_k", url.Values{"message": {"hi"}, "top_k": {"0"}}, http.StatusBadRequest, "invalid_top_k"},
		{"oversized body", url.Values{"message": {strings.Repeat("x", 5000)}}, http.StatusRequestEntityTooLarge, "request_entity_too_large"},
		{"unknown conversation", url.Values{"message": {"hi"}, "session_id": {"00000000-0000-4000-8000-000000000000"}}, http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := c.do(http.MethodPost, "/chat", tt.form, true)
			assert.Equal(t, tt.status, status, string(body))
			if tt.code != "" {
				assert.Equal(t, tt.code, errorCode(t, body))
			}
		})
	}

	status, body := c.do(http.MethodPost, "/chat", url.Values{
		"message":     {strings.Repeat("é", 200)},
		"persona":     {"archivist"},
		"template_id": {"summary"},
		"top_k":       {"3"},
	}, true)
	require.Equal(t, http.StatusOK, status)
	reply := decode[struct {
		Reply string `json:"reply"`
	}](t, body).Reply
	assert.Equal(t, "[summary] You said: "+strings.Repeat("é", 140)+". TopK=3. Persona=archivist.", reply)
}

func TestAssetsOverride(t *testing.T) {
	t.Parallel()

	assets := fstest.MapFS{
		"index.html": {Data: []byte("<h1>custom</h1>")},
		"app.js":     {Data: []byte("console.log('custom')")},
	}
	app, err := web.New(web.DefaultConfig(),
		web.WithLogger(logger.Discard()),
		web.WithSessionStore(kvstore.NewMemoryStore()),
		web.WithConversationStore(kvstore.NewMemoryStore()),
		web.WithAssets(assets),
	)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	app.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "custom")

	w = httptest.NewRecorder()
	app.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/static/app.js", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "console.log('custom')", w.Body.String())

	w = httptest.NewRecorder()
	app.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/static/missing.js", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
