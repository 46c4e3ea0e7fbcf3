package session

import (
	"errors"
	"net/http"
	"time"

	"github.com/deployable-tech/deployable-knowledge-web/core/cookie"
)

// cookieTransport carries the session id and CSRF token between browser and server.
// The session cookie is HttpOnly; the CSRF cookie is readable by scripts so the
// page can echo it in the CSRF header.
type cookieTransport struct {
	cookies *cookie.Manager
	cfg     Config
}

func (t cookieTransport) opts(httpOnly bool, maxAge int) []cookie.Option {
	opts := []cookie.Option{
		cookie.WithPath("/"),
		cookie.WithHTTPOnly(httpOnly),
		cookie.WithSameSite(http.SameSiteStrictMode),
		cookie.WithMaxAge(maxAge),
	}
	if t.cfg.Secure {
		opts = append(opts, cookie.WithSecure(true))
	}
	return opts
}

// embed sets both cookies with Max-Age equal to ttl.
func (t cookieTransport) embed(w http.ResponseWriter, id, csrf string, ttl time.Duration) error {
	maxAge := int(ttl / time.Second)
	if maxAge <= 0 {
		maxAge = 1
	}
	if err := t.cookies.Set(w, t.cfg.CookieName, id, t.opts(true, maxAge)...); err != nil {
		return err
	}
	return t.cookies.Set(w, t.cfg.CSRFCookieName, csrf, t.opts(false, maxAge)...)
}

// extract returns the session id cookie value, or "" when absent.
func (t cookieTransport) extract(r *http.Request) (string, error) {
	id, err := t.cookies.Get(r, t.cfg.CookieName)
	if errors.Is(err, cookie.ErrCookieNotFound) {
		return "", nil
	}
	return id, err
}

// csrfCookie returns the CSRF cookie value, or "" when absent.
func (t cookieTransport) csrfCookie(r *http.Request) string {
	v, _ := t.cookies.Get(r, t.cfg.CSRFCookieName)
	return v
}

// revoke expires both cookies.
func (t cookieTransport) revoke(w http.ResponseWriter) {
	t.cookies.Delete(w, t.cfg.CookieName, t.opts(true, -1)...)
	t.cookies.Delete(w, t.cfg.CSRFCookieName, t.opts(false, -1)...)
}
