package cookie

import (
	"errors"
	"net/http"
	"time"
)

// MaxCookieSize is the maximum size for a serialized cookie (4KB).
const MaxCookieSize = 4096

// Manager sets, reads and clears cookies with shared attribute defaults.
// Values are stored as given; callers put only opaque identifiers in cookies.
type Manager struct {
	defaults Options
	maxSize  int
}

// ManagerOption configures the Manager itself (not individual cookies).
type ManagerOption func(*Manager)

// WithMaxSize sets the maximum serialized cookie size.
func WithMaxSize(size int) ManagerOption {
	return func(m *Manager) {
		if size > 0 {
			m.maxSize = size
		}
	}
}

// WithDefaults sets the attributes applied to every cookie before per-call options.
func WithDefaults(opts ...Option) ManagerOption {
	return func(m *Manager) {
		m.defaults = applyOptions(m.defaults, opts)
	}
}

// New creates a Manager. Defaults are Path "/", HttpOnly, SameSite Strict.
func New(opts ...ManagerOption) *Manager {
	m := &Manager{
		defaults: Options{
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteStrictMode,
		},
		maxSize: MaxCookieSize,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Defaults returns a copy of the default cookie attributes.
func (m *Manager) Defaults() Options {
	return m.defaults
}

// Set writes a cookie.
func (m *Manager) Set(w http.ResponseWriter, name, value string, opts ...Option) error {
	options := applyOptions(m.defaults, opts)

	cookie := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     options.Path,
		Domain:   options.Domain,
		MaxAge:   options.MaxAge,
		Secure:   options.Secure,
		HttpOnly: options.HttpOnly,
		SameSite: options.SameSite,
	}

	header := cookie.String()
	if header == "" {
		return ErrInvalidFormat
	}
	if len(header) > m.maxSize {
		return ErrCookieTooLarge{
			Name: name,
			Size: len(header),
			Max:  m.maxSize,
		}
	}

	http.SetCookie(w, cookie)
	return nil
}

// Get retrieves a cookie value. A missing or empty cookie is ErrCookieNotFound.
func (m *Manager) Get(r *http.Request, name string) (string, error) {
	cookie, err := r.Cookie(name)
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			return "", ErrCookieNotFound
		}
		return "", err
	}
	if cookie.Value == "" {
		return "", ErrCookieNotFound
	}
	return cookie.Value, nil
}

// Delete expires a cookie in the browser. Options must match the Path and
// Domain it was set with.
func (m *Manager) Delete(w http.ResponseWriter, name string, opts ...Option) {
	options := applyOptions(m.defaults, opts)
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     options.Path,
		Domain:   options.Domain,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		Secure:   options.Secure,
		HttpOnly: options.HttpOnly,
		SameSite: options.SameSite,
	})
}
