// Package cookie writes and reads HTTP cookies with consistent attributes.
//
// A Manager holds defaults (Path "/", HttpOnly, SameSite Strict) that every
// Set and Delete starts from; per-call options override them:
//
//	m := cookie.NewFromConfig(cfg)
//
//	// HttpOnly session cookie
//	err := m.Set(w, "session_id", id, cookie.WithMaxAge(43200))
//
//	// readable by scripts
//	err = m.Set(w, "csrf_token", token, cookie.WithHTTPOnly(false))
//
//	id, err := m.Get(r, "session_id")
//	if errors.Is(err, cookie.ErrCookieNotFound) {
//		// no session
//	}
//
//	m.Delete(w, "session_id")
//
// Serialized cookies larger than the configured maximum (4KB by default) are
// rejected with ErrCookieTooLarge instead of being silently dropped by the
// browser.
package cookie
