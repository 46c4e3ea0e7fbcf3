// Package middleware provides the HTTP middleware the web service is built
// from: request IDs, structured request logging, security headers, request
// body limits and the session gate.
//
// All middleware follow the same pattern: a generic constructor with sane
// defaults, a WithConfig variant taking a config struct with an optional
// Skip func, and context accessors for values they store.
//
// # Session Gate
//
// Gate validates the session cookie on every matched route that is not
// allowlisted, before the handler runs. Unsafe methods (anything other than
// GET, HEAD, OPTIONS, TRACE) must also carry the CSRF header. Failures are
// rendered as JSON:
//
//	401 {"code": "unauthenticated" | "session_expired" | "session_idle_timeout", ...}
//	403 {"code": "csrf_invalid" | "session_binding_mismatch", ...}
//	500 {"code": "storage_error", ...}
//
// Handlers behind the gate read the validated record:
//
//	func whoami(ctx *web.Context) handler.Response {
//		rec := middleware.MustGetSession(ctx)
//		return response.JSON(map[string]string{"user": rec.Identity})
//	}
//
// # Ordering
//
// RequestID must run before Logging so log records carry the id; Logging
// must run before Gate so rejected requests are logged too:
//
//	r.Use(
//		middleware.RequestID[*web.Context](),
//		middleware.Logging[*web.Context](log),
//		middleware.SecurityHeaders[*web.Context](),
//		middleware.Gate[*web.Context](sessions),
//	)
//
// Logging never records bodies, cookies or query strings: they may carry
// session credentials and conversation content.
package middleware
