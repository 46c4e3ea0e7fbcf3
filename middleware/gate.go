package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/deployable-tech/deployable-knowledge-web/core/handler"
	"github.com/deployable-tech/deployable-knowledge-web/core/logger"
	"github.com/deployable-tech/deployable-knowledge-web/core/response"
	"github.com/deployable-tech/deployable-knowledge-web/core/session"
)

type sessionKey struct{}

// GateConfig configures the session gate.
type GateConfig[C handler.Context] struct {
	// Manager validates sessions (required).
	Manager *session.Manager
	// AllowPaths bypass validation on exact match (default: Manager policy AllowPaths).
	AllowPaths []string
	// AllowPathPrefixes bypass validation on prefix match (default: Manager policy AllowPathPrefixes).
	AllowPathPrefixes []string
	// Skip defines a function to skip validation for specific requests.
	Skip func(ctx C) bool
	// Logger for structured logging (default: discard).
	Logger *slog.Logger
	// ErrorHandler renders validation failures (default: JSON {code, message}).
	ErrorHandler func(ctx C, err error) handler.Response
}

// Gate rejects requests without a valid session before any handler runs.
// Allowlisted paths pass through untouched. Unsafe methods must also carry
// a valid CSRF token. On success the session record is stored in the request
// context; handlers read it with GetSession and never re-validate.
//
//	r.Use(middleware.Gate[*web.Context](mgr))
func Gate[C handler.Context](mgr *session.Manager) handler.Middleware[C] {
	return GateWithConfig(GateConfig[C]{Manager: mgr})
}

// GateWithConfig creates a session gate with custom configuration.
func GateWithConfig[C handler.Context](cfg GateConfig[C]) handler.Middleware[C] {
	if cfg.Manager == nil {
		panic("gate middleware: session manager is required")
	}
	policy := cfg.Manager.Config()
	if cfg.AllowPaths == nil {
		cfg.AllowPaths = policy.AllowPaths
	}
	if cfg.AllowPathPrefixes == nil {
		cfg.AllowPathPrefixes = policy.AllowPathPrefixes
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Discard()
	}
	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = func(_ C, err error) handler.Response {
			httpErr := SessionHTTPError(err)
			return response.JSONWithStatus(httpErr, httpErr.Status)
		}
	}

	allow := session.Config{AllowPaths: cfg.AllowPaths, AllowPathPrefixes: cfg.AllowPathPrefixes}

	return func(next handler.HandlerFunc[C]) handler.HandlerFunc[C] {
		return func(ctx C) handler.Response {
			if cfg.Skip != nil && cfg.Skip(ctx) {
				return next(ctx)
			}

			req := ctx.Request()
			if allow.IsPublic(req.URL.Path) {
				return next(ctx)
			}

			rec, err := cfg.Manager.FetchValid(ctx, req, !IsSafeMethod(req.Method))
			if err != nil {
				level := slog.LevelDebug
				if errors.Is(err, session.ErrStorage) {
					level = slog.LevelError
				} else if errors.Is(err, session.ErrBindingMismatch) || errors.Is(err, session.ErrCSRFInvalid) {
					level = slog.LevelWarn
				}
				cfg.Logger.LogAttrs(ctx, level, "request rejected",
					logger.Component("gate"),
					logger.Method(req.Method),
					logger.Path(req.URL.Path),
					logger.Error(err),
				)
				return cfg.ErrorHandler(ctx, err)
			}

			ctx.SetValue(sessionKey{}, rec)
			return next(ctx)
		}
	}
}

// IsSafeMethod reports whether method cannot change server state and so needs no CSRF token.
func IsSafeMethod(method string) bool {
	switch strings.ToUpper(method) {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	}
	return false
}

// SessionHTTPError maps session validation errors to structured HTTP errors:
// 401 for missing, expired or idle sessions, 403 for CSRF and binding
// failures, 500 for anything else.
func SessionHTTPError(err error) response.HTTPError {
	switch {
	case errors.Is(err, session.ErrSessionExpired):
		return response.ErrUnauthorized.WithCode("session_expired").WithMessage("session expired")
	case errors.Is(err, session.ErrSessionIdleTimeout):
		return response.ErrUnauthorized.WithCode("session_idle_timeout").WithMessage("session timed out due to inactivity")
	case errors.Is(err, session.ErrUnauthenticated):
		return response.ErrUnauthorized.WithCode("unauthenticated").WithMessage("authentication required")
	case errors.Is(err, session.ErrCSRFInvalid):
		return response.ErrForbidden.WithCode("csrf_invalid").WithMessage("missing or invalid csrf token")
	case errors.Is(err, session.ErrBindingMismatch):
		return response.ErrForbidden.WithCode("session_binding_mismatch").WithMessage("session does not belong to this client")
	default:
		return response.ErrInternalServerError.WithCode("storage_error")
	}
}

// GetSession returns the session record the gate attached to the request.
func GetSession(ctx context.Context) (session.Record, bool) {
	rec, ok := ctx.Value(sessionKey{}).(session.Record)
	return rec, ok
}

// MustGetSession is like GetSession but panics when no session is attached,
// which means the route is not behind the gate.
func MustGetSession(ctx context.Context) session.Record {
	rec, ok := GetSession(ctx)
	if !ok {
		panic("middleware: no session in context; route is not gated")
	}
	return rec
}

// GetIdentity returns the authenticated identity, or "" on ungated routes.
func GetIdentity(ctx context.Context) string {
	rec, _ := GetSession(ctx)
	return rec.Identity
}
