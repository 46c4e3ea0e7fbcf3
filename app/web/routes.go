package web

import (
	"errors"

	"github.com/deployable-tech/deployable-knowledge-web/core/conversation"
	"github.com/deployable-tech/deployable-knowledge-web/core/handler"
	"github.com/deployable-tech/deployable-knowledge-web/core/health"
	"github.com/deployable-tech/deployable-knowledge-web/core/logger"
	"github.com/deployable-tech/deployable-knowledge-web/core/response"
	"github.com/deployable-tech/deployable-knowledge-web/core/router"
	"github.com/deployable-tech/deployable-knowledge-web/core/session"
	"github.com/deployable-tech/deployable-knowledge-web/core/static"
	"github.com/deployable-tech/deployable-knowledge-web/middleware"
)

func (a *App) routes(r router.Router[*Context]) {
	security := middleware.BalancedSecurity
	security.IsDevelopment = a.config.IsDevelopment()

	r.Use(
		middleware.RequestIDWithConfig[*Context](middleware.RequestIDConfig{UseExisting: true}),
		middleware.LoggingWithConfig[*Context](middleware.LoggingConfig{
			Logger: a.logger,
			Skip:   func(ctx handler.Context) bool { return ctx.Request().URL.Path == "/healthz" },
		}),
		middleware.SecurityHeadersWithConfig[*Context](security),
		middleware.GateWithConfig(middleware.GateConfig[*Context]{
			Manager: a.sessions,
			Logger:  a.logger,
		}),
	)

	// Allowlisted by the session policy.
	r.Get("/{$}", a.landing(static.File[*Context](a.assets, "index.html")))
	r.Get("/auth/session", a.authSession)
	r.Get("/healthz", health.Liveness[*Context])
	r.Get("/health", health.Readiness[*Context](a.logger,
		health.Check{Name: "sessions", Ping: a.sessionStore.Ping},
		health.Check{Name: "conversations", Ping: a.conversations.Ping},
	))
	r.Get("/favicon.ico", health.NoContent[*Context])
	r.Get("/static/", static.FS[*Context](a.assets,
		static.WithStripPrefix("/static/"),
		static.WithCacheControl("public, max-age=300"),
	))

	// Gated.
	r.Get("/user", a.user)
	r.Post("/auth/logout", a.logout)
	r.Get("/session", a.currentConversation)
	r.Post("/session", a.newConversation)
	r.Get("/sessions", a.listConversations)
	r.Get("/sessions/{id}", a.conversationDetail)
	r.Delete("/sessions/{id}", a.deleteConversation)
	r.With(middleware.BodyLimitWithSize[*Context](a.config.ChatBodyLimit)).Post("/chat", a.chat)
}

// errorHandler renders every error as JSON. Panics are logged here because
// they bypass the logging middleware.
func (a *App) errorHandler(ctx *Context, err error) {
	var pe router.PanicError
	if errors.As(err, &pe) {
		a.logger.ErrorContext(ctx, "handler panic",
			logger.Component("app"), logger.Error(err), logger.Key("stack", string(pe.Stack())))
	}
	response.JSONErrorHandler(ctx, toHTTPError(err))
}

// toHTTPError maps domain errors onto HTTP errors.
func toHTTPError(err error) response.HTTPError {
	switch {
	case errors.Is(err, conversation.ErrNotFound):
		return response.ErrNotFound.WithCode("conversation_not_found").WithMessage("conversation not found")
	case errors.Is(err, conversation.ErrEmptyMessage):
		return response.ErrBadRequest.WithCode("empty_message").WithMessage("message must not be empty")
	case errors.Is(err, conversation.ErrStorage), errors.Is(err, session.ErrStorage):
		return response.ErrInternalServerError.WithCode("storage_error").WithError(err)
	case errors.Is(err, session.ErrUnauthenticated),
		errors.Is(err, session.ErrSessionExpired),
		errors.Is(err, session.ErrSessionIdleTimeout),
		errors.Is(err, session.ErrCSRFInvalid),
		errors.Is(err, session.ErrBindingMismatch):
		return middleware.SessionHTTPError(err)
	}
	return response.AsHTTPError(err)
}
