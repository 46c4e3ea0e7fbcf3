package web

import (
	"time"

	"github.com/deployable-tech/deployable-knowledge-web/core/handler"
	"github.com/deployable-tech/deployable-knowledge-web/core/response"
	"github.com/deployable-tech/deployable-knowledge-web/middleware"
)

// landing serves the UI entry page and makes sure the browser holds a session.
func (a *App) landing(page handler.HandlerFunc[*Context]) handler.HandlerFunc[*Context] {
	return func(ctx *Context) handler.Response {
		if _, _, err := a.sessions.Ensure(ctx, ctx.ResponseWriter(), ctx.Request(), ""); err != nil {
			return response.Error(err)
		}
		return response.WithHeaders(page(ctx), map[string]string{"Cache-Control": "no-store"})
	}
}

type authSessionResponse struct {
	User       string    `json:"user"`
	ExpiresAt  time.Time `json:"expires_at"`
	CSRFToken  string    `json:"csrf_token"`
	CSRFHeader string    `json:"csrf_header"`
	Issued     bool      `json:"issued"`
}

// authSession is the entry endpoint scripts call first: it returns the
// current session, issuing one when needed, with the CSRF token to echo.
func (a *App) authSession(ctx *Context) handler.Response {
	rec, issued, err := a.sessions.Ensure(ctx, ctx.ResponseWriter(), ctx.Request(), "")
	if err != nil {
		return response.Error(err)
	}
	return response.WithHeaders(response.JSON(authSessionResponse{
		User:       rec.Identity,
		ExpiresAt:  rec.ExpiresAt,
		CSRFToken:  rec.CSRFSecret(),
		CSRFHeader: a.config.Session.CSRFHeader,
		Issued:     issued,
	}), map[string]string{"Cache-Control": "no-store"})
}

func (a *App) user(ctx *Context) handler.Response {
	rec := middleware.MustGetSession(ctx)
	return response.JSON(map[string]string{"user": rec.Identity})
}

// logout revokes the session and forgets the current conversation.
func (a *App) logout(ctx *Context) handler.Response {
	if err := a.sessions.Revoke(ctx, ctx.ResponseWriter(), ctx.Request()); err != nil {
		return response.Error(err)
	}
	a.cookies.Delete(ctx.ResponseWriter(), a.config.Conversation.CookieName)
	return response.JSON(map[string]bool{"ok": true})
}
