package web

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/deployable-tech/deployable-knowledge-web/core/binder"
	"github.com/deployable-tech/deployable-knowledge-web/core/conversation"
	"github.com/deployable-tech/deployable-knowledge-web/core/cookie"
	"github.com/deployable-tech/deployable-knowledge-web/core/handler"
	"github.com/deployable-tech/deployable-knowledge-web/core/logger"
	"github.com/deployable-tech/deployable-knowledge-web/core/response"
	"github.com/deployable-tech/deployable-knowledge-web/middleware"
)

const (
	defaultTemplateID = "rag_chat"
	defaultTopK       = 8
	echoMaxRunes      = 140
	maxFormMemory     = 1 << 20
)

type conversationRef struct {
	ID string `json:"session_id"`
}

// rememberConversation points the conversation cookie at id.
func (a *App) rememberConversation(ctx *Context, id string) error {
	return a.cookies.Set(ctx.ResponseWriter(), a.config.Conversation.CookieName, id,
		cookie.WithMaxAge(int(a.config.Conversation.CookieMaxAge.Seconds())),
	)
}

func (a *App) cookieConversation(ctx *Context) string {
	id, _ := a.cookies.Get(ctx.Request(), a.config.Conversation.CookieName)
	return id
}

// currentConversation returns the cookie's conversation if it has history,
// otherwise a freshly minted one.
func (a *App) currentConversation(ctx *Context) handler.Response {
	rec, created, err := a.conversations.GetOrCreate(ctx, a.cookieConversation(ctx))
	if err != nil {
		return response.Error(err)
	}
	if created {
		if err := a.rememberConversation(ctx, rec.ID); err != nil {
			return response.Error(err)
		}
	}
	return response.JSON(conversationRef{ID: rec.ID})
}

func (a *App) newConversation(ctx *Context) handler.Response {
	rec, err := a.conversations.Create(ctx)
	if err != nil {
		return response.Error(err)
	}
	if err := a.rememberConversation(ctx, rec.ID); err != nil {
		return response.Error(err)
	}
	return response.JSON(conversationRef{ID: rec.ID})
}

func (a *App) listConversations(ctx *Context) handler.Response {
	list, err := a.conversations.List(ctx)
	if err != nil {
		return response.Error(err)
	}
	return response.JSON(list)
}

func (a *App) conversationDetail(ctx *Context) handler.Response {
	rec, err := a.conversations.Get(ctx, ctx.Param("id"))
	if err != nil {
		return response.Error(err)
	}
	return response.JSON(rec)
}

func (a *App) deleteConversation(ctx *Context) handler.Response {
	id := ctx.Param("id")
	if err := a.conversations.Delete(ctx, id); err != nil {
		return response.Error(err)
	}
	if a.cookieConversation(ctx) == id {
		a.cookies.Delete(ctx.ResponseWriter(), a.config.Conversation.CookieName)
	}
	return response.NoContent()
}

type chatRequest struct {
	Message        string `form:"message"`
	ConversationID string `form:"session_id"`
	Persona        string `form:"persona"`
	TemplateID     string `form:"template_id"`
	TopK           int    `form:"top_k"`
}

type chatResponse struct {
	ConversationID string `json:"session_id"`
	Message        string `json:"message"`
	Reply          string `json:"reply"`
}

// chat appends one exchange to the requested or remembered conversation.
// A conversation that vanished (pruned or deleted) is replaced by a new one.
func (a *App) chat(ctx *Context) handler.Response {
	req, err := parseChatRequest(ctx.Request())
	if err != nil {
		return response.Error(err)
	}
	if req.ConversationID == "" {
		req.ConversationID = a.cookieConversation(ctx)
	}

	reply := templatedReply(req)
	rec, err := a.conversations.Append(ctx, req.ConversationID, req.Message, reply)
	if errors.Is(err, conversation.ErrNotFound) {
		fresh, cerr := a.conversations.Create(ctx)
		if cerr != nil {
			return response.Error(cerr)
		}
		a.logger.DebugContext(ctx, "chat started a new conversation",
			logger.Component("app"),
			logger.ID("conversation_id", fresh.ID),
			logger.Identity(middleware.GetIdentity(ctx)),
		)
		rec, err = a.conversations.Append(ctx, fresh.ID, req.Message, reply)
	}
	if err != nil {
		return response.Error(err)
	}

	if a.cookieConversation(ctx) != rec.ID {
		if err := a.rememberConversation(ctx, rec.ID); err != nil {
			return response.Error(err)
		}
	}
	return response.JSON(chatResponse{ConversationID: rec.ID, Message: req.Message, Reply: reply})
}

var bindChatForm = binder.Form(maxFormMemory)

func parseChatRequest(r *http.Request) (chatRequest, error) {
	req := chatRequest{TopK: defaultTopK}
	if err := bindChatForm(r, &req); err != nil {
		var fe *binder.FieldError
		switch {
		case middleware.IsBodyTooLarge(err):
			return chatRequest{}, response.ErrRequestEntityTooLarge
		case errors.Is(err, binder.ErrUnsupportedMediaType):
			return chatRequest{}, response.ErrUnsupportedMediaType.
				WithMessage("chat expects a form encoded body")
		case errors.As(err, &fe) && fe.Field == "top_k":
			return chatRequest{}, invalidTopK
		default:
			return chatRequest{}, response.ErrBadRequest.WithMessage("malformed form body")
		}
	}

	if strings.TrimSpace(req.Message) == "" {
		return chatRequest{}, conversation.ErrEmptyMessage
	}
	if req.TopK < 1 {
		return chatRequest{}, invalidTopK
	}
	req.Persona = strings.TrimSpace(req.Persona)
	req.TemplateID = strings.TrimSpace(req.TemplateID)
	if req.TemplateID == "" {
		req.TemplateID = defaultTemplateID
	}
	return req, nil
}

var invalidTopK = response.ErrBadRequest.
	WithCode("invalid_top_k").
	WithMessage("top_k must be a positive integer")

// templatedReply is the placeholder assistant: it echoes the request back.
func templatedReply(req chatRequest) string {
	persona := req.Persona
	if persona == "" {
		persona = "default"
	}
	return fmt.Sprintf("[%s] You said: %s. TopK=%d. Persona=%s.",
		req.TemplateID, truncateRunes(req.Message, echoMaxRunes), req.TopK, persona)
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
