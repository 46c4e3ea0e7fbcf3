package web

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/deployable-tech/deployable-knowledge-web/core/conversation"
	"github.com/deployable-tech/deployable-knowledge-web/core/cookie"
	"github.com/deployable-tech/deployable-knowledge-web/core/kvstore"
	"github.com/deployable-tech/deployable-knowledge-web/core/logger"
	"github.com/deployable-tech/deployable-knowledge-web/core/router"
	"github.com/deployable-tech/deployable-knowledge-web/core/server"
	"github.com/deployable-tech/deployable-knowledge-web/core/session"
	"github.com/deployable-tech/deployable-knowledge-web/middleware"
)

// App wires configuration, storage, the session layer and the HTTP routes.
type App struct {
	config Config
	logger *slog.Logger

	sessionStore      kvstore.Store
	conversationStore kvstore.Store

	cookies       *cookie.Manager
	sessions      *session.Manager
	conversations *conversation.Store
	assets        fs.FS

	router router.Router[*Context]
	server *server.Server
}

// Option customizes an App before its components are built.
type Option func(*App) error

// WithLogger sets the application logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *App) error {
		if l == nil {
			return errors.New("logger cannot be nil")
		}
		a.logger = l
		return nil
	}
}

// WithSessionStore replaces the file-backed session store.
func WithSessionStore(s kvstore.Store) Option {
	return func(a *App) error {
		if s == nil {
			return errors.New("session store cannot be nil")
		}
		a.sessionStore = s
		return nil
	}
}

// WithConversationStore replaces the file-backed conversation store.
func WithConversationStore(s kvstore.Store) Option {
	return func(a *App) error {
		if s == nil {
			return errors.New("conversation store cannot be nil")
		}
		a.conversationStore = s
		return nil
	}
}

// WithAssets replaces the UI bundle.
func WithAssets(assets fs.FS) Option {
	return func(a *App) error {
		if assets == nil {
			return errors.New("assets cannot be nil")
		}
		a.assets = assets
		return nil
	}
}

// NewLogger builds the service logger from configuration.
func NewLogger(cfg Config) *slog.Logger {
	return logger.New(
		logger.WithEnvironment(cfg.Env, cfg.AppName),
		logger.WithLevelName(cfg.LogLevel),
		logger.WithContextExtractors(middleware.RequestIDExtractor),
	)
}

// New builds the application. Stores default to directories under the
// configured paths; options may replace any component.
func New(cfg Config, opts ...Option) (*App, error) {
	a := &App{config: cfg}
	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, err
		}
	}
	if a.logger == nil {
		a.logger = NewLogger(cfg)
	}

	var err error
	if a.sessionStore == nil {
		if a.sessionStore, err = kvstore.NewFileStore(cfg.Session.Dir, kvstore.WithFileLogger(a.logger)); err != nil {
			return nil, fmt.Errorf("session store: %w", err)
		}
	}
	if a.conversationStore == nil {
		if a.conversationStore, err = kvstore.NewFileStore(cfg.Conversation.Dir, kvstore.WithFileLogger(a.logger)); err != nil {
			return nil, fmt.Errorf("conversation store: %w", err)
		}
	}
	if a.assets == nil {
		if a.assets, err = assetsFS(cfg.StaticDir); err != nil {
			return nil, fmt.Errorf("static assets: %w", err)
		}
	}

	a.cookies = cookie.NewFromConfig(cfg.Cookie)
	a.sessions, err = session.NewManager(a.sessionStore, cfg.Session,
		session.WithLogger(a.logger),
		session.WithCookieManager(a.cookies),
	)
	if err != nil {
		return nil, err
	}
	a.conversations = conversation.NewStore(a.conversationStore, conversation.WithLogger(a.logger))

	if a.server, err = server.NewFromConfig(cfg.Server, server.WithLogger(a.logger)); err != nil {
		return nil, err
	}

	a.router = router.New(
		router.WithContextFactory(NewContext),
		router.WithErrorHandler(a.errorHandler),
		router.WithLogger[*Context](a.logger),
	)
	a.routes(a.router)

	return a, nil
}

// Handler returns the HTTP handler with every route registered.
func (a *App) Handler() http.Handler { return a.router }

// Sessions exposes the session manager for maintenance commands.
func (a *App) Sessions() *session.Manager { return a.sessions }

// Conversations exposes the conversation store for maintenance commands.
func (a *App) Conversations() *conversation.Store { return a.conversations }

// Logger returns the application logger.
func (a *App) Logger() *slog.Logger { return a.logger }

// Run serves HTTP and runs the session janitor until ctx is cancelled or
// either fails.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.server.Run(ctx, a.router) })
	g.Go(func() error { return a.sessions.Run(ctx, a.config.Session.SweepInterval) })

	a.logger.InfoContext(ctx, "application started",
		logger.Component("app"),
		slog.String("addr", a.server.Addr()),
		slog.String("sessions_dir", a.config.Session.Dir),
		slog.String("conversations_dir", a.config.Conversation.Dir),
	)
	return g.Wait()
}
