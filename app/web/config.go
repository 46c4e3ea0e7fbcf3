package web

import (
	"github.com/deployable-tech/deployable-knowledge-web/core/conversation"
	"github.com/deployable-tech/deployable-knowledge-web/core/cookie"
	"github.com/deployable-tech/deployable-knowledge-web/core/server"
	"github.com/deployable-tech/deployable-knowledge-web/core/session"
)

// Config is the full service configuration, loaded from the environment.
type Config struct {
	Server       server.Config
	Session      session.Config
	Conversation conversation.Config
	Cookie       cookie.Config

	AppName  string `env:"APP_NAME" envDefault:"deployable-knowledge-web"`
	Env      string `env:"APP_ENV" envDefault:"development"`
	LogLevel string `env:"LOG_LEVEL" envDefault:""`

	// StaticDir overrides the embedded UI assets when set.
	StaticDir string `env:"STATIC_DIR" envDefault:""`
	// ChatBodyLimit bounds POST /chat bodies in bytes.
	ChatBodyLimit int64 `env:"CHAT_BODY_LIMIT" envDefault:"65536"`
}

// DefaultConfig mirrors the environment defaults.
func DefaultConfig() Config {
	return Config{
		Server:        server.DefaultConfig(),
		Session:       session.DefaultConfig(),
		Conversation:  conversation.DefaultConfig(),
		Cookie:        cookie.Config{SameSite: "strict", MaxSize: cookie.MaxCookieSize},
		AppName:       "deployable-knowledge-web",
		Env:           "development",
		ChatBodyLimit: 64 * 1024,
	}
}

// IsDevelopment reports whether the service runs in development mode.
func (c Config) IsDevelopment() bool {
	switch c.Env {
	case "production", "prod", "staging", "stage":
		return false
	}
	return true
}
