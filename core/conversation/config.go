package conversation

import "time"

// Config configures conversation persistence and the cookie that remembers
// the browser's current conversation.
type Config struct {
	Dir          string        `env:"CONVERSATION_DIR" envDefault:"data/conversations"`
	CookieName   string        `env:"CONVERSATION_COOKIE_NAME" envDefault:"conversation_id"`
	CookieMaxAge time.Duration `env:"CONVERSATION_COOKIE_MAX_AGE" envDefault:"720h"`
}

// DefaultConfig returns the same values the environment defaults produce.
func DefaultConfig() Config {
	return Config{
		Dir:          "data/conversations",
		CookieName:   "conversation_id",
		CookieMaxAge: 720 * time.Hour,
	}
}
