package session

import (
	"fmt"
	"strings"
	"time"
)

// Config is the session policy. All fields load from the environment.
type Config struct {
	IdleTimeout       time.Duration `env:"SESSION_IDLE_TIMEOUT" envDefault:"30m"`
	AbsoluteTTL       time.Duration `env:"SESSION_ABSOLUTE_TTL" envDefault:"12h"`
	RefreshOnActivity bool          `env:"SESSION_REFRESH_ON_ACTIVITY" envDefault:"true"`

	// BindUserAgent ties a session to the User-Agent it was issued to.
	BindUserAgent bool `env:"SESSION_BIND_USER_AGENT" envDefault:"true"`
	// BindDevice ties a session to the browser's User-Agent, Accept-Language and
	// Accept-Encoding together. Off by default: language settings change more often
	// than browsers.
	BindDevice bool `env:"SESSION_BIND_DEVICE" envDefault:"false"`
	// BindIPPrefix ties a session to the client's IPv4 /N network (IPv6 uses /64). 0 disables.
	BindIPPrefix int `env:"SESSION_BIND_IP_PREFIX" envDefault:"0"`
	// TrustProxyHeaders makes IP binding read X-Forwarded-For and similar headers.
	// Enable only behind a proxy that overwrites them.
	TrustProxyHeaders bool `env:"SESSION_TRUST_PROXY_HEADERS" envDefault:"false"`

	AllowPaths        []string `env:"SESSION_ALLOW_PATHS" envDefault:"/,/health,/healthz,/favicon.ico,/auth/session" envSeparator:","`
	AllowPathPrefixes []string `env:"SESSION_ALLOW_PATH_PREFIXES" envDefault:"/static/" envSeparator:","`

	CookieName     string `env:"SESSION_COOKIE_NAME" envDefault:"session_id"`
	CSRFCookieName string `env:"SESSION_CSRF_COOKIE_NAME" envDefault:"csrf_token"`
	CSRFHeader     string `env:"SESSION_CSRF_HEADER" envDefault:"X-CSRF-Token"`
	Secure         bool   `env:"SESSION_COOKIE_SECURE" envDefault:"false"`

	DefaultIdentity string        `env:"SESSION_DEFAULT_IDENTITY" envDefault:"local-user"`
	Dir             string        `env:"SESSION_DIR" envDefault:"data/sessions"`
	SweepInterval   time.Duration `env:"SESSION_SWEEP_INTERVAL" envDefault:"5m"`
}

// DefaultConfig returns the same values the environment defaults produce.
func DefaultConfig() Config {
	return Config{
		IdleTimeout:       30 * time.Minute,
		AbsoluteTTL:       12 * time.Hour,
		RefreshOnActivity: true,
		BindUserAgent:     true,
		AllowPaths:        []string{"/", "/health", "/healthz", "/favicon.ico", "/auth/session"},
		AllowPathPrefixes: []string{"/static/"},
		CookieName:        "session_id",
		CSRFCookieName:    "csrf_token",
		CSRFHeader:        "X-CSRF-Token",
		DefaultIdentity:   "local-user",
		Dir:               "data/sessions",
		SweepInterval:     5 * time.Minute,
	}
}

// Validate reports the first unusable setting.
func (c Config) Validate() error {
	switch {
	case c.IdleTimeout <= 0:
		return fmt.Errorf("%w: idle timeout must be positive", ErrInvalidConfig)
	case c.AbsoluteTTL <= 0:
		return fmt.Errorf("%w: absolute ttl must be positive", ErrInvalidConfig)
	case c.BindIPPrefix < 0 || c.BindIPPrefix > 32:
		return fmt.Errorf("%w: ip prefix must be within 0..32", ErrInvalidConfig)
	case c.CookieName == "" || c.CSRFCookieName == "":
		return fmt.Errorf("%w: cookie names must be set", ErrInvalidConfig)
	case c.CookieName == c.CSRFCookieName:
		return fmt.Errorf("%w: session and csrf cookies must differ", ErrInvalidConfig)
	case c.CSRFHeader == "":
		return fmt.Errorf("%w: csrf header must be set", ErrInvalidConfig)
	}
	return nil
}

// IsPublic reports whether path bypasses session validation.
// AllowPaths match exactly; AllowPathPrefixes match as prefixes.
func (c Config) IsPublic(path string) bool {
	for _, p := range c.AllowPaths {
		if path == strings.TrimSpace(p) {
			return true
		}
	}
	for _, p := range c.AllowPathPrefixes {
		if p = strings.TrimSpace(p); p != "" && strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}
