package cookie

import (
	"net/http"
	"strings"
)

// Config provides environment-based configuration for the cookie manager.
type Config struct {
	Domain   string `env:"COOKIE_DOMAIN" envDefault:""`
	Secure   bool   `env:"COOKIE_SECURE" envDefault:"false"`
	SameSite string `env:"COOKIE_SAME_SITE" envDefault:"strict"`
	MaxSize  int    `env:"COOKIE_MAX_SIZE" envDefault:"4096"`
}

// SameSiteMode maps the configured name to http.SameSite.
// Unknown values fall back to Strict.
func (c Config) SameSiteMode() http.SameSite {
	switch strings.ToLower(strings.TrimSpace(c.SameSite)) {
	case "lax":
		return http.SameSiteLaxMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteStrictMode
	}
}

// NewFromConfig creates a Manager from configuration.
// SameSite=None requires Secure, so Secure is forced on in that case.
func NewFromConfig(cfg Config, opts ...ManagerOption) *Manager {
	sameSite := cfg.SameSiteMode()
	secure := cfg.Secure || sameSite == http.SameSiteNoneMode

	base := []ManagerOption{
		WithMaxSize(cfg.MaxSize),
		WithDefaults(
			WithDomain(cfg.Domain),
			WithSecure(secure),
			WithSameSite(sameSite),
		),
	}
	return New(append(base, opts...)...)
}
