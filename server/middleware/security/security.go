package security

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

type Config struct {
	// AllowedScriptSources for the CSP script-src directive
	AllowedScriptSources []string

	// AllowedStyleSources for the CSP style-src directive
	AllowedStyleSources []string

	// Backend is the chat backend origin the page may reach directly
	Backend string
}

var DefaultConfig = Config{
	AllowedScriptSources: []string{
		"'self'",
		"https://unpkg.com",
	},
	AllowedStyleSources: []string{
		"'self'",
		"'unsafe-inline'",
	},
}

func configDefault(config ...Config) Config {
	if len(config) < 1 {
		return DefaultConfig
	}

	cfg := config[0]

	if len(cfg.AllowedScriptSources) == 0 {
		cfg.AllowedScriptSources = DefaultConfig.AllowedScriptSources
	}
	if len(cfg.AllowedStyleSources) == 0 {
		cfg.AllowedStyleSources = DefaultConfig.AllowedStyleSources
	}

	return cfg
}

// New sets security headers on every response. The CSP is built once.
func New(config ...Config) fiber.Handler {
	cfg := configDefault(config...)
	csp := buildCSP(cfg)

	return func(c *fiber.Ctx) error {
		c.Set("Content-Security-Policy", csp)
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "same-origin")
		return c.Next()
	}
}

func buildCSP(cfg Config) string {
	connect := []string{"'self'", "ws:", "wss:"}
	if cfg.Backend != "" {
		connect = append(connect, cfg.Backend)
	}

	directives := []string{
		"default-src 'self'",
		"script-src " + strings.Join(cfg.AllowedScriptSources, " "),
		"style-src " + strings.Join(cfg.AllowedStyleSources, " "),
		"img-src 'self' data:",
		"connect-src " + strings.Join(connect, " "),
		"frame-ancestors 'none'",
		"base-uri 'self'",
		"form-action 'self'",
	}
	return strings.Join(directives, "; ")
}
