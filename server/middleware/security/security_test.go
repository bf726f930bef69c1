package security

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSecurityHeaders(t *testing.T) {
	app := fiber.New()
	app.Use(New(Config{Backend: "http://192.168.3.232:80"}))
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString("ok") })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	csp := resp.Header.Get("Content-Security-Policy")
	assert.Contains(t, csp, "script-src 'self' https://unpkg.com")
	assert.Contains(t, csp, "connect-src 'self' ws: wss: http://192.168.3.232:80")
	assert.Contains(t, csp, "frame-ancestors 'none'")
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))
}

func TestConfigDefault(t *testing.T) {
	cfg := configDefault()
	assert.Equal(t, DefaultConfig.AllowedScriptSources, cfg.AllowedScriptSources)

	cfg = configDefault(Config{AllowedScriptSources: []string{"'self'"}})
	assert.Equal(t, []string{"'self'"}, cfg.AllowedScriptSources)
	assert.Equal(t, DefaultConfig.AllowedStyleSources, cfg.AllowedStyleSources)
}
