package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSocketURL(t *testing.T) {
	tests := []struct {
		origin  string
		want    string
		wantErr bool
	}{
		{"http://192.168.3.232:80", "ws://192.168.3.232:80/ws", false},
		{"https://chat.example.com", "wss://chat.example.com/ws", false},
		{"http://localhost:8000/api?x=1", "ws://localhost:8000/ws", false},
		{"ftp://example.com", "", true},
		{"http://", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.origin, func(t *testing.T) {
			got, err := SocketURL(tt.origin)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func validConfig() *Config {
	return &Config{
		Server:  ServerConfig{Host: "127.0.0.1", Port: 8080, ViewsDir: "/views"},
		Backend: BackendConfig{BaseURL: "http://localhost:80", RequestTimeout: time.Second, PageSize: 50},
		Socket:  SocketConfig{ReconnectDelay: time.Second, MaxAttempts: 5, WriteTimeout: time.Second},
		Session: SessionConfig{TTL: time.Hour, CookieName: "webchat_session"},
	}
}

func TestValidate(t *testing.T) {
	require.NoError(t, validConfig().Validate())

	tests := []struct {
		name   string
		mutate func(c *Config)
		substr string
	}{
		{"port", func(c *Config) { c.Server.Port = 0 }, "invalid server port"},
		{"backend scheme", func(c *Config) { c.Backend.BaseURL = "ws://host" }, "invalid backend url"},
		{"page size", func(c *Config) { c.Backend.PageSize = 0 }, "page size"},
		{"reconnect delay", func(c *Config) { c.Socket.ReconnectDelay = 0 }, "reconnect delay"},
		{"redis address", func(c *Config) { c.Redis = RedisConfig{Enabled: true} }, "REDIS_ADDR"},
		{"cookie", func(c *Config) { c.Session.CookieName = "" }, "SESSION_COOKIE_NAME"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.substr)
		})
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	root := t.TempDir()
	t.Setenv("PROJECT_ROOT", root)
	t.Setenv("BACKEND_URL", "https://chat.example.com/")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("SOCKET_MAX_ATTEMPTS", "3")
	t.Setenv("SESSION_TTL", "2h")
	t.Setenv("REDIS_ENABLED", "false")
	t.Setenv("LOG_FILE", "logs/webchat.log")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://chat.example.com", cfg.Backend.BaseURL)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 3, cfg.Socket.MaxAttempts)
	assert.Equal(t, 2*time.Hour, cfg.Session.TTL)
	assert.Equal(t, filepath.Join(root, "server", "views"), cfg.Server.ViewsDir)
	assert.Equal(t, filepath.Join(root, "logs", "webchat.log"), cfg.Log.File)
	assert.Equal(t, "127.0.0.1:9090", cfg.ServerAddress())

	ws, err := cfg.SocketURL()
	require.NoError(t, err)
	assert.Equal(t, "wss://chat.example.com/ws", ws)
}
