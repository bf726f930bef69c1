package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server  ServerConfig
	Backend BackendConfig
	Socket  SocketConfig
	Redis   RedisConfig
	Session SessionConfig
	Log     LogConfig
}

// ServerConfig is the local UI server the browser talks to
type ServerConfig struct {
	Host         string
	Port         int
	ViewsDir     string
	StaticDir    string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// BackendConfig points at the chat backend's REST and socket endpoints
type BackendConfig struct {
	BaseURL        string
	RequestTimeout time.Duration
	PageSize       int
}

type SocketConfig struct {
	ReconnectDelay   time.Duration
	MaxAttempts      int
	WriteTimeout     time.Duration
	HandshakeTimeout time.Duration
}

type RedisConfig struct {
	Enabled  bool
	Address  string
	Username string
	Password string
	DB       int
}

type SessionConfig struct {
	TTL        time.Duration
	CookieName string
}

type LogConfig struct {
	File  string
	Level string
}

// getProjectRoot finds the project root by looking for go.mod
func getProjectRoot() (string, error) {
	if projectRoot := os.Getenv("PROJECT_ROOT"); projectRoot != "" {
		return projectRoot, nil
	}

	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("could not find project root (no go.mod found)")
		}
		dir = parent
	}
}

// resolvePath resolves a path relative to the project root if it's not absolute
func resolvePath(path string) (string, error) {
	if filepath.IsAbs(path) {
		return path, nil
	}
	projectRoot, err := getProjectRoot()
	if err != nil {
		return "", err
	}
	return filepath.Join(projectRoot, path), nil
}

func Load() (*Config, error) {
	viewsDir, err := resolvePath(getEnv("VIEWS_DIR", "./server/views"))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve views directory: %w", err)
	}

	staticDir, err := resolvePath(getEnv("STATIC_DIR", "./static"))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve static directory: %w", err)
	}

	logFile := getEnv("LOG_FILE", "stdout")
	if logFile != "stdout" && logFile != "-" {
		if logFile, err = resolvePath(logFile); err != nil {
			return nil, fmt.Errorf("failed to resolve log file: %w", err)
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:         getEnv("SERVER_HOST", "127.0.0.1"),
			Port:         getEnvAsInt("SERVER_PORT", 8080),
			ViewsDir:     viewsDir,
			StaticDir:    staticDir,
			ReadTimeout:  getEnvAsDuration("READ_TIMEOUT", time.Minute),
			WriteTimeout: getEnvAsDuration("WRITE_TIMEOUT", 0),
		},
		Backend: BackendConfig{
			BaseURL:        strings.TrimRight(getEnv("BACKEND_URL", "http://192.168.3.232:80"), "/"),
			RequestTimeout: getEnvAsDuration("BACKEND_TIMEOUT", 10*time.Second),
			PageSize:       getEnvAsInt("HISTORY_PAGE_SIZE", 50),
		},
		Socket: SocketConfig{
			ReconnectDelay:   getEnvAsDuration("SOCKET_RECONNECT_DELAY", time.Second),
			MaxAttempts:      getEnvAsInt("SOCKET_MAX_ATTEMPTS", 5),
			WriteTimeout:     getEnvAsDuration("SOCKET_WRITE_TIMEOUT", 5*time.Second),
			HandshakeTimeout: getEnvAsDuration("SOCKET_HANDSHAKE_TIMEOUT", 10*time.Second),
		},
		Redis: RedisConfig{
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
			Address:  getEnv("REDIS_ADDR", "localhost:6379"),
			Username: getEnv("REDIS_USERNAME", "default"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Session: SessionConfig{
			TTL:        getEnvAsDuration("SESSION_TTL", 24*time.Hour),
			CookieName: getEnv("SESSION_COOKIE_NAME", "webchat_session"),
		},
		Log: LogConfig{
			File:  logFile,
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	return cfg, cfg.Validate()
}

func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid server port: %d (must be 1-65535)", c.Server.Port))
	}
	if c.Server.ViewsDir == "" {
		errs = append(errs, "views directory (VIEWS_DIR) is required")
	}

	if u, err := url.Parse(c.Backend.BaseURL); err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		errs = append(errs, fmt.Sprintf("invalid backend url (BACKEND_URL): %q", c.Backend.BaseURL))
	}
	if c.Backend.RequestTimeout <= 0 {
		errs = append(errs, "backend request timeout must be > 0")
	}
	if c.Backend.PageSize <= 0 {
		errs = append(errs, "history page size must be > 0")
	}

	if c.Socket.ReconnectDelay <= 0 {
		errs = append(errs, "socket reconnect delay must be > 0")
	}
	if c.Socket.MaxAttempts < 0 {
		errs = append(errs, "socket max attempts must be >= 0")
	}
	if c.Socket.WriteTimeout <= 0 {
		errs = append(errs, "socket write timeout must be > 0")
	}

	if c.Redis.Enabled && c.Redis.Address == "" {
		errs = append(errs, "redis address (REDIS_ADDR) is required when REDIS_ENABLED")
	}

	if c.Session.TTL <= 0 {
		errs = append(errs, "session TTL must be > 0")
	}
	if c.Session.CookieName == "" {
		errs = append(errs, "session cookie name (SESSION_COOKIE_NAME) is required")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func (c *Config) ServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// SocketURL derives the backend socket endpoint: same host, ws/wss scheme, /ws path
func (c *Config) SocketURL() (string, error) {
	return SocketURL(c.Backend.BaseURL)
}

// SocketURL maps an http(s) origin onto its ws(s)://host/ws endpoint
func SocketURL(origin string) (string, error) {
	u, err := url.Parse(origin)
	if err != nil {
		return "", fmt.Errorf("parse origin %q: %w", origin, err)
	}
	switch u.Scheme {
	case "https", "wss":
		u.Scheme = "wss"
	case "http", "ws":
		u.Scheme = "ws"
	default:
		return "", fmt.Errorf("unsupported origin scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("origin %q has no host", origin)
	}
	u.Path = "/ws"
	u.RawQuery = ""
	u.Fragment = ""
	return u.String(), nil
}

// PrintSummary prints a summary of the loaded configuration
func (c *Config) PrintSummary() {
	fmt.Println("Configuration Summary:")
	fmt.Printf("  UI server: %s\n", c.ServerAddress())
	fmt.Printf("  Backend: %s (timeout %s, page size %d)\n", c.Backend.BaseURL, c.Backend.RequestTimeout, c.Backend.PageSize)
	fmt.Printf("  Socket: reconnect every %s, max %d attempts\n", c.Socket.ReconnectDelay, c.Socket.MaxAttempts)
	if c.Redis.Enabled {
		fmt.Printf("  Sessions: redis %s (DB: %d), TTL %s\n", c.Redis.Address, c.Redis.DB, c.Session.TTL)
	} else {
		fmt.Printf("  Sessions: in-memory, TTL %s\n", c.Session.TTL)
	}
	fmt.Printf("  Log: %s (%s)\n", c.Log.File, c.Log.Level)
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if val, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return val
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if val, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return val
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if val, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return val
	}
	return defaultVal
}
