package auth

import (
	"webchat/services/sessions"

	"github.com/gofiber/fiber/v2"
)

type Config struct {
	// Next defines a function to skip middleware.
	//
	// Optional. Default: nil
	Next func(c *fiber.Ctx) bool

	// Store resolves the session cookie to a user id.
	//
	// Required. Default: nil
	Store sessions.Store

	// CookieName is the cookie carrying the session id.
	//
	// Optional. Default: "webchat_session"
	CookieName string

	// SignInPath is where requests without a session are sent.
	//
	// Optional. Default: "/init/sign_in"
	SignInPath string
}

// Locals keys set for downstream handlers
const (
	LocalUserID    = "user_id"
	LocalSessionID = "session_id"
)

var ConfigDefault = Config{
	Next:       nil,
	Store:      nil,
	CookieName: "webchat_session",
	SignInPath: "/init/sign_in",
}

func configDefault(config ...Config) Config {
	if len(config) < 1 {
		return ConfigDefault
	}

	cfg := config[0]

	if cfg.CookieName == "" {
		cfg.CookieName = ConfigDefault.CookieName
	}
	if cfg.SignInPath == "" {
		cfg.SignInPath = ConfigDefault.SignInPath
	}

	return cfg
}
