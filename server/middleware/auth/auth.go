package auth

import (
	"webchat/pkg/logger"
	"webchat/services/chat"

	"github.com/gofiber/fiber/v2"
)

// New gates routes on a session holding the current user id. Requests
// without one go to the sign-in boundary.
func New(config Config) fiber.Handler {
	cfg := configDefault(config)
	if cfg.Store == nil {
		panic("auth: Store is required")
	}

	return func(c *fiber.Ctx) error {
		if cfg.Next != nil && cfg.Next(c) {
			return c.Next()
		}

		sessionID := c.Cookies(cfg.CookieName)
		if sessionID == "" {
			return redirectToSignIn(c, cfg.SignInPath)
		}

		sess, err := cfg.Store.Get(c.UserContext(), sessionID)
		if err != nil {
			logger.WithError(err).WithField("session_id", sessionID).Warn("Session lookup failed")
			return redirectToSignIn(c, cfg.SignInPath)
		}
		if sess == nil || sess.UserID == 0 {
			return redirectToSignIn(c, cfg.SignInPath)
		}

		c.Locals(LocalUserID, sess.UserID)
		c.Locals(LocalSessionID, sess.SessionID)
		return c.Next()
	}
}

// UserID reads the id stored by New
func UserID(c *fiber.Ctx) (chat.ID, bool) {
	id, ok := c.Locals(LocalUserID).(chat.ID)
	return id, ok && id != 0
}

func redirectToSignIn(c *fiber.Ctx, path string) error {
	if c.Get("HX-Request") == "true" {
		c.Set("HX-Redirect", path)
		return c.SendStatus(fiber.StatusUnauthorized)
	}
	return c.Redirect(path)
}
