package handlers

import (
	"time"

	"webchat/apperrors"
	"webchat/pkg/logger"
	"webchat/server/middleware/auth"
	"webchat/services/client"
	"webchat/services/sessions"
	"webchat/utils"

	"github.com/gofiber/fiber/v2"
)

// SessionCookie describes the cookie carrying the session id
type SessionCookie struct {
	Name string
	TTL  time.Duration
}

// HandleSignInPage renders the sign-in boundary
func HandleSignInPage() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.Render("sign_in", fiber.Map{"Error": "", "UserID": ""})
	}
}

// HandleSignIn stores the current user id in a new session
func HandleSignIn(store sessions.Store, cookie SessionCookie) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, verr := utils.ParseUserID(c.FormValue("user_id"))
		if verr != nil {
			return c.Status(fiber.StatusBadRequest).Render("sign_in", fiber.Map{
				"Error":  verr.Message,
				"UserID": c.FormValue("user_id"),
			})
		}

		sess := sessions.NewSession(userID)
		if err := store.Save(c.UserContext(), sess); err != nil {
			return apperrors.NewInternalError("Failed to create session").WithInternal(err)
		}

		c.Cookie(&fiber.Cookie{
			Name:     cookie.Name,
			Value:    sess.SessionID,
			Path:     "/",
			Expires:  time.Now().Add(cookie.TTL),
			HTTPOnly: true,
			SameSite: fiber.CookieSameSiteLaxMode,
		})

		logger.WithUserID(int64(userID)).WithField("session_id", sess.SessionID).Info("User signed in")

		if isHTMXRequest(c) {
			c.Set("HX-Redirect", "/")
			return c.SendStatus(fiber.StatusNoContent)
		}
		return c.Redirect("/", fiber.StatusSeeOther)
	}
}

// HandleLogout announces logout on the user's socket, then drops the session
func HandleLogout(store sessions.Store, mgr *client.Manager, cookie SessionCookie) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := requestContext(c)
		defer cancel()

		if userID, ok := auth.UserID(c); ok {
			mgr.Remove(ctx, userID)
		}
		if sessionID, ok := c.Locals(auth.LocalSessionID).(string); ok {
			if err := store.Delete(ctx, sessionID); err != nil {
				logger.WithError(err).Warn("Failed to delete session")
			}
		}

		c.Cookie(&fiber.Cookie{
			Name:     cookie.Name,
			Value:    "",
			Path:     "/",
			Expires:  time.Now().Add(-time.Hour),
			HTTPOnly: true,
			SameSite: fiber.CookieSameSiteLaxMode,
		})

		if isHTMXRequest(c) {
			c.Set("HX-Redirect", apperrors.SignInPath)
			return c.SendStatus(fiber.StatusNoContent)
		}
		return c.Redirect(apperrors.SignInPath, fiber.StatusSeeOther)
	}
}

// HandleMembers lists every other user for the group member picker
func HandleMembers(mgr *client.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		cl, err := clientFromContext(c, mgr)
		if err != nil {
			return err
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		users, err := cl.LoadAllUsers(ctx)
		if err != nil {
			return err
		}
		return c.Render("partials/members", fiber.Map{"Users": users})
	}
}
