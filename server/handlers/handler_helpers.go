package handlers

import (
	"context"
	"time"

	"webchat/apperrors"
	"webchat/server/middleware/auth"
	"webchat/services/client"

	"github.com/gofiber/fiber/v2"
)

// requestTimeout bounds the backend calls made while serving one request
const requestTimeout = 15 * time.Second

// isHTMXRequest checks if the request is from HTMX
func isHTMXRequest(c *fiber.Ctx) bool {
	return c.Get("HX-Request") == "true"
}

// clientFromContext returns the signed-in user's chat client, creating and
// connecting it on first use
func clientFromContext(c *fiber.Ctx, mgr *client.Manager) (*client.Client, error) {
	userID, ok := auth.UserID(c)
	if !ok {
		return nil, apperrors.NewUnauthorized("")
	}
	cl, _ := mgr.Get(userID)
	return cl, nil
}

func requestContext(c *fiber.Ctx) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.UserContext(), requestTimeout)
}
