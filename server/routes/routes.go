package routes

import (
	"time"

	"webchat/server/handlers"
	"webchat/services/client"
	"webchat/services/sessions"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// Deps are the services the routes hand to their handlers
type Deps struct {
	Manager   *client.Manager
	Sessions  sessions.Store
	Redis     *redis.Client
	Cookie    handlers.SessionCookie
	Fragments handlers.FragmentRenderer
	StaticDir string

	// ActionBurst and ActionRefill throttle POST actions per user
	ActionBurst  int64
	ActionRefill time.Duration
}

// RegisterRoutes wires the public, authenticated and API routes
func RegisterRoutes(app *fiber.App, deps Deps) {
	NewPublicRoutes(deps).Register(app)

	authed := NewAuthRoutes(deps).Register(app)
	NewAPIRoutes(deps).Register(authed)
}
