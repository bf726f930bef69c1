package routes

import (
	"strconv"

	"webchat/server/handlers"
	"webchat/server/middleware/auth"
	"webchat/server/middleware/limiter"

	"github.com/gofiber/fiber/v2"
)

// AuthRoutes handles routes that require a signed-in user
type AuthRoutes struct {
	deps Deps
}

func NewAuthRoutes(deps Deps) *AuthRoutes {
	return &AuthRoutes{deps: deps}
}

// Register mounts the authenticated routes and returns their group
func (ar *AuthRoutes) Register(app *fiber.App) fiber.Router {
	authed := app.Group("")
	authed.Use(auth.New(auth.Config{
		Store:      ar.deps.Sessions,
		CookieName: ar.deps.Cookie.Name,
	}))

	authed.Get("/", handlers.HandleChatPage(ar.deps.Manager))
	authed.Post("/logout", handlers.HandleLogout(ar.deps.Sessions, ar.deps.Manager, ar.deps.Cookie))

	ar.registerChatRoutes(authed)
	ar.registerViewRoutes(authed)

	return authed
}

// registerChatRoutes sets up the contact panel and chat actions
func (ar *AuthRoutes) registerChatRoutes(router fiber.Router) {
	throttle := limiter.New(limiter.Config{
		Burst:        ar.deps.ActionBurst,
		RefillRate:   1,
		RefillPeriod: ar.deps.ActionRefill,
		KeyGenerator: func(c *fiber.Ctx) string {
			if id, ok := auth.UserID(c); ok {
				return strconv.FormatInt(int64(id), 10)
			}
			return c.IP()
		},
	})

	router.Get("/contacts", handlers.HandleContacts(ar.deps.Manager))
	router.Get("/users", handlers.HandleMembers(ar.deps.Manager))
	router.Post("/select", handlers.HandleSelect(ar.deps.Manager))
	router.Post("/send", throttle, handlers.HandleSendMessage(ar.deps.Manager))
	router.Post("/groups", throttle, handlers.HandleCreateGroup(ar.deps.Manager))
}

// registerViewRoutes sets up the live fragment socket
func (ar *AuthRoutes) registerViewRoutes(router fiber.Router) {
	router.Get("/ws/view", handlers.HandleViewUpgrade(), handlers.HandleView(ar.deps.Manager, ar.deps.Fragments))
}
