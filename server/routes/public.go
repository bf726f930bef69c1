package routes

import (
	"webchat/apperrors"
	"webchat/server/handlers"

	"github.com/gofiber/fiber/v2"
)

// PublicRoutes handles routes that need no session
type PublicRoutes struct {
	deps Deps
}

func NewPublicRoutes(deps Deps) *PublicRoutes {
	return &PublicRoutes{deps: deps}
}

func (pr *PublicRoutes) Register(app *fiber.App) {
	app.Get(apperrors.SignInPath, handlers.HandleSignInPage())
	app.Post(apperrors.SignInPath, handlers.HandleSignIn(pr.deps.Sessions, pr.deps.Cookie))

	health := handlers.NewHealthCheckHandler(pr.deps.Redis, pr.deps.Manager)
	app.Get("/health", health.HandleHealthCheck())
	app.Get("/favicon.ico", handlers.HandleFavicon(pr.deps.StaticDir))
}
