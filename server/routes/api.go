package routes

import (
	"webchat/apperrors"
	"webchat/server/middleware/auth"

	"github.com/gofiber/fiber/v2"
)

// APIRoutes handles versioned JSON endpoints
type APIRoutes struct {
	deps Deps
}

func NewAPIRoutes(deps Deps) *APIRoutes {
	return &APIRoutes{deps: deps}
}

// Register mounts /api/v1 under router
func (ar *APIRoutes) Register(router fiber.Router) {
	api := router.Group("/api")
	ar.registerV1Routes(api)
}

func (ar *APIRoutes) registerV1Routes(api fiber.Router) {
	v1 := api.Group("/v1")

	// Status of the caller's chat client
	v1.Get("/status", func(c *fiber.Ctx) error {
		userID, ok := auth.UserID(c)
		if !ok {
			return apperrors.NewUnauthorized("")
		}

		cl, ok := ar.deps.Manager.Lookup(userID)
		if !ok {
			return apperrors.New(apperrors.ErrCodeNotFound, "No chat client for this session", fiber.StatusNotFound)
		}

		conv := cl.State().Active()
		active := fiber.Map{"set": conv.Set, "kind": conv.Kind}
		if conv.Set {
			active["id"] = int64(conv.ID)
		}
		return c.JSON(fiber.Map{
			"user_id": int64(userID),
			"socket":  cl.SocketState().String(),
			"active":  active,
			"notice":  cl.Board().Notice(),
		})
	})
}
