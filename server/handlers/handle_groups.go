package handlers

import (
	"webchat/apperrors"
	"webchat/services/chat"
	"webchat/services/client"

	"github.com/gofiber/fiber/v2"
)

type createGroupRequest struct {
	GroupName string  `form:"group_name" json:"group_name"`
	Members   []int64 `form:"members" json:"members"`
}

// HandleCreateGroup creates a group and answers with the refreshed group list
func HandleCreateGroup(mgr *client.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		cl, err := clientFromContext(c, mgr)
		if err != nil {
			return err
		}

		var req createGroupRequest
		if err := c.BodyParser(&req); err != nil {
			return apperrors.NewBadRequest("Invalid group request").WithInternal(err)
		}

		members := make([]chat.ID, 0, len(req.Members))
		for _, id := range req.Members {
			members = append(members, chat.ID(id))
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		if err := cl.CreateGroup(ctx, req.GroupName, members); err != nil {
			return err
		}
		return c.Render("partials/contacts", chatView(cl))
	}
}
