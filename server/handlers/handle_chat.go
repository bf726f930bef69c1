package handlers

import (
	"html/template"

	"webchat/apperrors"
	"webchat/pkg/logger"
	"webchat/services/chat"
	"webchat/services/client"

	"github.com/gofiber/fiber/v2"
)

// chatView is everything the chat page and its partials draw
func chatView(cl *client.Client) fiber.Map {
	conv := cl.State().Active()
	return fiber.Map{
		"UserID":   int64(cl.Session().UserID),
		"Profile":  cl.Board().Profile(),
		"Contacts": cl.Board().Contacts(),
		"Notice":   cl.Board().Notice(),
		"Title":    cl.State().Title(),
		"Active":   conv,
		"Messages": template.HTML(cl.Pane().HTML()),
	}
}

// HandleChatPage renders the chat page after running the initial loads:
// private contacts, messages of the active conversation and the profile.
func HandleChatPage(mgr *client.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		cl, err := clientFromContext(c, mgr)
		if err != nil {
			return err
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		if err := cl.Bootstrap(ctx); err != nil {
			logger.WithError(err).WithUserID(int64(cl.Session().UserID)).Warn("Initial load incomplete")
		}

		return c.Render("chat", chatView(cl))
	}
}

// HandleContacts switches the contact panel between the private and group lists
func HandleContacts(mgr *client.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		cl, err := clientFromContext(c, mgr)
		if err != nil {
			return err
		}

		kind, ok := chat.ParseKind(c.Query("type", string(chat.KindPrivate)))
		if !ok {
			return apperrors.NewBadRequest("Unknown contact list type")
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		// a failed load leaves an inline error in the panel
		_ = cl.LoadContacts(ctx, kind)

		return c.Render("partials/contacts", chatView(cl))
	}
}

type selectRequest struct {
	ID   int64  `form:"id" json:"id"`
	Type string `form:"type" json:"type"`
}

// HandleSelect makes a contact or group the active conversation and returns
// its history
func HandleSelect(mgr *client.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		cl, err := clientFromContext(c, mgr)
		if err != nil {
			return err
		}

		var req selectRequest
		if err := c.BodyParser(&req); err != nil {
			return apperrors.NewBadRequest("Invalid selection").WithInternal(err)
		}
		kind, ok := chat.ParseKind(req.Type)
		if !ok || req.ID <= 0 {
			return apperrors.NewBadRequest("Invalid selection")
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		// the pane shows the inline error when history fails
		_ = cl.Select(ctx, chat.ID(req.ID), kind)

		return c.Render("partials/conversation", chatView(cl))
	}
}

type sendRequest struct {
	Content string `form:"content" json:"content"`
}

// HandleSendMessage relays a message to the backend. The message shows up in
// the pane when the server echoes it back over the socket.
func HandleSendMessage(mgr *client.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		cl, err := clientFromContext(c, mgr)
		if err != nil {
			return err
		}

		var req sendRequest
		if err := c.BodyParser(&req); err != nil {
			return apperrors.NewBadRequest("Invalid message").WithInternal(err)
		}

		if err := cl.SendMessage(req.Content); err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
