package handlers

import (
	"os"
	"path/filepath"

	"github.com/gofiber/fiber/v2"
)

// HandleFavicon serves favicon.ico from the static directory, or nothing so
// the browser's request never reaches the session gate
func HandleFavicon(staticDir string) fiber.Handler {
	path := filepath.Join(staticDir, "favicon.ico")
	return func(c *fiber.Ctx) error {
		if _, err := os.Stat(path); err != nil {
			return c.SendStatus(fiber.StatusNoContent)
		}
		return c.SendFile(path)
	}
}
