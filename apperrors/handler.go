package apperrors

import (
	"html"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// SignInPath is where unauthenticated browsers are sent
const SignInPath = "/init/sign_in"

// Printer is the subset of a logger the handler needs
type Printer interface {
	Printf(format string, args ...any)
}

// HandlerConfig configures the error handler
type HandlerConfig struct {
	Logger Printer

	// ShowInternalErrors exposes wrapped errors in API responses (dev only)
	ShowInternalErrors bool

	// OnError is called for each error (metrics)
	OnError func(c *fiber.Ctx, err *AppError)
}

// Handler creates a Fiber error handler
func Handler(config HandlerConfig) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		appErr := FromError(err)

		if config.Logger != nil {
			logError(config.Logger, c, appErr)
		}
		if config.OnError != nil {
			config.OnError(c, appErr)
		}

		if c.Get("HX-Request") == "true" {
			return handleFragmentError(c, appErr)
		}
		if strings.HasPrefix(c.Path(), "/api") {
			return handleAPIError(c, appErr, config.ShowInternalErrors)
		}
		return handleBrowserError(c, appErr)
	}
}

// handleFragmentError answers partial-page requests with an inline error block
func handleFragmentError(c *fiber.Ctx, err *AppError) error {
	if err.Code == ErrCodeUnauthorized {
		c.Set("HX-Redirect", SignInPath)
		return c.SendStatus(fiber.StatusUnauthorized)
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.Status(err.StatusCode).SendString(ErrorFragment(err.Message))
}

func handleAPIError(c *fiber.Ctx, err *AppError, showInternal bool) error {
	body := fiber.Map{
		"code":    err.Code,
		"message": err.Message,
	}
	if len(err.Details) > 0 {
		body["details"] = err.Details
	}
	if showInternal && err.Internal != nil {
		body["internal"] = err.Internal.Error()
	}
	return c.Status(err.StatusCode).JSON(fiber.Map{"error": body})
}

func handleBrowserError(c *fiber.Ctx, err *AppError) error {
	if err.Code == ErrCodeUnauthorized {
		return c.Redirect(SignInPath)
	}

	renderErr := c.Status(err.StatusCode).Render("error", fiber.Map{
		"Code":    err.Code,
		"Message": err.Message,
		"Status":  err.StatusCode,
	})
	if renderErr != nil {
		return c.Status(err.StatusCode).SendString(err.Message)
	}
	return nil
}

// ErrorFragment is the inline error block shown in place of a panel's content
func ErrorFragment(message string) string {
	return `<div class="error">` + html.EscapeString(message) + `</div>`
}

func logError(logger Printer, c *fiber.Ctx, err *AppError) {
	if err.StatusCode < 500 {
		logger.Printf("[WARN] %s %s | %s | Status: %d", c.Method(), c.Path(), err.Error(), err.StatusCode)
		return
	}
	logger.Printf("[ERROR] %s %s | %s | Status: %d | IP: %s", c.Method(), c.Path(), err.Error(), err.StatusCode, c.IP())
}
