package helper

import "github.com/gofiber/fiber/v2"

// ErrorHandler is the app-wide fiber error handler. Errors returned by
// middlewares and handlers share the JsonFromError envelope.
func ErrorHandler(c *fiber.Ctx, err error) error {
	return JsonFromError(c, err)
}
