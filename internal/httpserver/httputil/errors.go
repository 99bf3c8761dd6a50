package httputil

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

// WriteError standardizes JSON error responses across the API surface. The
// request id set by the requestid middleware is echoed so dashboard errors
// can be correlated with server logs.
func WriteError(c *fiber.Ctx, status int, msg string) error {
	if msg == "" {
		msg = http.StatusText(status)
		if msg == "" {
			msg = "unknown error"
		}
	}
	body := fiber.Map{
		"error": msg,
	}
	if rid, ok := c.Locals(requestid.ConfigDefault.ContextKey).(string); ok && rid != "" {
		body["requestId"] = rid
	}
	return c.Status(status).JSON(body)
}
