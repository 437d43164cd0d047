package middleware

import (
	"github.com/gofiber/fiber/v2"
)

// VersionMiddleware normalizes the X-Api-Version request header, stores it
// in the request context, and echoes the version the server answered with.
func VersionMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		version := c.Get("X-Api-Version", "1.0.0")

		// Alias for clients sending the short form
		if version == "1.0" {
			version = "1.0.0"
		}

		c.Locals("apiVersion", version)
		c.Set("X-Api-Version", version)

		return c.Next()
	}
}
