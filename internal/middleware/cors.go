package middleware

import (
	"github.com/gofiber/fiber/v2"
)

const (
	corsAllowHeaders = "authorization, x-client-info, apikey, content-type, cookie"
	corsAllowMethods = "GET, POST, DELETE, OPTIONS"
)

// CORS echoes the caller's origin with credentials allowed and answers
// preflight requests with an empty 200.
func CORS() fiber.Handler {
	return func(c *fiber.Ctx) error {
		origin := c.Get(fiber.HeaderOrigin)
		if origin == "" {
			origin = "*"
		}

		c.Set(fiber.HeaderAccessControlAllowOrigin, origin)
		c.Set(fiber.HeaderAccessControlAllowCredentials, "true")
		c.Set(fiber.HeaderAccessControlAllowHeaders, corsAllowHeaders)
		c.Set(fiber.HeaderAccessControlAllowMethods, corsAllowMethods)
		c.Vary(fiber.HeaderOrigin)

		if c.Method() == fiber.MethodOptions {
			return c.Status(fiber.StatusOK).SendString("ok")
		}

		return c.Next()
	}
}
