package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/comics-comments-api/internal/auth"
)

// AdminSession inspects the admin session cookie and marks the request as
// admin when the token verifies. Verification failures never reject the
// request; the caller is simply treated as a regular reader.
func AdminSession(verifier *auth.AdminTokenVerifier, logger zerolog.Logger) fiber.Handler {
	log := logger.With().Str("component", "admin_session").Logger()

	return func(c *fiber.Ctx) error {
		token := AdminCookie(c)
		if token == "" || verifier == nil || !verifier.Enabled() {
			return c.Next()
		}

		claims, err := verifier.Verify(token)
		if err != nil {
			log.Debug().Err(err).Str("correlation_id", GetCorrelationID(c)).Msg("ignoring invalid admin token")
			return c.Next()
		}
		if claims.IsAdmin() {
			c.Locals("user_role", auth.AdminRole)
		}

		return c.Next()
	}
}

// AdminCookie returns the raw admin session cookie, or "".
func AdminCookie(c *fiber.Ctx) string {
	return strings.TrimSpace(c.Cookies(auth.AdminCookieName))
}

// IsAdmin reports whether AdminSession accepted an admin token for this request.
func IsAdmin(c *fiber.Ctx) bool {
	role, _ := c.Locals("user_role").(string)
	return strings.EqualFold(strings.TrimSpace(role), auth.AdminRole)
}
