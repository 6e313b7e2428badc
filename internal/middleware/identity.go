package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/comics-comments-api/internal/auth"
	"github.com/noah-isme/comics-comments-api/internal/utils"
)

const identityLocalsKey = "identity"

// Identity failure messages returned to callers.
const (
	MessageUnauthorized = "Unauthorized"
	MessageInvalidToken = "Invalid or expired token"
)

// IdentityRequired verifies the bearer token with the identity provider and
// stores the resolved identity on the request.
func IdentityRequired(verifier auth.IdentityVerifier, logger zerolog.Logger) fiber.Handler {
	log := logger.With().Str("component", "identity_middleware").Logger()

	return func(c *fiber.Ctx) error {
		token := BearerToken(c)
		if token == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, MessageUnauthorized)
		}

		identity, err := verifier.Verify(c.UserContext(), token)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidToken) {
				return utils.SendError(c, fiber.StatusUnauthorized, MessageInvalidToken)
			}
			log.Error().Err(err).Str("correlation_id", GetCorrelationID(c)).Msg("identity verification failed")
			return utils.SendError(c, fiber.StatusInternalServerError, err.Error())
		}

		c.Locals(identityLocalsKey, identity)
		c.Locals("user_id", identity.ID)

		return c.Next()
	}
}

// IdentityFromContext returns the identity stored by IdentityRequired.
func IdentityFromContext(c *fiber.Ctx) (auth.Identity, bool) {
	identity, ok := c.Locals(identityLocalsKey).(auth.Identity)
	return identity, ok
}

// BearerToken extracts the token of an `Authorization: Bearer` header, or "".
func BearerToken(c *fiber.Ctx) string {
	authorization := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	const bearer = "Bearer "
	if len(authorization) < len(bearer) || !strings.EqualFold(authorization[:len(bearer)], bearer) {
		return ""
	}
	return strings.TrimSpace(authorization[len(bearer):])
}
