package middleware

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/rs/zerolog"

	"github.com/noah-isme/comics-comments-api/internal/observability"
	"github.com/noah-isme/comics-comments-api/internal/ratelimit"
	"github.com/noah-isme/comics-comments-api/internal/utils"
)

// MessageRateLimited is returned when a reader posts too quickly.
const MessageRateLimited = "Rate limit exceeded. Please wait before posting again."

// RateLimit creates a coarse per-user or per-IP flood guard.
func RateLimit(identifier string, max int, window time.Duration) fiber.Handler {
	if max <= 0 {
		max = 120
	}
	if window <= 0 {
		window = time.Minute
	}

	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: window,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			userID, _ := c.Locals("user_id").(string)
			if userID == "" {
				userID = c.IP()
			}
			return fmt.Sprintf("%s:%s", identifier, userID)
		},
		LimitReached: func(c *fiber.Ctx) error {
			return utils.SendError(c, fiber.StatusTooManyRequests, "Too many requests")
		},
	})
}

// IdentityRateLimit enforces the per-identity posting window. It must run
// after IdentityRequired.
func IdentityRateLimit(limiter ratelimit.Limiter, logger zerolog.Logger) fiber.Handler {
	log := logger.With().Str("component", "identity_rate_limit").Logger()

	return func(c *fiber.Ctx) error {
		identity, ok := IdentityFromContext(c)
		if !ok {
			return utils.SendError(c, fiber.StatusUnauthorized, MessageUnauthorized)
		}

		allowed, err := limiter.Allow(c.UserContext(), identity.ID)
		if err != nil {
			log.Error().Err(err).Str("correlation_id", GetCorrelationID(c)).Msg("rate limiter unavailable")
			return utils.SendError(c, fiber.StatusInternalServerError, err.Error())
		}
		if !allowed {
			observability.RateLimited().Inc()
			return utils.SendError(c, fiber.StatusTooManyRequests, MessageRateLimited)
		}

		return c.Next()
	}
}
