package middleware_test

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/comics-comments-api/internal/middleware"
)

func newCorrelationApp() *fiber.App {
	app := fiber.New()
	app.Use(middleware.CorrelationID())
	app.Get("/", func(c *fiber.Ctx) error {
		if middleware.CorrelationIDFromContext(c.UserContext()) != middleware.GetCorrelationID(c) {
			return c.SendStatus(fiber.StatusTeapot)
		}
		return c.SendString(middleware.GetCorrelationID(c))
	})
	return app
}

func TestCorrelationIDReusesIncomingHeader(t *testing.T) {
	req := httptest.NewRequest(fiber.MethodGet, "/", nil)
	req.Header.Set("X-Correlation-ID", "abc-123")

	resp, body := perform(t, newCorrelationApp(), req)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "abc-123", body)
	require.Equal(t, "abc-123", resp.Header.Get("X-Correlation-ID"))
}

func TestCorrelationIDFallsBackToRequestID(t *testing.T) {
	req := httptest.NewRequest(fiber.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "req-9")

	_, body := perform(t, newCorrelationApp(), req)
	require.Equal(t, "req-9", body)
}

func TestCorrelationIDReplacesOversizedValues(t *testing.T) {
	req := httptest.NewRequest(fiber.MethodGet, "/", nil)
	req.Header.Set("X-Correlation-ID", strings.Repeat("x", 200))

	resp, body := perform(t, newCorrelationApp(), req)
	require.Len(t, body, 36)
	require.Equal(t, body, resp.Header.Get("X-Correlation-ID"))
}
