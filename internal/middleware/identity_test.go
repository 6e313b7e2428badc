package middleware_test

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/comics-comments-api/internal/middleware"
)

func newIdentityApp() *fiber.App {
	app := fiber.New()
	app.Post("/", middleware.IdentityRequired(stubIdentityVerifier{}, zerolog.Nop()), func(c *fiber.Ctx) error {
		identity, ok := middleware.IdentityFromContext(c)
		if !ok {
			return c.SendStatus(fiber.StatusTeapot)
		}
		return c.SendString(identity.ID)
	})
	return app
}

func TestIdentityRequiredRejectsMissingBearer(t *testing.T) {
	resp, body := perform(t, newIdentityApp(), httptest.NewRequest(fiber.MethodPost, "/", nil))
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	require.JSONEq(t, `{"error":"Unauthorized"}`, body)

	req := httptest.NewRequest(fiber.MethodPost, "/", nil)
	req.Header.Set("Authorization", "Basic abc")
	resp, _ = perform(t, newIdentityApp(), req)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestIdentityRequiredRejectsInvalidToken(t *testing.T) {
	req := httptest.NewRequest(fiber.MethodPost, "/", nil)
	req.Header.Set("Authorization", "Bearer expired")

	resp, body := perform(t, newIdentityApp(), req)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	require.JSONEq(t, `{"error":"Invalid or expired token"}`, body)
}

func TestIdentityRequiredSurfacesUpstreamFailure(t *testing.T) {
	req := httptest.NewRequest(fiber.MethodPost, "/", nil)
	req.Header.Set("Authorization", "Bearer upstream-down")

	resp, body := perform(t, newIdentityApp(), req)
	require.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	require.JSONEq(t, `{"error":"identity provider unavailable"}`, body)
}

func TestIdentityRequiredStoresIdentity(t *testing.T) {
	req := httptest.NewRequest(fiber.MethodPost, "/", nil)
	req.Header.Set("Authorization", "bearer good-token")

	resp, body := perform(t, newIdentityApp(), req)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "user-1", body)
}
