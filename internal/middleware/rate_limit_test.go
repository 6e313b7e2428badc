package middleware_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/comics-comments-api/internal/middleware"
	"github.com/noah-isme/comics-comments-api/internal/ratelimit"
)

type failingLimiter struct{}

func (failingLimiter) Allow(ctx context.Context, identity string) (bool, error) {
	return false, errors.New("limiter backend down")
}

func newPostingApp(limiter ratelimit.Limiter) *fiber.App {
	app := fiber.New()
	app.Post("/",
		middleware.IdentityRequired(stubIdentityVerifier{}, zerolog.Nop()),
		middleware.IdentityRateLimit(limiter, zerolog.Nop()),
		func(c *fiber.Ctx) error {
			return c.SendStatus(fiber.StatusCreated)
		},
	)
	return app
}

func TestIdentityRateLimitAllowsFiveThenRejects(t *testing.T) {
	app := newPostingApp(ratelimit.NewMemoryLimiter(ratelimit.Config{}, 0))

	post := func(token string) (int, string) {
		req := httptest.NewRequest(fiber.MethodPost, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, body := perform(t, app, req)
		return resp.StatusCode, body
	}

	for i := 0; i < ratelimit.DefaultMax; i++ {
		status, _ := post("good-token")
		require.Equal(t, fiber.StatusCreated, status)
	}

	status, body := post("good-token")
	require.Equal(t, fiber.StatusTooManyRequests, status)
	require.JSONEq(t, `{"error":"Rate limit exceeded. Please wait before posting again."}`, body)

	status, _ = post("second-token")
	require.Equal(t, fiber.StatusCreated, status, "windows are per identity")
}

func TestIdentityRateLimitBackendFailure(t *testing.T) {
	req := httptest.NewRequest(fiber.MethodPost, "/", nil)
	req.Header.Set("Authorization", "Bearer good-token")

	resp, body := perform(t, newPostingApp(failingLimiter{}), req)
	require.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	require.JSONEq(t, `{"error":"limiter backend down"}`, body)
}

func TestRateLimitFloodGuard(t *testing.T) {
	app := fiber.New()
	app.Use(middleware.RateLimit("comments", 2, time.Minute))
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	for i := 0; i < 2; i++ {
		resp, _ := perform(t, app, httptest.NewRequest(fiber.MethodGet, "/", nil))
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
	}

	resp, body := perform(t, app, httptest.NewRequest(fiber.MethodGet, "/", nil))
	require.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
	require.JSONEq(t, `{"error":"Too many requests"}`, body)

	resp, _ = perform(t, app, httptest.NewRequest(fiber.MethodOptions, "/", nil))
	require.NotEqual(t, fiber.StatusTooManyRequests, resp.StatusCode)
}
