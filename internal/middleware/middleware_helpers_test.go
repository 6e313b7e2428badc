package middleware_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/comics-comments-api/internal/auth"
)

type stubIdentityVerifier struct{}

func (stubIdentityVerifier) Verify(ctx context.Context, token string) (auth.Identity, error) {
	switch token {
	case "good-token":
		return auth.Identity{ID: "user-1", Email: "reader@example.com"}, nil
	case "second-token":
		return auth.Identity{ID: "user-2", Email: "second@example.com"}, nil
	case "upstream-down":
		return auth.Identity{}, errors.New("identity provider unavailable")
	default:
		return auth.Identity{}, auth.ErrInvalidToken
	}
}

func perform(t *testing.T, app *fiber.App, req *http.Request) (*http.Response, string) {
	t.Helper()
	resp, err := app.Test(req)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	_ = resp.Body.Close()
	return resp, string(body)
}
