package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

var (
	// ErrInvalidToken indicates a missing, malformed, revoked or expired bearer token.
	ErrInvalidToken = errors.New("invalid or expired token")
	// ErrNotConfigured indicates the identity provider credentials were not supplied.
	ErrNotConfigured = errors.New("Supabase auth not configured")
)

// Identity is the signed-in reader returned by the identity provider.
type Identity struct {
	ID       string
	Email    string
	FullName string
}

// IdentityVerifier validates bearer tokens issued by the identity provider.
type IdentityVerifier interface {
	Verify(ctx context.Context, token string) (Identity, error)
}

// SupabaseConfig configures the Supabase token introspection client.
type SupabaseConfig struct {
	URL     string
	AnonKey string
	Timeout time.Duration
}

// SupabaseVerifier resolves bearer tokens through the Supabase auth user endpoint.
type SupabaseVerifier struct {
	baseURL string
	anonKey string
	client  *http.Client
}

type supabaseUser struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	UserMetadata struct {
		FullName string `json:"full_name"`
	} `json:"user_metadata"`
}

// NewSupabaseVerifier constructs a verifier. Missing credentials are reported
// per call with ErrNotConfigured.
func NewSupabaseVerifier(cfg SupabaseConfig) *SupabaseVerifier {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &SupabaseVerifier{
		baseURL: strings.TrimRight(strings.TrimSpace(cfg.URL), "/"),
		anonKey: strings.TrimSpace(cfg.AnonKey),
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// Verify implements IdentityVerifier.
func (v *SupabaseVerifier) Verify(ctx context.Context, token string) (Identity, error) {
	if v.baseURL == "" || v.anonKey == "" {
		return Identity{}, ErrNotConfigured
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return Identity{}, ErrInvalidToken
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.baseURL+"/auth/v1/user", nil)
	if err != nil {
		return Identity{}, fmt.Errorf("build identity request: %w", err)
	}
	req.Header.Set("apikey", v.anonKey)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := v.client.Do(req)
	if err != nil {
		return Identity{}, fmt.Errorf("identity provider request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized,
		resp.StatusCode == http.StatusForbidden,
		resp.StatusCode == http.StatusNotFound,
		resp.StatusCode == http.StatusBadRequest:
		_, _ = io.Copy(io.Discard, resp.Body)
		return Identity{}, ErrInvalidToken
	case resp.StatusCode != http.StatusOK:
		_, _ = io.Copy(io.Discard, resp.Body)
		return Identity{}, fmt.Errorf("identity provider returned status %d", resp.StatusCode)
	}

	var user supabaseUser
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&user); err != nil {
		return Identity{}, fmt.Errorf("decode identity response: %w", err)
	}
	if strings.TrimSpace(user.ID) == "" {
		return Identity{}, ErrInvalidToken
	}

	return Identity{
		ID:       user.ID,
		Email:    user.Email,
		FullName: user.UserMetadata.FullName,
	}, nil
}
