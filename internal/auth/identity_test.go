package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func newSupabaseStub(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/v1/user" || r.Header.Get("apikey") != "anon-key" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		switch r.Header.Get("Authorization") {
		case "Bearer good-token":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id":"user-1","email":"reader@example.com","user_metadata":{"full_name":"Kim Reader"}}`))
		case "Bearer broken-upstream":
			w.WriteHeader(http.StatusBadGateway)
		default:
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"msg":"invalid JWT"}`))
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func TestSupabaseVerifierReturnsIdentity(t *testing.T) {
	server := newSupabaseStub(t)
	verifier := NewSupabaseVerifier(SupabaseConfig{URL: server.URL + "/", AnonKey: "anon-key"})

	identity, err := verifier.Verify(context.Background(), "good-token")
	require.NoError(t, err)
	require.Equal(t, Identity{ID: "user-1", Email: "reader@example.com", FullName: "Kim Reader"}, identity)
}

func TestSupabaseVerifierRejectsInvalidTokens(t *testing.T) {
	server := newSupabaseStub(t)
	verifier := NewSupabaseVerifier(SupabaseConfig{URL: server.URL, AnonKey: "anon-key"})

	_, err := verifier.Verify(context.Background(), "expired-token")
	require.ErrorIs(t, err, ErrInvalidToken)

	_, err = verifier.Verify(context.Background(), "   ")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestSupabaseVerifierReportsUpstreamFailures(t *testing.T) {
	server := newSupabaseStub(t)
	verifier := NewSupabaseVerifier(SupabaseConfig{URL: server.URL, AnonKey: "anon-key"})

	_, err := verifier.Verify(context.Background(), "broken-upstream")
	require.Error(t, err)
	require.False(t, errors.Is(err, ErrInvalidToken))
}

func TestSupabaseVerifierNotConfigured(t *testing.T) {
	verifier := NewSupabaseVerifier(SupabaseConfig{})

	_, err := verifier.Verify(context.Background(), "good-token")
	require.ErrorIs(t, err, ErrNotConfigured)
}
