package auth

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const testSecret = "moderation-secret"

func TestAdminTokenRoundTrip(t *testing.T) {
	token, err := IssueAdminToken(testSecret, "ops", time.Hour, time.Now())
	require.NoError(t, err)

	claims, err := NewAdminTokenVerifier(testSecret).Verify(token)
	require.NoError(t, err)
	require.True(t, claims.IsAdmin())
	require.Equal(t, "ops", claims.Subject)
}

func TestAdminTokenRejectsExpired(t *testing.T) {
	token, err := IssueAdminToken(testSecret, "ops", time.Minute, time.Now().Add(-2*time.Hour))
	require.NoError(t, err)

	_, err = NewAdminTokenVerifier(testSecret).Verify(token)
	require.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestAdminTokenRejectsMissingExpiry(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, AdminClaims{Role: AdminRole}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = NewAdminTokenVerifier(testSecret).Verify(token)
	require.Error(t, err)
}

func TestAdminTokenRejectsWrongSecret(t *testing.T) {
	token, err := IssueAdminToken("other-secret", "ops", time.Hour, time.Now())
	require.NoError(t, err)

	_, err = NewAdminTokenVerifier(testSecret).Verify(token)
	require.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)
}

func TestAdminTokenRejectsTamperedPayload(t *testing.T) {
	token, err := IssueAdminToken(testSecret, "ops", time.Hour, time.Now())
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	forged := base64.RawURLEncoding.EncodeToString([]byte(`{"role":"admin","sub":"intruder","exp":4102444800}`))
	tampered := parts[0] + "." + forged + "." + parts[2]

	_, err = NewAdminTokenVerifier(testSecret).Verify(tampered)
	require.Error(t, err)
}

func TestAdminTokenRejectsTamperedSignature(t *testing.T) {
	token, err := IssueAdminToken(testSecret, "ops", time.Hour, time.Now())
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	signature := []byte(parts[2])
	if signature[0] == 'A' {
		signature[0] = 'B'
	} else {
		signature[0] = 'A'
	}

	_, err = NewAdminTokenVerifier(testSecret).Verify(parts[0] + "." + parts[1] + "." + string(signature))
	require.Error(t, err)
}

func TestAdminTokenRejectsMalformedInput(t *testing.T) {
	verifier := NewAdminTokenVerifier(testSecret)
	for _, token := range []string{"", "abc", "a.b", "a.b.c.d", "!!!.???.###", "e30.e30."} {
		_, err := verifier.Verify(token)
		require.Error(t, err, token)
	}
}

func TestAdminTokenNonAdminRole(t *testing.T) {
	claims := AdminClaims{
		Role:             "editor",
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	parsed, err := NewAdminTokenVerifier(testSecret).Verify(token)
	require.NoError(t, err)
	require.False(t, parsed.IsAdmin())
}

func TestAdminTokenVerifierDisabledWithoutSecret(t *testing.T) {
	verifier := NewAdminTokenVerifier("")
	require.False(t, verifier.Enabled())

	_, err := verifier.Verify("a.b.c")
	require.ErrorIs(t, err, ErrAdminTokenDisabled)
}

func TestAdminTokenUsesInjectedClock(t *testing.T) {
	issued := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	token, err := IssueAdminToken(testSecret, "ops", time.Hour, issued)
	require.NoError(t, err)

	verifier := NewAdminTokenVerifier(testSecret)
	verifier.now = func() time.Time { return issued.Add(30 * time.Minute) }
	_, err = verifier.Verify(token)
	require.NoError(t, err)

	verifier.now = func() time.Time { return issued.Add(2 * time.Hour) }
	_, err = verifier.Verify(token)
	require.ErrorIs(t, err, jwt.ErrTokenExpired)
}
