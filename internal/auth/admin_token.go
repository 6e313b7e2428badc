package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AdminRole is the only role value that grants moderation rights.
const AdminRole = "admin"

// AdminCookieName is the cookie carrying the locally issued admin token.
const AdminCookieName = "admin_token"

// ErrAdminTokenDisabled indicates no shared secret was configured.
var ErrAdminTokenDisabled = errors.New("admin token secret not configured")

// AdminClaims is the payload of a locally issued admin token.
type AdminClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// IsAdmin reports whether the claims grant moderation privileges.
func (c AdminClaims) IsAdmin() bool {
	return c.Role == AdminRole
}

// AdminTokenVerifier checks HS256 admin tokens signed with a shared secret.
type AdminTokenVerifier struct {
	secret []byte
	now    func() time.Time
}

// NewAdminTokenVerifier constructs a verifier for the given shared secret.
func NewAdminTokenVerifier(secret string) *AdminTokenVerifier {
	return &AdminTokenVerifier{secret: []byte(secret), now: time.Now}
}

// Enabled reports whether a secret is configured.
func (v *AdminTokenVerifier) Enabled() bool {
	return v != nil && len(v.secret) > 0
}

// Verify validates the signature and expiry of token and returns its claims.
// Any malformed input fails closed with an error.
func (v *AdminTokenVerifier) Verify(token string) (AdminClaims, error) {
	if !v.Enabled() {
		return AdminClaims{}, ErrAdminTokenDisabled
	}

	token = strings.TrimSpace(token)
	if strings.Count(token, ".") != 2 {
		return AdminClaims{}, fmt.Errorf("admin token: %w", jwt.ErrTokenMalformed)
	}

	var claims AdminClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return v.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		return AdminClaims{}, fmt.Errorf("admin token: %w", err)
	}
	if !parsed.Valid {
		return AdminClaims{}, fmt.Errorf("admin token: %w", jwt.ErrTokenSignatureInvalid)
	}

	return claims, nil
}

// IssueAdminToken signs a new admin token valid for ttl.
func IssueAdminToken(secret, subject string, ttl time.Duration, now time.Time) (string, error) {
	if secret == "" {
		return "", ErrAdminTokenDisabled
	}
	if ttl <= 0 {
		return "", fmt.Errorf("admin token ttl must be positive")
	}

	claims := AdminClaims{
		Role: AdminRole,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
