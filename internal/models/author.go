package models

import (
	"strconv"
	"strings"
)

// AuthorKind tags the identity source a comment author was resolved from.
type AuthorKind string

const (
	AuthorKindIdentityProvider AuthorKind = "identity_provider"
	AuthorKindLegacyPlatform   AuthorKind = "legacy_platform"
)

// DefaultAuthorName is stored when no source yields a usable name.
const DefaultAuthorName = "User"

// AuthorSource is implemented by every identity a comment can be written by.
type AuthorSource interface {
	Resolve() ResolvedAuthor
}

// ResolvedAuthor is the normalized author record persisted with a comment.
type ResolvedAuthor struct {
	Kind   AuthorKind
	ID     string
	Name   string
	Handle *string
	Email  *string
	Meta   map[string]interface{}
}

// IdentityProviderUser is a reader signed in through the identity provider.
type IdentityProviderUser struct {
	ID       string
	Email    string
	FullName string
}

// Resolve implements AuthorSource.
func (u IdentityProviderUser) Resolve() ResolvedAuthor {
	email := strings.TrimSpace(u.Email)
	localPart := email
	if at := strings.Index(email, "@"); at >= 0 {
		localPart = email[:at]
	}

	resolved := ResolvedAuthor{
		Kind: AuthorKindIdentityProvider,
		ID:   strings.TrimSpace(u.ID),
		Name: firstNonEmpty(u.FullName, localPart, email),
		Meta: map[string]interface{}{"source": string(AuthorKindIdentityProvider)},
	}
	if email != "" {
		resolved.Email = &email
	}
	return resolved
}

// LegacyPlatformUser is an author from the messaging platform the site used
// before the identity provider was introduced.
type LegacyPlatformUser struct {
	PlatformID int64
	Username   string
	Name       string
}

// Resolve implements AuthorSource.
func (u LegacyPlatformUser) Resolve() ResolvedAuthor {
	id := strconv.FormatInt(u.PlatformID, 10)
	resolved := ResolvedAuthor{
		Kind: AuthorKindLegacyPlatform,
		ID:   id,
		Name: firstNonEmpty(u.Name),
		Meta: map[string]interface{}{
			"source":      string(AuthorKindLegacyPlatform),
			"platform_id": id,
		},
	}
	if handle := strings.TrimSpace(u.Username); handle != "" {
		resolved.Handle = &handle
	}
	return resolved
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return DefaultAuthorName
}
