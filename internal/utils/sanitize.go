package utils

import "strings"

// MaxCommentLength is the maximum number of characters stored per comment.
const MaxCommentLength = 2000

var commentEscaper = strings.NewReplacer(
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#x27;",
	"/", "&#x2F;",
)

// SanitizeComment escapes markup-significant characters, trims surrounding
// whitespace and truncates the result to MaxCommentLength characters.
// An empty result is left for the caller to reject.
func SanitizeComment(text string) string {
	escaped := strings.TrimSpace(commentEscaper.Replace(text))

	runes := []rune(escaped)
	if len(runes) > MaxCommentLength {
		return string(runes[:MaxCommentLength])
	}
	return escaped
}
