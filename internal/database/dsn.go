package database

import (
	"regexp"
	"strings"
)

var quotedPsqlArg = regexp.MustCompile(`(?i)psql\s+['"]([^'"]+)['"]`)

// NormalizeDSN accepts the connection string forms operators paste from
// hosting dashboards: a bare URL, a quoted URL or a full `psql '<url>'`
// command line. It returns an empty string when nothing usable remains.
func NormalizeDSN(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}

	if strings.HasPrefix(strings.ToLower(trimmed), "psql") {
		if match := quotedPsqlArg.FindStringSubmatch(trimmed); len(match) == 2 {
			return strings.TrimSpace(match[1])
		}
		parts := strings.Fields(trimmed)
		if len(parts) > 1 {
			return strings.TrimSpace(strings.Trim(parts[1], `'"`))
		}
	}

	return strings.TrimSpace(strings.Trim(trimmed, `'"`))
}
