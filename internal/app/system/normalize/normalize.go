// Package normalize canonicalizes user-supplied strings before they are
// validated or stored.
package normalize

import (
	"strings"

	"github.com/dalemusser/organigram/internal/domain/models"
)

// Email trims and lowercases an email address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims surrounding whitespace and collapses internal runs of
// whitespace to a single space. Case is preserved.
func Name(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Username trims a username. Case is preserved for display; lookups use
// the folded form.
func Username(s string) string {
	return strings.TrimSpace(s)
}

// Role lowercases a role and maps unknown values to "".
func Role(s string) string {
	switch r := strings.ToLower(strings.TrimSpace(s)); r {
	case models.RoleUser, models.RoleEditor, models.RoleAdmin:
		return r
	default:
		return ""
	}
}

// QueryParam trims a query string value.
func QueryParam(s string) string {
	return strings.TrimSpace(s)
}

// Optional trims s and reports whether the caller supplied it at all.
// A nil pointer means "absent"; a pointer to "" means "clear".
func Optional(s *string) (value string, present bool) {
	if s == nil {
		return "", false
	}
	return strings.TrimSpace(*s), true
}
