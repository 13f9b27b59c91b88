// Package htmlsanitize strips markup from user-entered text so that node
// fields are stored as plain text.
package htmlsanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// PlainText removes every tag from s and unescapes the entities bluemonday
// produces, returning trimmed plain text. Script and style contents are
// dropped along with their tags.
func PlainText(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}
