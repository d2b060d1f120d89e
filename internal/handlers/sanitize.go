package handlers

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var textPolicy = bluemonday.StrictPolicy()

// maxSanitizePasses bounds how often entity-encoded markup is re-checked.
const maxSanitizePasses = 3

// sanitizeText strips markup and NUL bytes from user supplied text. Entities
// the policy escapes are decoded again so plain text round trips unchanged.
// Text still changing after the last pass is returned in escaped form.
func sanitizeText(s string) string {
	s = strings.ReplaceAll(s, "\x00", "")
	for i := 0; i < maxSanitizePasses; i++ {
		next := html.UnescapeString(textPolicy.Sanitize(s))
		if next == s {
			return strings.TrimSpace(s)
		}
		s = next
	}
	return strings.TrimSpace(textPolicy.Sanitize(s))
}

func sanitizeOptional(s *string) *string {
	if s == nil {
		return nil
	}
	clean := sanitizeText(*s)
	return &clean
}
