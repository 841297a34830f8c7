// Package htmlsanitize cleans untrusted text before it is stored.
package htmlsanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// strict strips every element and attribute.
var strict = bluemonday.StrictPolicy()

// PlainText removes all markup from s, decodes entities bluemonday escaped,
// collapses runs of whitespace and trims the result.
func PlainText(s string) string {
	if s == "" {
		return ""
	}
	cleaned := html.UnescapeString(strict.Sanitize(s))
	return strings.Join(strings.Fields(cleaned), " ")
}

// Truncate shortens s to at most max runes.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return strings.TrimSpace(string(r[:max]))
}
