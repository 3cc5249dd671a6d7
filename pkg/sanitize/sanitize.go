// Package sanitize strips markup from free text before it is stored.
package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// strict removes every tag; safe for concurrent use once built.
var strict = bluemonday.StrictPolicy()

// maxPasses bounds nested entity encodings such as "&amp;lt;".
const maxPasses = 8

// Text removes all HTML from s. Entities the policy escapes are decoded again,
// so plain text such as "卵 & 牛乳" is kept as typed. Decoding can surface
// markup written as entities, so passes repeat until the text is stable.
func Text(s string) string {
	out := s
	for i := 0; i < maxPasses; i++ {
		next := html.UnescapeString(strict.Sanitize(out))
		if next == out {
			return strings.TrimSpace(out)
		}
		out = next
	}
	// not stable: keep the escaped form rather than risk live markup
	return strings.TrimSpace(strict.Sanitize(out))
}

// TextPtr is Text for optional fields.
func TextPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := Text(*s)
	return &v
}
