// Package encoding provides shared text escaping utilities for rendered documents.
package encoding

import (
	"strings"
	"unicode"
)

// EscapeHTML escapes special characters for HTML content.
// Escapes: & < > "
func EscapeHTML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	s = strings.ReplaceAll(s, "\"", "&quot;")
	return s
}

// EscapeHTMLAttr escapes text for use in a double or single quoted HTML attribute.
func EscapeHTMLAttr(s string) string {
	s = EscapeHTML(s)
	s = strings.ReplaceAll(s, "'", "&#39;")
	return s
}

// SingleLine collapses line breaks and tabs into spaces so a value fits on
// one table row.
func SingleLine(s string) string {
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.ReplaceAll(s, "\t", " ")
	return s
}

// Slug turns a heading into an anchor id: lowercase letters and digits
// separated by single hyphens.
func Slug(s string) string {
	var b strings.Builder
	pendingHyphen := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}
	return b.String()
}

// Preview returns the first non-blank line of s cut to max runes, with "..."
// appended when it was cut.
func Preview(s string, max int) string {
	line := ""
	for _, l := range strings.Split(s, "\n") {
		if t := strings.TrimSpace(l); t != "" {
			line = t
			break
		}
	}
	runes := []rune(SingleLine(line))
	if max <= 0 || len(runes) <= max {
		return string(runes)
	}
	return string(runes[:max]) + "..."
}
