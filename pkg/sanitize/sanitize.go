// Package sanitize filters untrusted string input to an allow-listed
// character set before it reaches validation, storage, or diffing.
package sanitize

import (
	"strings"
	"unicode"
)

// allowedRune reports whether r survives sanitization. The allow-list is
// alphanumerics, the Arabic block (U+0600–U+06FF), whitespace, and the
// symbols - / & ( ) , .
func allowedRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r >= 0x0600 && r <= 0x06FF:
		return true
	case unicode.IsSpace(r):
		return true
	}
	switch r {
	case '-', '/', '&', '(', ')', ',', '.':
		return true
	}
	return false
}

// String trims s, replaces every disallowed character with a space,
// collapses whitespace runs into single spaces, and trims again.
// Empty input stays empty.
func String(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if allowedRune(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}

// Email performs the minimal sanitization safe for email addresses:
// leading and trailing whitespace only. The allow-list would destroy
// valid addresses (@, +, _).
func Email(s string) string {
	return strings.TrimSpace(s)
}

// Map recursively sanitizes string values in nested maps and slices.
// String values under keys containing "email" (case-insensitive) are
// trimmed only; all other strings pass through String. Non-string values
// are returned unmodified.
func Map(data map[string]any) map[string]any {
	if data == nil {
		return nil
	}
	out := make(map[string]any, len(data))
	for key, value := range data {
		out[key] = sanitizeValue(key, value)
	}
	return out
}

func sanitizeValue(key string, value any) any {
	switch v := value.(type) {
	case string:
		if strings.Contains(strings.ToLower(key), "email") {
			return Email(v)
		}
		return String(v)
	case map[string]any:
		return Map(v)
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = sanitizeValue(key, item)
		}
		return out
	default:
		return value
	}
}
