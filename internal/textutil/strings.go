package textutil

import (
	"strings"
	"unicode"
)

// SanitizeToken reduces value to a lowercase token safe for file names:
// ASCII letters, digits, '-' and '_'. Other runes become '_'. Empty results
// yield "unknown".
func SanitizeToken(value string) string {
	out := strings.Map(func(r rune) rune {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			return unicode.ToLower(r)
		case r == '-' || r == '_':
			return r
		default:
			return '_'
		}
	}, strings.TrimSpace(value))
	out = strings.Trim(out, "_-")
	if out == "" {
		return "unknown"
	}
	return out
}

// Ternary returns a when cond holds and b otherwise.
func Ternary[T any](cond bool, a, b T) T {
	if cond {
		return a
	}
	return b
}
