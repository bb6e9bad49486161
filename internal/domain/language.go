package domain

import "strings"

const (
	// DefaultLanguage is used whenever a client supplied no usable tag.
	DefaultLanguage = Language("en")

	maxLanguageLen = 12
)

// Language is a short BCP-47-ish tag like "en", "fr" or "pt-br".
// Invariant: a stored Language is never empty.
type Language string

// NormalizeLanguage maps arbitrary client input to a usable tag,
// falling back to fallback (or DefaultLanguage) instead of failing.
func NormalizeLanguage(raw string, fallback Language) Language {
	if fallback == "" {
		fallback = DefaultLanguage
	}
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" || len(raw) > maxLanguageLen {
		return fallback
	}
	for _, r := range raw {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') && r != '-' {
			return fallback
		}
	}
	return Language(raw)
}
