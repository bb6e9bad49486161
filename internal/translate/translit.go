package translate

import (
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Transliterate strips diacritics: decompose to NFD, drop combining
// marks, recompose. Used as the pronunciation fallback when the service
// returns none. The chain is built per call; chained transformers carry
// internal buffers and are not safe to share.
func Transliterate(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
