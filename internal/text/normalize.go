package text

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalizer rewrites a single word before vectorization
type Normalizer interface {
	Normalize(word string) string
}

// NormalizerFunc adapts a plain function to Normalizer
type NormalizerFunc func(string) string

// Normalize calls f(word)
func (f NormalizerFunc) Normalize(word string) string {
	return f(word)
}

// Lowercase is a Normalizer that folds case
var Lowercase = NormalizerFunc(strings.ToLower)

// StripAccents decomposes s (NFKD) and drops combining marks, so "café"
// becomes "cafe"
func StripAccents(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// NormalizeAll applies n to every word; a nil Normalizer returns words unchanged
func NormalizeAll(n Normalizer, words []string) []string {
	if n == nil {
		return words
	}
	out := make([]string, len(words))
	for i, w := range words {
		out[i] = n.Normalize(w)
	}
	return out
}
