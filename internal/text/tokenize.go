// Package text turns raw strings into the token/offset pairs paragraphs are
// built from.
package text

import (
	"regexp"

	"github.com/ppiankov/paraqa/internal/model"
)

// tokenPattern matches a word (letters/digits with inner apostrophes) or a
// single punctuation character
var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}]+(?:['’][\p{L}\p{N}]+)*|[^\s\p{L}\p{N}]`)

// Tokenize splits raw text into tokens and records the byte range each token
// was read from
func Tokenize(raw string) ([]string, model.OffsetTable) {
	locs := tokenPattern.FindAllStringIndex(raw, -1)
	tokens := make([]string, len(locs))
	spans := make(model.OffsetTable, len(locs))
	for i, loc := range locs {
		tokens[i] = raw[loc[0]:loc[1]]
		spans[i] = model.CharRange{Start: loc[0], End: loc[1]}
	}
	return tokens, spans
}

// Words tokenizes a question, dropping offsets
func Words(raw string) []string {
	return tokenPattern.FindAllString(raw, -1)
}

func isSentenceEnd(tok string) bool {
	return tok == "." || tok == "!" || tok == "?"
}

// SentenceGroups splits a token list after each sentence-final punctuation mark
func SentenceGroups(tokens []string) [][]string {
	var out [][]string
	start := 0
	for i, tok := range tokens {
		if isSentenceEnd(tok) {
			out = append(out, tokens[start:i+1])
			start = i + 1
		}
	}
	if start < len(tokens) {
		out = append(out, tokens[start:])
	}
	return out
}

// Sentences splits raw text into sentence substrings of the original
func Sentences(raw string) []string {
	tokens, spans := Tokenize(raw)
	var out []string
	start := 0
	for i, tok := range tokens {
		if isSentenceEnd(tok) {
			out = append(out, raw[spans[start].Start:spans[i].End])
			start = i + 1
		}
	}
	if start < len(tokens) {
		out = append(out, raw[spans[start].Start:spans[len(spans)-1].End])
	}
	return out
}
