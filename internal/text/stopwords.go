package text

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"sort"
	"strings"
)

// StopWords is a lowercase word set ignored by the vectorizers
type StopWords map[string]struct{}

// Contains reports whether the lowercase form of w is a stop word
func (s StopWords) Contains(w string) bool {
	_, ok := s[strings.ToLower(w)]
	return ok
}

// Len returns the number of stop words
func (s StopWords) Len() int {
	return len(s)
}

// Digest is a short hash of the sorted word set; equal sets give equal digests
func (s StopWords) Digest() string {
	words := make([]string, 0, len(s))
	for w := range s {
		words = append(words, w)
	}
	sort.Strings(words)
	h := sha256.New()
	for _, w := range words {
		h.Write([]byte(w))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// NewStopWords builds a set from the given words
func NewStopWords(words ...string) StopWords {
	s := make(StopWords, len(words))
	for _, w := range words {
		s[strings.ToLower(w)] = struct{}{}
	}
	return s
}

// ReadStopWords reads one word per line; blank lines and # comments are skipped
func ReadStopWords(r io.Reader) (StopWords, error) {
	s := make(StopWords)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		s[strings.ToLower(line)] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read stop words: %w", err)
	}
	return s, nil
}

// EnglishStopWords returns the NLTK English list extended with punctuation
// and a few corpus-frequent words
func EnglishStopWords() StopWords {
	return NewStopWords(englishStopWords...)
}

var englishStopWords = []string{
	"i", "me", "my", "myself", "we", "our", "ours", "ourselves", "you", "your",
	"yours", "yourself", "yourselves", "he", "him", "his", "himself", "she",
	"her", "hers", "herself", "it", "its", "itself", "they", "them", "their",
	"theirs", "themselves", "what", "which", "who", "whom", "this", "that",
	"these", "those", "am", "is", "are", "was", "were", "be", "been", "being",
	"have", "has", "had", "having", "do", "does", "did", "doing", "a", "an",
	"the", "and", "but", "if", "or", "because", "as", "until", "while", "of",
	"at", "by", "for", "with", "about", "against", "between", "into",
	"through", "during", "before", "after", "above", "below", "to", "from",
	"up", "down", "in", "out", "on", "off", "over", "under", "again",
	"further", "then", "once", "here", "there", "when", "where", "why", "how",
	"all", "any", "both", "each", "few", "more", "most", "other", "some",
	"such", "no", "nor", "not", "only", "own", "same", "so", "than", "too",
	"very", "s", "t", "can", "will", "just", "don", "should", "now", "d",
	"ll", "m", "o", "re", "ve", "y", "ain", "aren", "couldn", "didn", "doesn",
	"hadn", "hasn", "haven", "isn", "ma", "mightn", "mustn", "needn", "shan",
	"shouldn", "wasn", "weren", "won", "wouldn",
	"many", "also", "would", "could", "one", "two", "three", "may", "might",
	"much", "within", "without", "us", "upon", "though", "yet", "even",
	"!", "\"", "#", "$", "%", "&", "'", "(", ")", "*", "+", ",", "-", ".",
	"/", ":", ";", "<", "=", ">", "?", "@", "[", "\\", "]", "^", "_", "`",
	"{", "|", "}", "~", "'s", "''", "``", "--",
}
