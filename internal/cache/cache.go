// Package cache stores score matrices so that re-running a selection over an
// unchanged corpus skips vectorization.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// MatrixKey derives a cache key from the strategy fingerprint and every
// token of the questions and paragraphs being scored
func MatrixKey(fingerprint string, questions, paragraphs [][]string) string {
	h := sha256.New()
	h.Write([]byte(fingerprint))
	for _, group := range [][][]string{questions, paragraphs} {
		h.Write([]byte{0x1e})
		for _, words := range group {
			h.Write([]byte(strings.Join(words, "\x1f")))
			h.Write([]byte{0x1d})
		}
	}
	return "paraqa:v1:" + hex.EncodeToString(h.Sum(nil))
}
