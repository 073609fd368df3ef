package rank

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/ppiankov/paraqa/internal/cache"
	"github.com/ppiankov/paraqa/internal/vectorize"
)

// Cached serves score matrices from a cache, falling back to the wrapped
// ranker on a miss. Cache failures are logged and never fail a ranking.
type Cached struct {
	ranker *Ranker
	cache  cache.Cache
	ttl    time.Duration
	logger *slog.Logger
}

// NewCached wraps ranker with c. A zero ttl uses the cache default.
func NewCached(ranker *Ranker, c cache.Cache, ttl time.Duration, logger *slog.Logger) *Cached {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cached{ranker: ranker, cache: c, ttl: ttl, logger: logger}
}

// Name identifies the wrapped strategy
func (c *Cached) Name() string {
	return c.ranker.Name()
}

// Rank returns the cached matrix for these exact tokens under the same
// strategy configuration, or computes and stores it
func (c *Cached) Rank(questions, paragraphs [][]string) (vectorize.Matrix, error) {
	key := cache.MatrixKey(c.ranker.Fingerprint(), questions, paragraphs)
	if data, ok := c.cache.Get(key); ok {
		var m vectorize.Matrix
		if err := json.Unmarshal(data, &m); err == nil && len(m) == len(questions) {
			return m, nil
		}
		c.logger.Warn("discarding unreadable cached matrix", "key", key)
	}

	m, err := c.ranker.Rank(questions, paragraphs)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(m)
	if err != nil {
		c.logger.Warn("encode matrix for cache", "key", key, "error", err)
		return m, nil
	}
	if err := c.cache.Set(key, data, c.ttl); err != nil {
		c.logger.Warn("store matrix in cache", "key", key, "error", err)
	}
	return m, nil
}
