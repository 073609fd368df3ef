// Package rank scores a document's paragraphs against its questions and
// orders them by relevance.
package rank

import (
	"fmt"
	"sort"

	"github.com/ppiankov/paraqa/internal/text"
	"github.com/ppiankov/paraqa/internal/vectorize"
)

// Ranker normalizes words and delegates scoring to a vectorization strategy
type Ranker struct {
	strategy   vectorize.Strategy
	normalizer text.Normalizer
}

// NewRanker creates a ranker. normalizer may be nil.
func NewRanker(strategy vectorize.Strategy, normalizer text.Normalizer) *Ranker {
	return &Ranker{strategy: strategy, normalizer: normalizer}
}

// Name identifies the strategy
func (r *Ranker) Name() string {
	return r.strategy.Name()
}

// Fingerprint identifies the strategy and its configuration
func (r *Ranker) Fingerprint() string {
	if r.normalizer == nil {
		return r.strategy.Fingerprint()
	}
	return r.strategy.Fingerprint() + ":normalized"
}

// Rank returns the question x paragraph distance matrix for one document
func (r *Ranker) Rank(questions, paragraphs [][]string) (vectorize.Matrix, error) {
	m, err := r.strategy.Distances(r.normalize(questions), r.normalize(paragraphs))
	if err != nil {
		return nil, fmt.Errorf("%s distances: %w", r.strategy.Name(), err)
	}
	rows, cols := m.Shape()
	if rows != len(questions) || (rows > 0 && cols != len(paragraphs)) {
		return nil, fmt.Errorf("%s returned a %dx%d matrix for %d questions and %d paragraphs",
			r.strategy.Name(), rows, cols, len(questions), len(paragraphs))
	}
	return m, nil
}

func (r *Ranker) normalize(texts [][]string) [][]string {
	if r.normalizer == nil {
		return texts
	}
	out := make([][]string, len(texts))
	for i, t := range texts {
		out[i] = text.NormalizeAll(r.normalizer, t)
	}
	return out
}

// Order returns paragraph indices from most to least relevant. Equal
// distances keep document order.
func Order(row []float64) []int {
	idx := make([]int, len(row))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return row[idx[a]] < row[idx[b]]
	})
	return idx
}
