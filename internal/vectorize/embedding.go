package vectorize

import (
	"strings"

	"github.com/ppiankov/paraqa/internal/model"
	"github.com/ppiankov/paraqa/internal/text"
)

// Embedding represents a text by the mean of its word vectors. Stop words
// and words missing from the table are skipped.
type Embedding struct {
	stop        text.StopWords
	vectors     *WordVectors
	fingerprint string
}

// NewEmbedding returns an averaged word vector strategy. Empty stop lists and
// empty vector tables are configuration errors.
func NewEmbedding(stop text.StopWords, vectors *WordVectors) (*Embedding, error) {
	if stop.Len() == 0 {
		return nil, &model.ConfigError{Field: "stop_words", Reason: "embedding needs a non-empty stop word list"}
	}
	if vectors.Len() == 0 {
		return nil, &model.ConfigError{Field: "vectors", Reason: "word vector table is empty"}
	}
	return &Embedding{
		stop:        stop,
		vectors:     vectors,
		fingerprint: model.StrategyEmbedding + ":sw=" + stop.Digest() + ":wv=" + vectors.Digest(),
	}, nil
}

// Name returns "embedding"
func (e *Embedding) Name() string {
	return model.StrategyEmbedding
}

// Fingerprint is the name plus the stop word and vector table digests
func (e *Embedding) Fingerprint() string {
	return e.fingerprint
}

// mean returns nil when no word of the text has a vector
func (e *Embedding) mean(words []string) []float64 {
	var sum []float64
	n := 0
	for _, w := range words {
		lw := strings.ToLower(w)
		if _, stop := e.stop[lw]; stop {
			continue
		}
		vec, ok := e.vectors.Lookup(lw)
		if !ok {
			continue
		}
		if sum == nil {
			sum = make([]float64, len(vec))
		}
		for i, v := range vec {
			sum[i] += float64(v)
		}
		n++
	}
	if n == 0 {
		return nil
	}
	for i := range sum {
		sum[i] /= float64(n)
	}
	return sum
}

// Distances returns cosine distances between mean vectors. A text with no
// vectorizable words is at MaxDistance from everything.
func (e *Embedding) Distances(questions, paragraphs [][]string) (Matrix, error) {
	paraVecs := make([][]float64, len(paragraphs))
	for i, p := range paragraphs {
		paraVecs[i] = e.mean(p)
	}
	out := NewMatrix(len(questions), len(paragraphs), MaxDistance)
	for i, q := range questions {
		qv := e.mean(q)
		if qv == nil {
			continue
		}
		for j, pv := range paraVecs {
			out[i][j] = denseCosineDistance(qv, pv)
		}
	}
	return out, nil
}

// Vocabulary collects the lowercase non-stop words of the given texts, the
// only words an Embedding strategy will ever look up
func Vocabulary(stop text.StopWords, texts ...[]string) map[string]bool {
	vocab := make(map[string]bool)
	for _, t := range texts {
		for _, w := range t {
			lw := strings.ToLower(w)
			if _, s := stop[lw]; s {
				continue
			}
			vocab[lw] = true
		}
	}
	return vocab
}
