package vectorize

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/ppiankov/paraqa/internal/model"
	"github.com/ppiankov/paraqa/internal/text"
)

// termPattern keeps runs of two or more word characters
var termPattern = regexp.MustCompile(`[\p{L}\p{N}_]{2,}`)

// TfIdf weights terms by tf-idf fitted on the paragraphs of the current
// document. Questions are projected into that vocabulary; terms the
// paragraphs never use are ignored.
type TfIdf struct {
	stop        text.StopWords
	fingerprint string
}

// NewTfIdf returns a tf-idf strategy; an empty stop list is a configuration error
func NewTfIdf(stop text.StopWords) (*TfIdf, error) {
	if stop.Len() == 0 {
		return nil, &model.ConfigError{Field: "stop_words", Reason: "tfidf needs a non-empty stop word list"}
	}
	return &TfIdf{stop: stop, fingerprint: model.StrategyTfIdf + ":sw=" + stop.Digest()}, nil
}

// Name returns "tfidf"
func (t *TfIdf) Name() string {
	return model.StrategyTfIdf
}

// Fingerprint is the name plus the stop word digest
func (t *TfIdf) Fingerprint() string {
	return t.fingerprint
}

// analyze joins the tokens, strips accents, lowercases and re-splits into
// terms, dropping stop words
func (t *TfIdf) analyze(tokens []string) []string {
	joined := strings.ToLower(text.StripAccents(strings.Join(tokens, " ")))
	terms := termPattern.FindAllString(joined, -1)
	out := terms[:0]
	for _, w := range terms {
		if _, stop := t.stop[w]; stop {
			continue
		}
		out = append(out, w)
	}
	return out
}

type tfidfModel struct {
	vocab map[string]int
	idf   []float64
}

func (t *TfIdf) fit(paragraphs [][]string) *tfidfModel {
	m := &tfidfModel{vocab: make(map[string]int)}
	var df []int
	for _, terms := range paragraphs {
		seen := make(map[int]bool, len(terms))
		for _, w := range terms {
			idx, ok := m.vocab[w]
			if !ok {
				idx = len(df)
				m.vocab[w] = idx
				df = append(df, 0)
			}
			if !seen[idx] {
				seen[idx] = true
				df[idx]++
			}
		}
	}
	n := float64(len(paragraphs))
	m.idf = make([]float64, len(df))
	for i, d := range df {
		m.idf[i] = math.Log((1+n)/(1+float64(d))) + 1
	}
	return m
}

// transform builds an L2-normalized tf-idf vector; nil when no term is known
func (m *tfidfModel) transform(terms []string) sparse {
	counts := make(map[int]float64)
	for _, w := range terms {
		if idx, ok := m.vocab[w]; ok {
			counts[idx]++
		}
	}
	if len(counts) == 0 {
		return nil
	}
	vec := make(sparse, 0, len(counts))
	for idx, c := range counts {
		vec = append(vec, term{index: idx, value: c * m.idf[idx]})
	}
	sort.Slice(vec, func(i, j int) bool { return vec[i].index < vec[j].index })

	var norm float64
	for _, e := range vec {
		norm += e.value * e.value
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i].value /= norm
	}
	return vec
}

// Distances returns cosine distances between tf-idf vectors. A question or
// paragraph with no known terms is at MaxDistance from everything.
func (t *TfIdf) Distances(questions, paragraphs [][]string) (Matrix, error) {
	paraTerms := make([][]string, len(paragraphs))
	for i, p := range paragraphs {
		paraTerms[i] = t.analyze(p)
	}
	m := t.fit(paraTerms)

	paraVecs := make([]sparse, len(paragraphs))
	for i, terms := range paraTerms {
		paraVecs[i] = m.transform(terms)
	}

	out := NewMatrix(len(questions), len(paragraphs), MaxDistance)
	for i, q := range questions {
		qv := m.transform(t.analyze(q))
		if qv == nil {
			continue
		}
		for j, pv := range paraVecs {
			if pv == nil {
				continue
			}
			out[i][j] = clipDistance(sparseDot(qv, pv))
		}
	}
	return out, nil
}
