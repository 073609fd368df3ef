package rank

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/paraqa/internal/cache"
	"github.com/ppiankov/paraqa/internal/text"
	"github.com/ppiankov/paraqa/internal/vectorize"
)

// fixedStrategy returns a canned matrix and records what it was given
type fixedStrategy struct {
	matrix vectorize.Matrix
	err    error
	calls  int
	seen   [][]string
}

func (f *fixedStrategy) Name() string { return "fixed" }

func (f *fixedStrategy) Fingerprint() string { return "fixed" }

func (f *fixedStrategy) Distances(questions, paragraphs [][]string) (vectorize.Matrix, error) {
	f.calls++
	f.seen = questions
	return f.matrix, f.err
}

func TestOrder(t *testing.T) {
	tests := []struct {
		name string
		row  []float64
		want []int
	}{
		{"ascending distance", []float64{0.9, 0.1, 0.5}, []int{1, 2, 0}},
		{"ties keep document order", []float64{0.5, 0.2, 0.5, 0.2}, []int{1, 3, 0, 2}},
		{"all degenerate", []float64{1, 1, 1}, []int{0, 1, 2}},
		{"empty", []float64{}, []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Order(tt.row))
		})
	}
}

func TestRanker_AppliesNormalizer(t *testing.T) {
	s := &fixedStrategy{matrix: vectorize.Matrix{{0.3}}}
	r := NewRanker(s, text.Lowercase)

	_, err := r.Rank([][]string{{"Who", "WON"}}, [][]string{{"x"}})
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"who", "won"}}, s.seen)
}

func TestRanker_ShapeMismatch(t *testing.T) {
	s := &fixedStrategy{matrix: vectorize.Matrix{{0.3, 0.2}}}
	_, err := NewRanker(s, nil).Rank([][]string{{"q"}}, [][]string{{"p"}})
	assert.Error(t, err)
}

func TestRanker_StrategyError(t *testing.T) {
	boom := errors.New("boom")
	s := &fixedStrategy{err: boom}
	_, err := NewRanker(s, nil).Rank([][]string{{"q"}}, [][]string{{"p"}})
	assert.ErrorIs(t, err, boom)
}

func TestRanker_Deterministic(t *testing.T) {
	tfidf, err := vectorize.NewTfIdf(text.EnglishStopWords())
	require.NoError(t, err)
	r := NewRanker(tfidf, nil)

	questions := [][]string{{"Where", "did", "the", "cat", "sit", "?"}, {"Who", "owns", "the", "dog", "?"}}
	paragraphs := [][]string{
		{"The", "dog", "belongs", "to", "Ann", "."},
		{"A", "cat", "sat", "on", "the", "mat", "."},
		{"Nothing", "relevant", "here", "."},
	}

	a, err := r.Rank(questions, paragraphs)
	require.NoError(t, err)
	b, err := r.Rank(questions, paragraphs)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	assert.Equal(t, 0, Order(a[1])[0], "dog question should rank the dog paragraph first")
}

func TestCached_ServesFromCache(t *testing.T) {
	s := &fixedStrategy{matrix: vectorize.Matrix{{0.25, 0.75}}}
	c := NewCached(NewRanker(s, nil), cache.NewMemoryCache(time.Minute, time.Minute), 0, nil)

	questions := [][]string{{"q"}}
	paragraphs := [][]string{{"a"}, {"b"}}

	first, err := c.Rank(questions, paragraphs)
	require.NoError(t, err)
	second, err := c.Rank(questions, paragraphs)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, s.calls, "second call should be served from cache")

	_, err = c.Rank(questions, [][]string{{"a"}, {"c"}})
	require.NoError(t, err)
	assert.Equal(t, 2, s.calls, "different paragraphs must miss")
}

func TestCached_IgnoresCorruptEntries(t *testing.T) {
	s := &fixedStrategy{matrix: vectorize.Matrix{{0.5}}}
	mem := cache.NewMemoryCache(time.Minute, time.Minute)
	c := NewCached(NewRanker(s, nil), mem, 0, nil)

	questions := [][]string{{"q"}}
	paragraphs := [][]string{{"p"}}
	require.NoError(t, mem.Set(cache.MatrixKey("fixed", questions, paragraphs), []byte("not json"), 0))

	m, err := c.Rank(questions, paragraphs)
	require.NoError(t, err)
	assert.Equal(t, vectorize.Matrix{{0.5}}, m)
	assert.Equal(t, 1, s.calls)
}

func TestCached_StopWordsArePartOfTheKey(t *testing.T) {
	disk := cache.NewDiskCache(t.TempDir(), time.Hour)
	questions := [][]string{{"river", "bank"}}
	paragraphs := [][]string{{"the", "river", "bank"}, {"mountain", "pass"}}

	run := func(stop text.StopWords) (cached, fresh vectorize.Matrix) {
		s, err := vectorize.NewTfIdf(stop)
		require.NoError(t, err)
		cached, err = NewCached(NewRanker(s, nil), disk, 0, nil).Rank(questions, paragraphs)
		require.NoError(t, err)
		fresh, err = NewRanker(s, nil).Rank(questions, paragraphs)
		require.NoError(t, err)
		return cached, fresh
	}

	first, _ := run(text.NewStopWords("the"))
	assert.Less(t, first[0][0], 0.5)

	cached, fresh := run(text.NewStopWords("the", "river", "bank"))
	assert.Equal(t, vectorize.Matrix{{1, 1}}, fresh)
	assert.Equal(t, fresh, cached, "matrix from another stop list was served")
}

func TestCached_VectorTableIsPartOfTheKey(t *testing.T) {
	disk := cache.NewDiskCache(t.TempDir(), time.Hour)
	questions := [][]string{{"cat"}}
	paragraphs := [][]string{{"mat"}, {"dog"}}

	run := func(cat []float32) (cached, fresh vectorize.Matrix) {
		table := vectorize.NewWordVectors(2)
		require.NoError(t, table.Set("cat", cat))
		require.NoError(t, table.Set("mat", []float32{1, 0}))
		require.NoError(t, table.Set("dog", []float32{0, 1}))
		s, err := vectorize.NewEmbedding(text.NewStopWords("the"), table)
		require.NoError(t, err)
		cached, err = NewCached(NewRanker(s, nil), disk, 0, nil).Rank(questions, paragraphs)
		require.NoError(t, err)
		fresh, err = NewRanker(s, nil).Rank(questions, paragraphs)
		require.NoError(t, err)
		return cached, fresh
	}

	first, _ := run([]float32{1, 0})
	assert.Equal(t, []int{0, 1}, Order(first[0]))

	cached, fresh := run([]float32{0, 1})
	assert.Equal(t, []int{1, 0}, Order(fresh[0]))
	assert.Equal(t, fresh, cached, "matrix from another vector table was served")
}

func TestCached_SameConfigurationHits(t *testing.T) {
	disk := cache.NewDiskCache(t.TempDir(), time.Hour)
	questions := [][]string{{"river"}}
	paragraphs := [][]string{{"river", "bank"}}

	a, err := vectorize.NewTfIdf(text.NewStopWords("the", "a"))
	require.NoError(t, err)
	b, err := vectorize.NewTfIdf(text.NewStopWords("a", "the"))
	require.NoError(t, err)
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())

	_, err = NewCached(NewRanker(a, nil), disk, 0, nil).Rank(questions, paragraphs)
	require.NoError(t, err)
	_, found := disk.Get(cache.MatrixKey(NewRanker(b, nil).Fingerprint(), questions, paragraphs))
	assert.True(t, found)
	assert.NotEqual(t, NewRanker(a, nil).Fingerprint(), NewRanker(a, text.Lowercase).Fingerprint())
}
