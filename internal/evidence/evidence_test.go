package evidence

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/paraqa/internal/encode"
	"github.com/ppiankov/paraqa/internal/model"
	"github.com/ppiankov/paraqa/internal/text"
	"github.com/ppiankov/paraqa/internal/vectorize"
)

// fixedRanker returns the same distance row for every question
type fixedRanker struct {
	row []float64
}

func (f fixedRanker) Rank(questions, paragraphs [][]string) (vectorize.Matrix, error) {
	m := make(vectorize.Matrix, len(questions))
	for i := range m {
		m[i] = append([]float64(nil), f.row...)
	}
	return m, nil
}

func sourceParagraph(num int, raw string) model.SourceParagraph {
	tokens, spans := text.Tokenize(raw)
	return model.SourceParagraph{
		Num:          num,
		Sentences:    text.SentenceGroups(tokens),
		OriginalText: raw,
		Spans:        spans,
	}
}

// threeParagraphs has paragraphs of 5, 4 and 6 tokens
func threeParagraphs() model.Document {
	return model.Document{
		ID: "doc",
		Paragraphs: []model.SourceParagraph{
			sourceParagraph(0, "Alpha beta gamma delta epsilon"),
			sourceParagraph(1, "The cat  sat down"),
			sourceParagraph(2, "one two three four five six"),
		},
	}
}

func catQuestion() model.Question {
	return model.Question{
		ID:            "q1",
		DocID:         "doc",
		Words:         []string{"where", "did", "the", "cat", "sit"},
		Answer:        &model.Answer{Texts: []string{"cat  sat"}, Spans: []model.Span{{Start: 1, End: 2}}},
		GoldParagraph: 1,
		Weight:        0.5,
	}
}

func TestSelect(t *testing.T) {
	tests := []struct {
		name      string
		ranked    []int
		k         int
		force     bool
		hasAnswer bool
		gold      int
		want      []int
	}{
		{"top k", []int{2, 0, 1}, 2, false, true, 1, []int{2, 0}},
		{"forced replaces last slot", []int{2, 0, 1}, 2, true, true, 1, []int{2, 1}},
		{"gold already selected", []int{2, 1, 0}, 2, true, true, 1, []int{2, 1}},
		{"unanswerable is never forced", []int{2, 0, 1}, 2, true, false, 1, []int{2, 0}},
		{"k larger than document", []int{1, 0}, 5, true, true, 0, []int{1, 0}},
		{"k of one forced", []int{3, 2, 1, 0}, 1, true, true, 0, []int{0}},
		{"no evidence mode", []int{2, 0, 1}, 0, false, true, 1, []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Select(tt.ranked, tt.k, tt.force, tt.hasAnswer, tt.gold)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSelect_DoesNotModifyRanking(t *testing.T) {
	ranked := []int{2, 0, 1}
	_, err := Select(ranked, 2, true, true, 1)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 0, 1}, ranked)
}

func TestSelect_ConfigErrors(t *testing.T) {
	var cfgErr *model.ConfigError

	_, err := Select([]int{0}, -1, false, false, 0)
	assert.True(t, errors.As(err, &cfgErr), "negative k")

	_, err = Select([]int{0}, 0, true, true, 0)
	assert.True(t, errors.As(err, &cfgErr), "k == 0 with force")

	_, err = NewRanked(fixedRanker{}, 0, true)
	assert.True(t, errors.As(err, &cfgErr), "NewRanked must reject k == 0 with force")
}

func TestSelect_Properties(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for iter := 0; iter < 500; iter++ {
		n := 1 + rng.Intn(12)
		ranked := rng.Perm(n)
		k := 1 + rng.Intn(n)
		gold := rng.Intn(n)

		got, err := Select(ranked, k, true, true, gold)
		require.NoError(t, err)
		require.Len(t, got, k, "selection size")
		assert.Contains(t, got, gold, "force-answer coverage")
		assert.Equal(t, ranked[:k-1], got[:k-1], "only the last slot may change")

		seen := make(map[int]bool)
		for _, idx := range got {
			assert.False(t, seen[idx], "duplicate index %d in %v", idx, got)
			seen[idx] = true
		}
	}
}

func TestAttach_AnswerOnlyOnGold(t *testing.T) {
	doc := threeParagraphs()
	q := catQuestion()

	paras, err := Attach(&doc, &q, []int{2, 1}, nil)
	require.NoError(t, err)
	require.Len(t, paras, 2)

	assert.Equal(t, 2, paras[0].ParagraphNum)
	assert.NotNil(t, paras[0].AnswerSpans)
	assert.Empty(t, paras[0].AnswerSpans)

	assert.Equal(t, 1, paras[1].ParagraphNum)
	assert.Equal(t, []model.Span{{Start: 1, End: 2}}, paras[1].AnswerSpans)
	assert.Equal(t, "cat  sat", paras[1].OriginalTextSpan(1, 2))

	// fresh objects: mutating the result leaves the inputs alone
	paras[1].AnswerSpans[0].Start = 0
	paras[1].Spans[0].Start = 99
	assert.Equal(t, 1, q.Answer.Spans[0].Start)
	assert.Equal(t, 0, doc.Paragraphs[1].Spans[0].Start)
}

func TestAttach_UnanswerableQuestion(t *testing.T) {
	doc := threeParagraphs()
	q := catQuestion()
	q.Answer = nil

	paras, err := Attach(&doc, &q, []int{1}, nil)
	require.NoError(t, err)
	assert.NotNil(t, paras[0].AnswerSpans)
	assert.Empty(t, paras[0].AnswerSpans)
}

func TestAttach_WithEncoder(t *testing.T) {
	doc := threeParagraphs()
	q := catQuestion()
	q.GoldParagraph = 2
	q.Answer = &model.Answer{Texts: []string{"five six"}, Spans: []model.Span{{Start: 4, End: 5}}}

	paras, err := Attach(&doc, &q, []int{2}, encode.Window{Size: 3})
	require.NoError(t, err)
	require.Len(t, paras[0].Text, 3)
	require.Len(t, paras[0].AnswerSpans, 1)
	s := paras[0].AnswerSpans[0]
	assert.Equal(t, "five six", paras[0].OriginalTextSpan(s.Start, s.End))
}

func TestRanked_AnswerLongerThanWindowSkipsDocument(t *testing.T) {
	doc := threeParagraphs()
	q := catQuestion()
	q.GoldParagraph = 2
	q.Answer = &model.Answer{Texts: []string{"two three four"}, Spans: []model.Span{{Start: 1, End: 3}}}

	r, err := NewRanked(fixedRanker{row: []float64{0.5, 0.1, 0.9}}, 2, true, WithEncoder(encode.Window{Size: 2}))
	require.NoError(t, err)

	results, err := r.Process(doc, []model.Question{q})
	assert.Nil(t, results)
	var inv *model.InvariantError
	require.True(t, errors.As(err, &inv), "got %v", err)
	assert.Equal(t, "q1", inv.ID)
	assert.Contains(t, err.Error(), "longer than window")
}

func TestAttach_BadIndex(t *testing.T) {
	doc := threeParagraphs()
	q := catQuestion()
	_, err := Attach(&doc, &q, []int{3}, nil)

	var inv *model.InvariantError
	require.True(t, errors.As(err, &inv))
	assert.Equal(t, "q1", inv.ID)
}

func TestMerge_Empty(t *testing.T) {
	_, err := Merge(nil)
	assert.ErrorIs(t, err, ErrNothingToMerge)
}

func TestMerge_Single(t *testing.T) {
	doc := threeParagraphs()
	q := catQuestion()
	paras, err := Attach(&doc, &q, []int{1}, nil)
	require.NoError(t, err)

	merged, err := Merge(paras)
	require.NoError(t, err)
	assert.Equal(t, paras[0], merged)
}

// Paragraphs of 5, 4 and 6 tokens ranked [2, 0, 1] with the answer at (1, 2)
// of paragraph 1: k=2 with force selects [2, 1]. The merge restores document
// order, so paragraph 1 comes first and its answer keeps offset 0.
func TestRanked_WorkedExample(t *testing.T) {
	doc := threeParagraphs()
	q := catQuestion()

	r, err := NewRanked(fixedRanker{row: []float64{0.5, 0.9, 0.1}}, 2, true)
	require.NoError(t, err)

	results, err := r.Process(doc, []model.Question{q})
	require.NoError(t, err)
	require.Len(t, results, 1)
	res := results[0]

	assert.Equal(t, []int{2, 1}, res.Selection)
	assert.True(t, res.Forced)
	assert.Equal(t, 2, res.GoldRank)
	assert.Equal(t, 1.0, res.Question.Weight)

	require.Len(t, res.Question.Paragraphs, 2)
	assert.Equal(t, 2, res.Question.Paragraphs[0].ParagraphNum, "selection order is kept")
	assert.Equal(t, 1, res.Question.AnsweredParagraphs())

	merged := res.Merged
	require.NotNil(t, merged)
	assert.Equal(t, 10, merged.Len())
	assert.Equal(t, 1, merged.ParagraphNum)
	assert.Equal(t, []model.Span{{Start: 1, End: 2}}, merged.AnswerSpans)
	assert.Equal(t, "The cat  sat downone two three four five six", merged.OriginalText)
	assert.Equal(t, "cat  sat", merged.OriginalTextSpan(1, 2))
	assert.Equal(t, "one", merged.OriginalTextSpan(4, 4))
	assert.Equal(t,
		res.Question.Paragraphs[1].OriginalTextSpan(1, 2),
		merged.OriginalTextSpan(1, 2))
}

func TestRanked_AnswerAfterOtherEvidence(t *testing.T) {
	doc := threeParagraphs()
	q := catQuestion()
	q.GoldParagraph = 2
	q.Answer = &model.Answer{Texts: []string{"two three"}, Spans: []model.Span{{Start: 1, End: 2}}}

	// ranking [1, 0, 2]; gold 2 replaces paragraph 0
	r, err := NewRanked(fixedRanker{row: []float64{0.5, 0.1, 0.9}}, 2, true)
	require.NoError(t, err)

	results, err := r.Process(doc, []model.Question{q})
	require.NoError(t, err)
	res := results[0]

	assert.Equal(t, []int{1, 2}, res.Selection)
	assert.Equal(t, []model.Span{{Start: 5, End: 6}}, res.Merged.AnswerSpans)
	assert.Equal(t, "two three", res.Merged.OriginalTextSpan(5, 6))
}

func TestRanked_GoldInTopK(t *testing.T) {
	doc := threeParagraphs()
	q := catQuestion()

	r, err := NewRanked(fixedRanker{row: []float64{0.5, 0.1, 0.9}}, 2, true, WithWeights())
	require.NoError(t, err)

	results, err := r.Process(doc, []model.Question{q})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 0}, results[0].Selection)
	assert.False(t, results[0].Forced)
	assert.Equal(t, 0, results[0].GoldRank)
	assert.Equal(t, 0.5, results[0].Question.Weight)
}

func TestRanked_NoEvidenceMode(t *testing.T) {
	doc := threeParagraphs()
	r, err := NewRanked(fixedRanker{row: []float64{0.5, 0.1, 0.9}}, 0, false)
	require.NoError(t, err)

	results, err := r.Process(doc, []model.Question{catQuestion()})
	require.NoError(t, err)
	assert.Nil(t, results[0].Merged)
	assert.Empty(t, results[0].Question.Paragraphs)
}

func TestRanked_InvalidGold(t *testing.T) {
	doc := threeParagraphs()
	q := catQuestion()
	q.GoldParagraph = 7

	r, err := NewRanked(fixedRanker{row: []float64{0.5, 0.1, 0.9}}, 2, true)
	require.NoError(t, err)

	_, err = r.Process(doc, []model.Question{q})
	var inv *model.InvariantError
	require.True(t, errors.As(err, &inv))
	assert.Equal(t, "q1", inv.ID)
}

func TestRanked_AnswerExclusivity(t *testing.T) {
	doc := threeParagraphs()
	rows := [][]float64{{0.5, 0.9, 0.1}, {0.1, 0.2, 0.3}, {0.9, 0.8, 0.7}}
	for _, row := range rows {
		for k := 1; k <= 3; k++ {
			r, err := NewRanked(fixedRanker{row: row}, k, true)
			require.NoError(t, err)
			results, err := r.Process(doc, []model.Question{catQuestion()})
			require.NoError(t, err)

			res := results[0]
			assert.Len(t, res.Selection, k)
			assert.Equal(t, 1, res.Question.AnsweredParagraphs(), "row %v k=%d", row, k)
			require.Len(t, res.Merged.AnswerSpans, 1)
			s := res.Merged.AnswerSpans[0]
			assert.Equal(t, "cat  sat", res.Merged.OriginalTextSpan(s.Start, s.End))
		}
	}
}

func TestMerge_DocumentOrderNotSelectionOrder(t *testing.T) {
	para := func(num int, raw string, answers []model.Span) model.Paragraph {
		tokens, spans := text.Tokenize(raw)
		return model.Paragraph{DocID: "doc", ParagraphNum: num, Text: tokens, OriginalText: raw, Spans: spans, AnswerSpans: answers}
	}
	selected := []model.Paragraph{
		para(8, "late paragraph", []model.Span{}),
		para(7, "early gold answer", []model.Span{{Start: 2, End: 2}}),
	}

	merged, err := Merge(selected)
	require.NoError(t, err)
	assert.Equal(t, 7, merged.ParagraphNum)
	assert.Equal(t, []string{"early", "gold", "answer", "late", "paragraph"}, merged.Text)
	assert.Equal(t, []model.Span{{Start: 2, End: 2}}, merged.AnswerSpans)
	assert.Equal(t, "answer", merged.OriginalTextSpan(2, 2))
	assert.Equal(t, 8, selected[0].ParagraphNum, "input order is untouched")
}

func TestMerge_OffsetConsistency(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	words := []string{"a", "bb", "ccc", "d,", "é", "ünï", "x.", "(y)"}

	for iter := 0; iter < 100; iter++ {
		n := 1 + rng.Intn(5)
		paras := make([]model.Paragraph, n)
		for i := range paras {
			raw := ""
			count := 1 + rng.Intn(8)
			for w := 0; w < count; w++ {
				if w > 0 {
					raw += " "
				}
				raw += words[rng.Intn(len(words))]
			}
			tokens, spans := text.Tokenize(raw)
			start := rng.Intn(len(tokens))
			end := start + rng.Intn(len(tokens)-start)
			paras[i] = model.Paragraph{
				DocID:        "doc",
				ParagraphNum: n - i,
				Text:         tokens,
				OriginalText: raw,
				Spans:        spans,
				AnswerSpans:  []model.Span{{Start: start, End: end}},
			}
		}

		merged, err := Merge(paras)
		require.NoError(t, err)
		require.Len(t, merged.AnswerSpans, n)
		assert.Equal(t, 1, merged.ParagraphNum)

		// merged spans come back in ascending ParagraphNum, i.e. reverse input order
		for i, s := range merged.AnswerSpans {
			src := paras[n-1-i]
			want := src.OriginalTextSpan(src.AnswerSpans[0].Start, src.AnswerSpans[0].End)
			assert.Equal(t, want, merged.OriginalTextSpan(s.Start, s.End))
		}

		// every token resolves to itself after the merge
		for i, tok := range merged.Text {
			assert.Equal(t, tok, merged.OriginalTextSpan(i, i))
		}
	}
}

func TestSingleParagraph(t *testing.T) {
	doc := threeParagraphs()
	answered := catQuestion()
	open := catQuestion()
	open.ID = "q2"
	open.Answer = nil
	open.GoldParagraph = 2

	results, err := NewSingleParagraph(WithWeights()).Process(doc, []model.Question{answered, open})
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, []int{1}, results[0].Selection)
	assert.Equal(t, 0, results[0].GoldRank)
	assert.Equal(t, 0.5, results[0].Question.Weight)
	assert.Equal(t, []model.Span{{Start: 1, End: 2}}, results[0].Merged.AnswerSpans)

	assert.Equal(t, []int{2}, results[1].Selection)
	assert.Equal(t, -1, results[1].GoldRank)
	assert.Empty(t, results[1].Merged.AnswerSpans)
}
