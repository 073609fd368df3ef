package evidence

import (
	"errors"
	"sort"
	"strings"

	"github.com/ppiankov/paraqa/internal/model"
)

// ErrNothingToMerge is returned by Merge for an empty input
var ErrNothingToMerge = errors.New("no paragraphs to merge")

// Merge concatenates paragraphs in document order into a new Paragraph.
// Answer spans are shifted by the number of tokens before them and offset
// table entries by the number of original-text bytes before them, so any
// span resolves to the same text as on the paragraph it came from.
//
// Order is by ParagraphNum, never by selection rank: a selection of
// paragraphs 8 then 7 merges as 7 then 8. The result takes DocID and
// ParagraphNum from the lowest numbered input. Inputs are not modified.
func Merge(paragraphs []model.Paragraph) (model.Paragraph, error) {
	if len(paragraphs) == 0 {
		return model.Paragraph{}, ErrNothingToMerge
	}

	sorted := make([]*model.Paragraph, len(paragraphs))
	for i := range paragraphs {
		sorted[i] = &paragraphs[i]
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ParagraphNum < sorted[j].ParagraphNum
	})

	var (
		tokens  int
		chars   int
		textLen int
		answers = []model.Span{}
		orig    strings.Builder
	)
	for _, p := range sorted {
		textLen += len(p.Text)
		chars += len(p.OriginalText)
	}
	text := make([]string, 0, textLen)
	spans := make(model.OffsetTable, 0, textLen)
	orig.Grow(chars)

	for _, p := range sorted {
		for _, a := range p.AnswerSpans {
			answers = append(answers, a.Shift(tokens))
		}
		spans = append(spans, p.Spans.Shift(orig.Len())...)
		text = append(text, p.Text...)
		orig.WriteString(p.OriginalText)
		tokens += len(p.Text)
	}

	return model.Paragraph{
		DocID:        sorted[0].DocID,
		ParagraphNum: sorted[0].ParagraphNum,
		Text:         text,
		OriginalText: orig.String(),
		Spans:        spans,
		AnswerSpans:  answers,
	}, nil
}
