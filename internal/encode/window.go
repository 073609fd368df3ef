// Package encode bounds the length of a paragraph before it reaches the
// answer-extraction model.
package encode

import (
	"errors"
	"fmt"

	"github.com/ppiankov/paraqa/internal/model"
)

// Encoder turns the sentence groups of one paragraph into the token sequence
// the model sees. The returned answer spans and offset table must address
// the returned tokens.
type Encoder interface {
	Encode(question []string, groups [][]string, isFirst bool, answers []model.Span, spans model.OffsetTable) ([]string, []model.Span, model.OffsetTable, error)
}

// ErrAnswerTooLong is returned when the first answer span does not fit in
// the window
var ErrAnswerTooLong = errors.New("answer span longer than window")

// Window truncates paragraphs to at most Size tokens. The window is placed so
// that all answer spans survive when they fit together, otherwise the first
// span. Answer spans falling outside the window are dropped. A first span
// longer than the window is an error. Size <= 0 disables truncation.
type Window struct {
	Size int
}

// Encode flattens groups and cuts the window. isFirst is ignored.
func (w Window) Encode(question []string, groups [][]string, isFirst bool, answers []model.Span, spans model.OffsetTable) ([]string, []model.Span, model.OffsetTable, error) {
	var flat []string
	for _, g := range groups {
		flat = append(flat, g...)
	}
	if len(spans) != len(flat) {
		return nil, nil, nil, fmt.Errorf("offset table has %d entries for %d tokens", len(spans), len(flat))
	}

	n := len(flat)
	if w.Size <= 0 || n <= w.Size {
		out := make([]model.Span, len(answers))
		copy(out, answers)
		return flat, out, spans.Clone(), nil
	}

	if len(answers) > 0 {
		if first := answers[0]; first.End-first.Start+1 > w.Size {
			return nil, nil, nil, fmt.Errorf("%w: span %d-%d has %d tokens, window is %d",
				ErrAnswerTooLong, first.Start, first.End, first.End-first.Start+1, w.Size)
		}
	}

	start := w.start(n, answers)
	end := start + w.Size

	text := make([]string, w.Size)
	copy(text, flat[start:end])

	kept := make([]model.Span, 0, len(answers))
	for _, a := range answers {
		if a.Start >= start && a.End < end {
			kept = append(kept, a.Shift(-start))
		}
	}

	table := make(model.OffsetTable, w.Size)
	copy(table, spans[start:end])
	return text, kept, table, nil
}

// start picks the first token of the window. The first answer span is known
// to fit.
func (w Window) start(n int, answers []model.Span) int {
	if len(answers) == 0 {
		return 0
	}
	lo, hi := answers[0].Start, answers[0].End
	for _, a := range answers[1:] {
		lo = min(lo, a.Start)
		hi = max(hi, a.End)
	}
	if hi-lo+1 > w.Size {
		hi = answers[0].End
	}
	return max(0, min(hi-w.Size+1, n-w.Size))
}
