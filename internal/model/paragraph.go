package model

import "fmt"

// Span is an inclusive (start, end) pair of token indices
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Shift returns the span moved by delta tokens
func (s Span) Shift(delta int) Span {
	return Span{Start: s.Start + delta, End: s.End + delta}
}

// CharRange is a half-open byte range into a paragraph's original text
type CharRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// OffsetTable maps token i to the byte range it was read from
type OffsetTable []CharRange

// Shift returns a copy of the table with every range moved by delta bytes
func (t OffsetTable) Shift(delta int) OffsetTable {
	out := make(OffsetTable, len(t))
	for i, r := range t {
		out[i] = CharRange{Start: r.Start + delta, End: r.End + delta}
	}
	return out
}

// Clone returns an independent copy of the table
func (t OffsetTable) Clone() OffsetTable {
	return t.Shift(0)
}

// Paragraph is one unit of evidence handed to the answer-extraction model.
// Text and Spans are parallel: Spans[i] locates Text[i] inside OriginalText.
// AnswerSpans is empty (never nil after selection) when the paragraph is not
// known to contain the answer.
type Paragraph struct {
	DocID        string      `json:"doc_id"`
	ParagraphNum int         `json:"paragraph_num"`
	Text         []string    `json:"text"`
	OriginalText string      `json:"original_text"`
	Spans        OffsetTable `json:"spans"`
	AnswerSpans  []Span      `json:"answer_spans"`
}

// Key identifies the paragraph inside its document, e.g. "doc-7#3"
func (p *Paragraph) Key() string {
	return fmt.Sprintf("%s#%d", p.DocID, p.ParagraphNum)
}

// Len returns the number of tokens
func (p *Paragraph) Len() int {
	return len(p.Text)
}

// OriginalTextSpan returns the original text covered by tokens start..end
// (inclusive). It slices OriginalText directly, so whitespace and punctuation
// inside the span are reproduced exactly.
//
// Indices outside the paragraph mean the caller ran a prediction against a
// different paragraph; that is a programming error and panics.
func (p *Paragraph) OriginalTextSpan(start, end int) string {
	if start < 0 || end < start || end >= len(p.Text) || end >= len(p.Spans) {
		panic(fmt.Sprintf("paragraph %s: token span (%d, %d) out of range for %d tokens",
			p.Key(), start, end, len(p.Text)))
	}
	return p.OriginalText[p.Spans[start].Start:p.Spans[end].End]
}

// HasAnswer reports whether the paragraph carries at least one answer span
func (p *Paragraph) HasAnswer() bool {
	return len(p.AnswerSpans) > 0
}
