// Package validate checks the structural invariants of documents, questions
// and paragraphs. Every violation is reported as a *model.InvariantError
// naming the offending id.
package validate

import (
	"github.com/ppiankov/paraqa/internal/model"
)

// Paragraph checks that the offset table is parallel to the tokens, that its
// ranges lie inside OriginalText in token order, and that every answer span
// addresses existing tokens
func Paragraph(p *model.Paragraph) error {
	id := p.Key()
	if len(p.Spans) != len(p.Text) {
		return model.Invariantf(id, "offset table has %d entries for %d tokens", len(p.Spans), len(p.Text))
	}
	if err := offsets(id, p.Spans, len(p.OriginalText)); err != nil {
		return err
	}
	for _, s := range p.AnswerSpans {
		if s.Start < 0 || s.Start > s.End || s.End >= len(p.Text) {
			return model.Invariantf(id, "answer span (%d, %d) out of bounds for %d tokens", s.Start, s.End, len(p.Text))
		}
	}
	return nil
}

// Document checks paragraph numbering and every source paragraph's offsets
func Document(doc *model.Document) error {
	for i, sp := range doc.Paragraphs {
		if sp.Num != i {
			return model.Invariantf(doc.ID, "paragraph %d is numbered %d", i, sp.Num)
		}
		n := 0
		for _, s := range sp.Sentences {
			n += len(s)
		}
		if len(sp.Spans) != n {
			return model.Invariantf(doc.ID, "paragraph %d: offset table has %d entries for %d tokens", i, len(sp.Spans), n)
		}
		if err := offsets(doc.ID, sp.Spans, len(sp.OriginalText)); err != nil {
			return err
		}
	}
	return nil
}

// Question checks that the question belongs to doc, that its gold paragraph
// exists and that its answer spans fit inside that paragraph
func Question(q *model.Question, doc *model.Document) error {
	if q.DocID != doc.ID {
		return model.Invariantf(q.ID, "question belongs to %q, not %q", q.DocID, doc.ID)
	}
	if q.GoldParagraph < 0 || q.GoldParagraph >= len(doc.Paragraphs) {
		return model.Invariantf(q.ID, "gold paragraph %d not in document %s (%d paragraphs)", q.GoldParagraph, doc.ID, len(doc.Paragraphs))
	}
	if q.Answer == nil {
		return nil
	}
	n := len(doc.Paragraphs[q.GoldParagraph].Spans)
	for _, s := range q.Answer.Spans {
		if s.Start < 0 || s.Start > s.End || s.End >= n {
			return model.Invariantf(q.ID, "answer span (%d, %d) out of bounds for gold paragraph %d (%d tokens)", s.Start, s.End, q.GoldParagraph, n)
		}
	}
	return nil
}

func offsets(id string, spans model.OffsetTable, textLen int) error {
	prev := 0
	for i, r := range spans {
		if r.Start < 0 || r.Start > r.End || r.End > textLen {
			return model.Invariantf(id, "token %d: range [%d, %d) outside original text of %d bytes", i, r.Start, r.End, textLen)
		}
		if r.Start < prev {
			return model.Invariantf(id, "token %d: range starts at %d before previous token at %d", i, r.Start, prev)
		}
		prev = r.Start
	}
	return nil
}
