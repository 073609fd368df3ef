package evidence

import (
	"errors"
	"fmt"

	"github.com/ppiankov/paraqa/internal/encode"
	"github.com/ppiankov/paraqa/internal/model"
	"github.com/ppiankov/paraqa/internal/validate"
)

// Attach builds a fresh Paragraph for every selected index of doc. Only the
// question's gold paragraph carries its answer spans; every other paragraph
// gets an empty, non-nil span list. enc may be nil.
func Attach(doc *model.Document, q *model.Question, selection []int, enc encode.Encoder) ([]model.Paragraph, error) {
	out := make([]model.Paragraph, 0, len(selection))
	for _, idx := range selection {
		if idx < 0 || idx >= len(doc.Paragraphs) {
			return nil, model.Invariantf(q.ID, "selected paragraph %d not in document %s", idx, doc.ID)
		}
		src := &doc.Paragraphs[idx]

		answers := []model.Span{}
		if src.Num == q.GoldParagraph && q.HasAnswer() {
			answers = append(answers, q.Answer.Spans...)
		}

		var (
			tokens []string
			spans  model.OffsetTable
		)
		if enc != nil {
			var err error
			hadAnswers := len(answers) > 0
			tokens, answers, spans, err = enc.Encode(q.Words, src.Sentences, src.Num == 0, answers, src.Spans)
			if errors.Is(err, encode.ErrAnswerTooLong) {
				return nil, model.Invariantf(q.ID, "paragraph %d: %v", src.Num, err)
			}
			if err != nil {
				return nil, fmt.Errorf("encode paragraph %d for question %s: %w", src.Num, q.ID, err)
			}
			if hadAnswers && len(answers) == 0 {
				return nil, model.Invariantf(q.ID, "paragraph %d: encoder dropped every answer span", src.Num)
			}
			if answers == nil {
				answers = []model.Span{}
			}
		} else {
			tokens = src.Flat()
			spans = src.Spans.Clone()
		}

		p := model.Paragraph{
			DocID:        doc.ID,
			ParagraphNum: src.Num,
			Text:         tokens,
			OriginalText: src.OriginalText,
			Spans:        spans,
			AnswerSpans:  answers,
		}
		if err := validate.Paragraph(&p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}
