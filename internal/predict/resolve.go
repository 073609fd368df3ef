// Package predict turns model output back into answer text and combines the
// predictions of several models.
package predict

import (
	"errors"
	"fmt"
	"sort"

	"github.com/ppiankov/paraqa/internal/model"
)

// SpanError reports a prediction that could not be resolved
type SpanError struct {
	QuestionID string
	Reason     string
}

func (e *SpanError) Error() string {
	return fmt.Sprintf("question %s: %s", e.QuestionID, e.Reason)
}

// Resolve maps each predicted token span onto the original text of the
// paragraph it was predicted against. Unknown question ids and spans outside
// the paragraph are collected into the returned error; every other question
// is resolved.
func Resolve(paragraphs map[string]*model.Paragraph, spans map[string]model.Span) (map[string]string, error) {
	qids := make([]string, 0, len(spans))
	for qid := range spans {
		qids = append(qids, qid)
	}
	sort.Strings(qids)

	answers := make(map[string]string, len(spans))
	var errs []error
	for _, qid := range qids {
		p, ok := paragraphs[qid]
		if !ok {
			errs = append(errs, &SpanError{QuestionID: qid, Reason: "no paragraph for question"})
			continue
		}
		s := spans[qid]
		if s.Start < 0 || s.End < s.Start || s.End >= p.Len() || s.End >= len(p.Spans) {
			errs = append(errs, &SpanError{
				QuestionID: qid,
				Reason:     fmt.Sprintf("span (%d, %d) out of range for %d tokens", s.Start, s.End, p.Len()),
			})
			continue
		}
		answers[qid] = p.OriginalTextSpan(s.Start, s.End)
	}
	return answers, errors.Join(errs...)
}
