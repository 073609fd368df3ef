package evidence

import (
	"github.com/ppiankov/paraqa/internal/encode"
	"github.com/ppiankov/paraqa/internal/model"
)

// SingleParagraph pairs every question with its own gold paragraph and
// nothing else. It needs no ranking.
type SingleParagraph struct {
	weighted bool
	encoder  encode.Encoder
}

// NewSingleParagraph creates the gold-paragraph-only preprocessor
func NewSingleParagraph(opts ...Option) *SingleParagraph {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return &SingleParagraph{weighted: o.weighted, encoder: o.encoder}
}

// Process builds one single-paragraph result per question
func (s *SingleParagraph) Process(doc model.Document, questions []model.Question) ([]Result, error) {
	if err := checkInputs(&doc, questions); err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(questions))
	for i := range questions {
		q := &questions[i]
		res, err := build(&doc, q, []int{q.GoldParagraph}, s.encoder, s.weighted)
		if err != nil {
			return nil, err
		}
		res.GoldRank = -1
		if q.HasAnswer() {
			res.GoldRank = 0
		}
		results = append(results, res)
	}
	return results, nil
}
