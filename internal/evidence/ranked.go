package evidence

import (
	"fmt"

	"github.com/ppiankov/paraqa/internal/encode"
	"github.com/ppiankov/paraqa/internal/model"
	"github.com/ppiankov/paraqa/internal/rank"
	"github.com/ppiankov/paraqa/internal/validate"
	"github.com/ppiankov/paraqa/internal/vectorize"
)

// Ranker scores every question of a document against its paragraphs
type Ranker interface {
	Rank(questions, paragraphs [][]string) (vectorize.Matrix, error)
}

// Result is the evidence selected for one question
type Result struct {
	Question model.MultiParagraphQuestion `json:"question"`
	// Merged is nil when nothing was selected (k == 0)
	Merged    *model.Paragraph `json:"merged,omitempty"`
	Selection []int            `json:"selection"`
	// Forced is set when the gold paragraph was swapped into the last slot
	Forced bool `json:"forced"`
	// GoldRank is the gold paragraph's position in the ranking, -1 for
	// unanswerable questions
	GoldRank int `json:"gold_rank"`
}

// Ranked selects the top-k paragraphs per question by ranking
type Ranked struct {
	ranker      Ranker
	k           int
	forceAnswer bool
	weighted    bool
	encoder     encode.Encoder
}

// Option configures a preprocessor
type Option func(*options)

type options struct {
	weighted bool
	encoder  encode.Encoder
}

// WithWeights carries each question's weight into its result; otherwise
// every weight is 1
func WithWeights() Option {
	return func(o *options) { o.weighted = true }
}

// WithEncoder bounds every selected paragraph with enc
func WithEncoder(enc encode.Encoder) Option {
	return func(o *options) { o.encoder = enc }
}

// NewRanked validates k against the force-answer policy up front.
func NewRanked(ranker Ranker, k int, forceAnswer bool, opts ...Option) (*Ranked, error) {
	if _, err := Select(nil, k, forceAnswer, false, 0); err != nil {
		return nil, err
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return &Ranked{
		ranker:      ranker,
		k:           k,
		forceAnswer: forceAnswer,
		weighted:    o.weighted,
		encoder:     o.encoder,
	}, nil
}

// Process ranks, selects, attaches and merges evidence for every question of
// doc. Any invariant violation fails the whole document.
func (r *Ranked) Process(doc model.Document, questions []model.Question) ([]Result, error) {
	if err := checkInputs(&doc, questions); err != nil {
		return nil, err
	}

	paras := make([][]string, len(doc.Paragraphs))
	for i := range doc.Paragraphs {
		paras[i] = doc.Paragraphs[i].Flat()
	}
	qs := make([][]string, len(questions))
	for i := range questions {
		qs[i] = questions[i].Words
	}

	scores, err := r.ranker.Rank(qs, paras)
	if err != nil {
		return nil, fmt.Errorf("rank document %s: %w", doc.ID, err)
	}

	results := make([]Result, 0, len(questions))
	for i := range questions {
		q := &questions[i]
		order := rank.Order(scores[i])

		selection, err := Select(order, r.k, r.forceAnswer, q.HasAnswer(), q.GoldParagraph)
		if err != nil {
			return nil, err
		}

		res, err := build(&doc, q, selection, r.encoder, r.weighted)
		if err != nil {
			return nil, err
		}
		res.GoldRank = -1
		if q.HasAnswer() {
			res.GoldRank = indexOf(order, q.GoldParagraph)
			res.Forced = r.forceAnswer && !contains(order[:min(r.k, len(order))], q.GoldParagraph)
		}
		results = append(results, res)
	}
	return results, nil
}

func checkInputs(doc *model.Document, questions []model.Question) error {
	if err := validate.Document(doc); err != nil {
		return err
	}
	for i := range questions {
		if err := validate.Question(&questions[i], doc); err != nil {
			return err
		}
	}
	return nil
}

// build attaches and merges the selected paragraphs of one question
func build(doc *model.Document, q *model.Question, selection []int, enc encode.Encoder, weighted bool) (Result, error) {
	paragraphs, err := Attach(doc, q, selection, enc)
	if err != nil {
		return Result{}, err
	}

	weight := 1.0
	if weighted {
		weight = q.Weight
	}

	res := Result{
		Question: model.MultiParagraphQuestion{
			QuestionID:  q.ID,
			DocID:       doc.ID,
			Words:       q.Words,
			AnswerTexts: q.AnswerTexts(),
			Weight:      weight,
			Paragraphs:  paragraphs,
		},
		Selection: selection,
	}
	if len(paragraphs) > 0 {
		merged, err := Merge(paragraphs)
		if err != nil {
			return Result{}, err
		}
		res.Merged = &merged
	}
	return res, nil
}
