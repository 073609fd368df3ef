package predict

import (
	"fmt"
	"sort"
)

// ModelPredictions is the output of one model over a question set
type ModelPredictions struct {
	Name string
	// Threshold on the no-answer probability above which this model's
	// prediction is used
	Threshold     float64
	NoAnswerProbs map[string]float64
	Predictions   map[string]string
	// AlwaysAnswer holds the best non-empty answer; optional
	AlwaysAnswer map[string]string
}

// Merged is the combined prediction set
type Merged struct {
	NoAnswerProbs map[string]float64
	Predictions   map[string]string
	AlwaysAnswer  map[string]string
	// Source names the model each question was taken from
	Source map[string]string
}

// Cascade lets models claim questions in order: a question goes to the first
// model whose no-answer probability for it exceeds that model's threshold.
// The last model's threshold is treated as 0, so it claims whatever is left
// with a positive probability. The question set is the first model's
// predictions.
func Cascade(models []ModelPredictions) (*Merged, error) {
	if len(models) == 0 {
		return nil, fmt.Errorf("no models to merge")
	}

	qids := make([]string, 0, len(models[0].Predictions))
	for qid := range models[0].Predictions {
		qids = append(qids, qid)
	}
	sort.Strings(qids)

	out := &Merged{
		NoAnswerProbs: make(map[string]float64),
		Predictions:   make(map[string]string),
		AlwaysAnswer:  make(map[string]string),
		Source:        make(map[string]string),
	}

	remaining := qids
	for i, m := range models {
		threshold := m.Threshold
		if i == len(models)-1 {
			threshold = 0
		}

		var next []string
		for _, qid := range remaining {
			p, ok := m.NoAnswerProbs[qid]
			if !ok {
				return nil, fmt.Errorf("model %s: no no-answer probability for %s", m.label(i), qid)
			}
			if p <= threshold {
				next = append(next, qid)
				continue
			}
			pred, ok := m.Predictions[qid]
			if !ok {
				return nil, fmt.Errorf("model %s: no prediction for %s", m.label(i), qid)
			}
			out.NoAnswerProbs[qid] = p
			out.Predictions[qid] = pred
			if m.AlwaysAnswer != nil {
				out.AlwaysAnswer[qid] = m.AlwaysAnswer[qid]
			}
			out.Source[qid] = m.label(i)
		}
		remaining = next
	}
	return out, nil
}

func (m ModelPredictions) label(i int) string {
	if m.Name != "" {
		return m.Name
	}
	return fmt.Sprintf("#%d", i)
}
