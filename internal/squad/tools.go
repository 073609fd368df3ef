package squad

import (
	"fmt"
	"strings"
)

// MergeDatasets concatenates the articles of every dataset in order
func MergeDatasets(datasets ...*Dataset) *Dataset {
	out := &Dataset{Data: []Article{}}
	for _, ds := range datasets {
		if out.Version == "" {
			out.Version = ds.Version
		}
		out.Data = append(out.Data, ds.Data...)
	}
	return out
}

// AddWeights sets the weight of every question to w
func AddWeights(ds *Dataset, w float64) {
	for a := range ds.Data {
		for p := range ds.Data[a].Paragraphs {
			qas := ds.Data[a].Paragraphs[p].QAs
			for i := range qas {
				v := w
				qas[i].Weight = &v
			}
		}
	}
}

// Weights maps question ids to training weights; ids without an entry
// weigh 1
type Weights map[string]float64

// Get returns the weight of qid
func (w Weights) Get(qid string) float64 {
	if v, ok := w[qid]; ok {
		return v
	}
	return 1.0
}

// ComputeWeights normalizes one per-question metric (e.g. "loss") by its
// maximum. The maximum must be positive.
func ComputeWeights(metrics map[string]map[string]float64, metric string) (Weights, error) {
	if len(metrics) == 0 {
		return nil, fmt.Errorf("no metrics")
	}
	maxVal := 0.0
	first := true
	for qid, m := range metrics {
		v, ok := m[metric]
		if !ok {
			return nil, fmt.Errorf("question %s has no %q metric", qid, metric)
		}
		if first || v > maxVal {
			maxVal = v
			first = false
		}
	}
	if maxVal <= 0 {
		return nil, fmt.Errorf("max %s %f <= 0", metric, maxVal)
	}

	out := make(Weights, len(metrics))
	for qid, m := range metrics {
		out[qid] = m[metric] / maxVal
	}
	return out, nil
}

// Reweight rewrites every question's weight. When dropThreshold is set,
// unanswerable questions weighted at or below it are removed.
func Reweight(ds *Dataset, weights Weights, dropThreshold *float64) (dropped int) {
	for a := range ds.Data {
		for p := range ds.Data[a].Paragraphs {
			para := &ds.Data[a].Paragraphs[p]
			kept := para.QAs[:0]
			for _, qa := range para.QAs {
				w := weights.Get(qa.ID)
				qa.Weight = &w
				if dropThreshold != nil && len(qa.Answers) == 0 && w <= *dropThreshold {
					dropped++
					continue
				}
				kept = append(kept, qa)
			}
			para.QAs = kept
		}
	}
	return dropped
}

// Negatives appends, for every article, an "_neg" article whose contexts
// have every sentence containing an answer removed. The copied questions get
// an "_neg" id suffix and no answers. Questions sharing a rewritten context
// share a paragraph; contexts left empty are skipped.
func Negatives(ds *Dataset, sentences func(string) []string) *Dataset {
	out := &Dataset{Version: ds.Version, Data: append([]Article(nil), ds.Data...)}

	for _, article := range ds.Data {
		neg := Article{Title: article.Title + "_neg", Paragraphs: []Paragraph{}}
		index := make(map[string]int)

		for _, para := range article.Paragraphs {
			sents := sentences(para.Context)
			for _, qa := range para.QAs {
				context := strings.Join(withoutAnswers(sents, qa.Answers), " ")
				if context == "" {
					continue
				}
				i, ok := index[context]
				if !ok {
					i = len(neg.Paragraphs)
					index[context] = i
					neg.Paragraphs = append(neg.Paragraphs, Paragraph{Context: context})
				}
				neg.Paragraphs[i].QAs = append(neg.Paragraphs[i].QAs, QA{
					ID:       qa.ID + "_neg",
					Question: qa.Question,
					Answers:  []Answer{},
				})
			}
		}
		out.Data = append(out.Data, neg)
	}
	return out
}

func withoutAnswers(sents []string, answers []Answer) []string {
	out := make([]string, 0, len(sents))
	for _, s := range sents {
		keep := true
		for _, a := range answers {
			if strings.Contains(s, a.Text) {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, s)
		}
	}
	return out
}
