package score

import (
	"fmt"
	"sort"

	"github.com/ppiankov/paraqa/internal/evidence"
	"github.com/ppiankov/paraqa/internal/model"
)

// Scorer summarizes a selection run into diagnostic signals
type Scorer struct{}

// NewScorer creates a new scorer
func NewScorer() *Scorer {
	return &Scorer{}
}

// Calculate builds the selection report. documents counts every document
// that had questions, skipped those dropped for invalid data.
func (s *Scorer) Calculate(results []evidence.Result, documents, skipped int) model.SelectionReport {
	var signals []model.Signal

	answerable := 0
	for i := range results {
		if results[i].GoldRank >= 0 {
			answerable++
		}
	}

	// 1. Gold coverage before forcing
	signals = append(signals, s.goldCoverage(results, answerable))

	// 2. Forced replacements
	signals = append(signals, s.forcedAnswers(results, answerable))

	// 3. Gold rank
	if answerable > 0 {
		signals = append(signals, s.goldRank(results, answerable))
	}

	// 4. Evidence length
	signals = append(signals, s.evidenceLength(results))

	// 5. Skipped documents
	if skipped > 0 {
		signals = append(signals, s.skippedDocuments(documents, skipped))
	}

	return model.SelectionReport{
		Documents: documents,
		Skipped:   skipped,
		Questions: len(results),
		Signals:   signals,
	}
}

// goldCoverage is the share of answerable questions whose gold paragraph
// ranked inside the selection without help (recall@k)
func (s *Scorer) goldCoverage(results []evidence.Result, answerable int) model.Signal {
	if answerable == 0 {
		return model.Signal{
			Type:        model.SignalGoldCoverage,
			Severity:    model.SeverityInfo,
			Description: "No answerable questions",
			Data:        map[string]interface{}{"answerable": 0},
		}
	}

	covered := 0
	for i := range results {
		r := &results[i]
		if r.GoldRank >= 0 && !r.Forced && r.GoldRank < len(r.Selection) {
			covered++
		}
	}
	ratio := float64(covered) / float64(answerable)

	severity := model.SeverityInfo
	if ratio < 0.5 {
		severity = model.SeverityCritical
	} else if ratio < 0.8 {
		severity = model.SeverityWarning
	}

	return model.Signal{
		Type:        model.SignalGoldCoverage,
		Severity:    severity,
		Description: fmt.Sprintf("Gold paragraph ranked inside the selection for %d of %d answerable questions (%.1f%%)", covered, answerable, ratio*100),
		Data: map[string]interface{}{
			"covered":    covered,
			"answerable": answerable,
			"ratio":      ratio,
			"formula":    "covered / answerable",
		},
	}
}

// forcedAnswers counts last-slot replacements made by the force-answer policy
func (s *Scorer) forcedAnswers(results []evidence.Result, answerable int) model.Signal {
	forced := 0
	for i := range results {
		if results[i].Forced {
			forced++
		}
	}

	ratio := 0.0
	if answerable > 0 {
		ratio = float64(forced) / float64(answerable)
	}

	severity := model.SeverityInfo
	if ratio > 0.5 {
		severity = model.SeverityWarning
	}

	return model.Signal{
		Type:        model.SignalForcedAnswers,
		Severity:    severity,
		Description: fmt.Sprintf("Gold paragraph forced into the last slot for %d questions", forced),
		Data: map[string]interface{}{
			"forced":     forced,
			"answerable": answerable,
			"ratio":      ratio,
		},
	}
}

// goldRank reports where the ranking placed the gold paragraph (0 = first)
func (s *Scorer) goldRank(results []evidence.Result, answerable int) model.Signal {
	ranks := make([]int, 0, answerable)
	sum := 0
	for i := range results {
		if results[i].GoldRank >= 0 {
			ranks = append(ranks, results[i].GoldRank)
			sum += results[i].GoldRank
		}
	}
	sort.Ints(ranks)
	mean := float64(sum) / float64(len(ranks))
	median := ranks[len(ranks)/2]

	return model.Signal{
		Type:        model.SignalGoldRank,
		Severity:    model.SeverityInfo,
		Description: fmt.Sprintf("Mean gold paragraph rank %.2f (median %d)", mean, median),
		Data: map[string]interface{}{
			"mean":   mean,
			"median": median,
			"worst":  ranks[len(ranks)-1],
		},
	}
}

// evidenceLength reports merged paragraph sizes in tokens
func (s *Scorer) evidenceLength(results []evidence.Result) model.Signal {
	total, longest, empty := 0, 0, 0
	for i := range results {
		m := results[i].Merged
		if m == nil {
			empty++
			continue
		}
		total += m.Len()
		longest = max(longest, m.Len())
	}

	withEvidence := len(results) - empty
	mean := 0.0
	if withEvidence > 0 {
		mean = float64(total) / float64(withEvidence)
	}

	severity := model.SeverityInfo
	if empty > 0 {
		severity = model.SeverityWarning
	}

	return model.Signal{
		Type:        model.SignalEvidenceLength,
		Severity:    severity,
		Description: fmt.Sprintf("Merged evidence averages %.1f tokens (max %d)", mean, longest),
		Data: map[string]interface{}{
			"mean":        mean,
			"max":         longest,
			"no_evidence": empty,
		},
	}
}

// skippedDocuments reports documents dropped for invalid data
func (s *Scorer) skippedDocuments(documents, skipped int) model.Signal {
	severity := model.SeverityWarning
	if skipped >= documents {
		severity = model.SeverityCritical
	}
	return model.Signal{
		Type:        model.SignalSkipped,
		Severity:    severity,
		Description: fmt.Sprintf("%d of %d documents skipped for invalid data", skipped, documents),
		Data: map[string]interface{}{
			"skipped":   skipped,
			"documents": documents,
		},
	}
}
