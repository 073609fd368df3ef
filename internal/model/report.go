package model

// SelectionReport summarizes an evidence-selection run with transparent signals
type SelectionReport struct {
	Documents int      `json:"documents"`
	Skipped   int      `json:"skipped"`
	Questions int      `json:"questions"`
	Signals   []Signal `json:"signals"`
}

// Signal is one diagnostic with the numbers it was computed from
type Signal struct {
	Type        SignalType             `json:"type"`
	Severity    SignalSeverity         `json:"severity"`
	Description string                 `json:"description"`
	Data        map[string]interface{} `json:"data,omitempty"`
}

// SignalType classifies a selection diagnostic
type SignalType string

const (
	SignalGoldCoverage   SignalType = "gold_coverage"   // gold paragraph ranked inside top-k
	SignalForcedAnswers  SignalType = "forced_answers"  // gold paragraph swapped into the last slot
	SignalGoldRank       SignalType = "gold_rank"       // mean rank of the gold paragraph
	SignalEvidenceLength SignalType = "evidence_length" // tokens per merged paragraph
	SignalSkipped        SignalType = "skipped"         // documents dropped for bad data
)

// SignalSeverity indicates the importance of the signal
type SignalSeverity string

const (
	SeverityInfo     SignalSeverity = "info"
	SeverityWarning  SignalSeverity = "warning"
	SeverityCritical SignalSeverity = "critical"
)

// Signal returns the first signal of the given type, if present
func (r *SelectionReport) Signal(t SignalType) (Signal, bool) {
	for _, s := range r.Signals {
		if s.Type == t {
			return s, true
		}
	}
	return Signal{}, false
}
