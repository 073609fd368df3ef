// Package evidence turns a paragraph ranking into the evidence handed to the
// answer-extraction model: top-k selection with the force-answer policy,
// answer span attachment and merging into one paragraph per question.
package evidence

import (
	"fmt"

	"github.com/ppiankov/paraqa/internal/model"
)

// Select takes the first min(k, len(ranked)) indices of ranked. When
// forceAnswer is set, the question has an answer and gold is not among them,
// the last slot is replaced by gold; the rest keep their ranking order.
// ranked is never modified.
//
// k == 0 without forceAnswer selects nothing.
func Select(ranked []int, k int, forceAnswer, hasAnswer bool, gold int) ([]int, error) {
	if k < 0 {
		return nil, &model.ConfigError{Field: "selection.k", Reason: fmt.Sprintf("must be >= 0, got %d", k)}
	}
	if k == 0 && forceAnswer {
		return nil, &model.ConfigError{Field: "selection.k", Reason: "force_answer needs at least one evidence slot (k >= 1)"}
	}

	n := min(k, len(ranked))
	out := make([]int, n)
	copy(out, ranked[:n])

	if forceAnswer && hasAnswer && n > 0 && !contains(out, gold) {
		out[n-1] = gold
	}
	return out, nil
}

func contains(s []int, v int) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}

func indexOf(s []int, v int) int {
	for i, x := range s {
		if x == v {
			return i
		}
	}
	return -1
}
