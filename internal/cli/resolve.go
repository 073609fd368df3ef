package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ppiankov/paraqa/internal/model"
	"github.com/ppiankov/paraqa/internal/predict"
)

var (
	resolveOutput string
	resolveStrict bool
)

// resolveCmd represents the resolve command
var resolveCmd = &cobra.Command{
	Use:   "resolve <selection.jsonl> <spans.json>",
	Short: "Turn predicted token spans into answer text",
	Long: `Resolve maps predicted token spans over merged passages back to the
exact substring of the original text.

spans.json maps question ids to inclusive [start, end] token indices into
the merged passage of that question, as written by 'paraqa select'.
Questions that cannot be resolved are reported and left out.

Example:
  paraqa resolve dev.selected.jsonl spans.json -o predictions.json`,
	Args: cobra.ExactArgs(2),
	RunE: runResolve,
}

func init() {
	rootCmd.AddCommand(resolveCmd)
	resolveCmd.Flags().StringVarP(&resolveOutput, "output", "o", "", "output JSON file (default: stdout)")
	resolveCmd.Flags().BoolVar(&resolveStrict, "strict", false, "fail if any question cannot be resolved")
}

func runResolve(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	results, err := readResults(args[0])
	if err != nil {
		return err
	}
	paragraphs := make(map[string]*model.Paragraph, len(results))
	for i := range results {
		if results[i].Merged != nil {
			paragraphs[results[i].Question.QuestionID] = results[i].Merged
		}
	}

	var raw map[string][2]int
	if err := predict.ReadFile(args[1], &raw); err != nil {
		return err
	}
	spans := make(map[string]model.Span, len(raw))
	for qid, s := range raw {
		spans[qid] = model.Span{Start: s[0], End: s[1]}
	}

	answers, resolveErr := predict.Resolve(paragraphs, spans)
	if resolveErr != nil {
		for _, line := range strings.Split(resolveErr.Error(), "\n") {
			logger.Warn("unresolved prediction", "error", line)
		}
		if resolveStrict {
			return fmt.Errorf("%d of %d predictions could not be resolved", len(spans)-len(answers), len(spans))
		}
	}

	if resolveOutput == "" {
		return predict.WriteJSON(os.Stdout, answers)
	}
	if err := predict.WriteFile(resolveOutput, answers); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "✓ Resolved %d of %d predictions: %s\n", len(answers), len(spans), resolveOutput)
	return nil
}
