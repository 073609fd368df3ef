package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/paraqa/internal/predict"
)

var (
	mergeThresholds []float64
	mergeNAProbs    []string
	mergePreds      []string
	mergeAlways     []string
	mergeNAProbFile string
	mergePredFile   string
	mergeAlwaysFile string
)

// predictionsCmd groups prediction post-processing
var predictionsCmd = &cobra.Command{
	Use:   "predictions",
	Short: "Post-process model predictions",
}

var predictionsMergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Cascade the predictions of several models",
	Long: `Merge combines models listed in order of active training. Each model
claims the questions whose no-answer probability exceeds its threshold;
the last model takes whatever is left.

Example:
  paraqa predictions merge -t 0.4,0.6,0 \
    -n m1/na_prob.json,m2/na_prob.json,m3/na_prob.json \
    -p m1/pred.json,m2/pred.json,m3/pred.json \
    -a m1/pred_alwaysAnswer.json,m2/pred_alwaysAnswer.json,m3/pred_alwaysAnswer.json`,
	RunE: runPredictionsMerge,
}

func init() {
	rootCmd.AddCommand(predictionsCmd)
	predictionsCmd.AddCommand(predictionsMergeCmd)

	f := predictionsMergeCmd.Flags()
	f.Float64SliceVarP(&mergeThresholds, "thresholds", "t", nil, "no-answer probability threshold per model")
	f.StringSliceVarP(&mergeNAProbs, "na-probs", "n", nil, "no-answer probability file per model")
	f.StringSliceVarP(&mergePreds, "preds", "p", nil, "prediction file per model")
	f.StringSliceVarP(&mergeAlways, "always-answer-preds", "a", nil, "always-answer prediction file per model (optional)")
	f.StringVar(&mergeNAProbFile, "na-prob-file", "na_prob.json", "merged no-answer probability output")
	f.StringVar(&mergePredFile, "pred-file", "pred.json", "merged prediction output")
	f.StringVar(&mergeAlwaysFile, "always-answer-file", "pred_alwaysAnswer.json", "merged always-answer output")
}

func runPredictionsMerge(cmd *cobra.Command, args []string) error {
	n := len(mergePreds)
	if n == 0 {
		return fmt.Errorf("no prediction files given")
	}
	if len(mergeNAProbs) != n || len(mergeThresholds) != n {
		return fmt.Errorf("need one threshold and one no-answer file per prediction file (%d thresholds, %d no-answer files, %d prediction files)",
			len(mergeThresholds), len(mergeNAProbs), n)
	}
	if len(mergeAlways) != 0 && len(mergeAlways) != n {
		return fmt.Errorf("need one always-answer file per prediction file, got %d", len(mergeAlways))
	}

	models := make([]predict.ModelPredictions, n)
	for i := range models {
		m := predict.ModelPredictions{Name: mergePreds[i], Threshold: mergeThresholds[i]}
		if err := predict.ReadFile(mergeNAProbs[i], &m.NoAnswerProbs); err != nil {
			return err
		}
		if err := predict.ReadFile(mergePreds[i], &m.Predictions); err != nil {
			return err
		}
		if len(mergeAlways) > 0 {
			if err := predict.ReadFile(mergeAlways[i], &m.AlwaysAnswer); err != nil {
				return err
			}
		}
		models[i] = m
	}

	merged, err := predict.Cascade(models)
	if err != nil {
		return err
	}

	if err := predict.WriteFile(mergeNAProbFile, merged.NoAnswerProbs); err != nil {
		return err
	}
	if err := predict.WriteFile(mergePredFile, merged.Predictions); err != nil {
		return err
	}
	if len(mergeAlways) > 0 {
		if err := predict.WriteFile(mergeAlwaysFile, merged.AlwaysAnswer); err != nil {
			return err
		}
	}

	counts := make(map[string]int)
	for _, src := range merged.Source {
		counts[src]++
	}
	for _, name := range mergePreds {
		fmt.Fprintf(os.Stderr, "  %-40s %d questions\n", name, counts[name])
	}
	fmt.Fprintf(os.Stderr, "✓ Merged %d predictions: %s\n", len(merged.Predictions), mergePredFile)
	return nil
}
