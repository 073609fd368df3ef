package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ppiankov/paraqa/internal/extract"
	"github.com/ppiankov/paraqa/internal/predict"
	"github.com/ppiankov/paraqa/internal/squad"
	"github.com/ppiankov/paraqa/internal/text"
)

var (
	datasetOutput        string
	datasetWeight        float64
	datasetMetrics       string
	datasetMetric        string
	datasetDropThreshold float64
	datasetQuestions     string
	datasetTitle         string
)

// datasetCmd groups SQuAD-format dataset tools
var datasetCmd = &cobra.Command{
	Use:   "dataset",
	Short: "Build and rewrite SQuAD-format datasets",
}

var datasetMergeCmd = &cobra.Command{
	Use:   "merge <a.json> <b.json>...",
	Short: "Concatenate the articles of several datasets",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		datasets := make([]*squad.Dataset, 0, len(args))
		for _, path := range args {
			ds, err := squad.LoadFile(path)
			if err != nil {
				return err
			}
			datasets = append(datasets, ds)
		}
		merged := squad.MergeDatasets(datasets...)
		return saveDataset(merged, fmt.Sprintf("%d articles, %d questions", len(merged.Data), merged.Questions()))
	},
}

var datasetWeightsCmd = &cobra.Command{
	Use:   "weights <dataset.json>",
	Short: "Give every question the same initial weight",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := squad.LoadFile(args[0])
		if err != nil {
			return err
		}
		squad.AddWeights(ds, datasetWeight)
		return saveDataset(ds, fmt.Sprintf("%d questions weighted %g", ds.Questions(), datasetWeight))
	},
}

var datasetReweightCmd = &cobra.Command{
	Use:   "reweight <dataset.json>",
	Short: "Reweight questions from per-question training metrics",
	Long: `Reweight sets each question's weight to one metric (default: loss)
divided by its maximum over the metrics file. Questions missing from the
metrics file get weight 1.

The metrics file maps question ids to metric objects:
  {"q1": {"loss": 2.5}, "q2": {"loss": 0.1}}

With --drop-threshold, unanswerable questions weighted at or below the
threshold are removed.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if datasetMetrics == "" {
			return fmt.Errorf("--metrics is required")
		}
		ds, err := squad.LoadFile(args[0])
		if err != nil {
			return err
		}

		var metrics map[string]map[string]float64
		if err := predict.ReadFile(datasetMetrics, &metrics); err != nil {
			return err
		}
		weights, err := squad.ComputeWeights(metrics, datasetMetric)
		if err != nil {
			return err
		}

		var threshold *float64
		if cmd.Flags().Changed("drop-threshold") {
			threshold = &datasetDropThreshold
		}
		dropped := squad.Reweight(ds, weights, threshold)
		return saveDataset(ds, fmt.Sprintf("%d questions reweighted by %s, %d dropped", ds.Questions(), datasetMetric, dropped))
	},
}

var datasetNegativesCmd = &cobra.Command{
	Use:   "negatives <dataset.json>",
	Short: "Add unanswerable copies of every paragraph with the answer sentences removed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := squad.LoadFile(args[0])
		if err != nil {
			return err
		}
		out := squad.Negatives(ds, text.Sentences)
		return saveDataset(out, fmt.Sprintf("%d articles, %d questions", len(out.Data), out.Questions()))
	},
}

var datasetFromHTMLCmd = &cobra.Command{
	Use:   "from-html <url|file.html>",
	Short: "Build an unanswered dataset from a web page and a question list",
	Long: `From-html extracts the body paragraphs of an HTML page (Wikipedia
articles get a dedicated extractor) and pairs them with the questions in
--questions (one per line) so the page can be run through 'paraqa select'.

URLs are fetched with retries, honoring robots.txt unless
http.respect_robots is false.

Example:
  paraqa dataset from-html https://en.wikipedia.org/wiki/Super_Bowl_50 \
    --questions questions.txt -o page.json`,
	Args: cobra.ExactArgs(1),
	RunE: runFromHTML,
}

func init() {
	rootCmd.AddCommand(datasetCmd)
	datasetCmd.AddCommand(datasetMergeCmd, datasetWeightsCmd, datasetReweightCmd, datasetNegativesCmd, datasetFromHTMLCmd)

	datasetCmd.PersistentFlags().StringVarP(&datasetOutput, "output", "o", "", "output dataset file (default: stdout)")

	datasetWeightsCmd.Flags().Float64Var(&datasetWeight, "weight", 1.0, "weight given to every question")

	datasetReweightCmd.Flags().StringVar(&datasetMetrics, "metrics", "", "JSON file of question id -> metrics")
	datasetReweightCmd.Flags().StringVar(&datasetMetric, "metric", "loss", "metric used as the weight")
	datasetReweightCmd.Flags().Float64Var(&datasetDropThreshold, "drop-threshold", 0, "drop unanswerable questions weighted at or below this")

	datasetFromHTMLCmd.Flags().StringVar(&datasetQuestions, "questions", "", "file with one question per line")
	datasetFromHTMLCmd.Flags().StringVar(&datasetTitle, "title", "", "article title (default: derived from the URL or file name)")
}

func runFromHTML(cmd *cobra.Command, args []string) error {
	source := args[0]

	var questions []string
	if datasetQuestions != "" {
		var err error
		if questions, err = readLines(datasetQuestions); err != nil {
			return err
		}
	}

	registry := extract.NewRegistry()
	title := datasetTitle
	var paragraphs []string

	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "⚙️  Fetching %s...\n", source)
		page, err := extract.NewFetcher(cfg.HTTP).FetchWithRetry(cmd.Context(), source)
		if err != nil {
			return fmt.Errorf("fetch: %w", err)
		}
		if paragraphs, err = registry.Paragraphs(strings.NewReader(page.HTML), page.FinalURL); err != nil {
			return err
		}
		if title == "" {
			title = page.Title
		}
	} else {
		f, err := os.Open(source)
		if err != nil {
			return fmt.Errorf("open %s: %w", source, err)
		}
		paragraphs, err = registry.Paragraphs(f, source)
		_ = f.Close()
		if err != nil {
			return err
		}
		if title == "" {
			title = extract.TitleFromURL(source)
		}
	}

	if len(paragraphs) == 0 {
		return fmt.Errorf("no paragraphs found in %s", source)
	}
	ds := squad.FromParagraphs(title, paragraphs, questions)
	return saveDataset(ds, fmt.Sprintf("%q: %d paragraphs, %d questions", title, len(paragraphs), len(questions)))
}

// readLines returns the non-empty trimmed lines of path
func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan %s: %w", path, err)
	}
	return lines, nil
}

func saveDataset(ds *squad.Dataset, summary string) error {
	if datasetOutput == "" {
		return squad.Save(os.Stdout, ds)
	}
	if err := squad.SaveFile(datasetOutput, ds); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "✓ Wrote %s (%s)\n", datasetOutput, summary)
	return nil
}
