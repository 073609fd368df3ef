package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/paraqa/internal/evidence"
	"github.com/ppiankov/paraqa/internal/model"
	"github.com/ppiankov/paraqa/internal/pipeline"
	"github.com/ppiankov/paraqa/internal/squad"
	"github.com/ppiankov/paraqa/internal/worker"
)

var (
	selectK           int
	selectForce       bool
	selectStrategy    string
	selectVectors     string
	selectWindow      int
	selectWorkers     int
	selectSingle      bool
	selectTrain       bool
	selectNoCache     bool
	selectOutput      string
	selectReport      string
	selectIDs         string
	selectTimeout     time.Duration
	selectHTTPProxy   string
	selectHTTPSProxy  string
	selectVectorsFrom string
)

// selectCmd represents the select command
var selectCmd = &cobra.Command{
	Use:   "select <dataset.json>",
	Short: "Select and merge evidence paragraphs for every question",
	Long: `Select reads a SQuAD-format dataset, ranks every paragraph of each
article against each of its questions, keeps the top k and merges them
into one passage per question.

Output is one JSON record per question (JSON lines). A selection report
with coverage diagnostics is printed to stderr.

Example:
  paraqa select train.json -o train.selected.jsonl
  paraqa select dev.json --k 3 --no-force-answer
  paraqa select dev.json --strategy combined --vectors glove.840B.300d.txt
  paraqa select dev.json --strategy embedding --vectors-from openai
  paraqa select train.json --single --train`,
	Args: cobra.ExactArgs(1),
	RunE: runSelect,
}

func init() {
	rootCmd.AddCommand(selectCmd)

	selectCmd.Flags().IntVar(&selectK, "k", 4, "paragraphs selected per question")
	selectCmd.Flags().BoolVar(&selectForce, "force-answer", true, "swap the gold paragraph into the last slot when it ranks outside the top k")
	selectCmd.Flags().StringVar(&selectStrategy, "strategy", model.StrategyTfIdf, "ranking strategy (tfidf, embedding, combined)")
	selectCmd.Flags().StringVar(&selectVectors, "vectors", "", "word vector file (GloVe/fastText text format)")
	selectCmd.Flags().StringVar(&selectVectorsFrom, "vectors-from", model.VectorsFile, "word vector provider (file, openai, ollama)")
	selectCmd.Flags().IntVar(&selectWindow, "window", 0, "truncate each selected paragraph to this many tokens (0 = no limit)")
	selectCmd.Flags().IntVar(&selectWorkers, "workers", 4, "documents processed concurrently")
	selectCmd.Flags().BoolVar(&selectSingle, "single", false, "pair each question with its gold paragraph only")
	selectCmd.Flags().BoolVar(&selectTrain, "train", false, "carry question weights into the output")
	selectCmd.Flags().BoolVar(&selectNoCache, "no-cache", false, "disable the score matrix cache")
	selectCmd.Flags().StringVarP(&selectOutput, "output", "o", "", "output JSON lines file (default: stdout)")
	selectCmd.Flags().StringVar(&selectReport, "report", "", "write the selection report as JSON")
	selectCmd.Flags().StringVar(&selectIDs, "ids", "", "only process article ids listed in this file")
	selectCmd.Flags().DurationVar(&selectTimeout, "timeout", 0, "abort the run after this long (0 = no limit)")
	selectCmd.Flags().StringVar(&selectHTTPProxy, "http-proxy", "", "HTTP proxy URL (overrides HTTP_PROXY env var)")
	selectCmd.Flags().StringVar(&selectHTTPSProxy, "https-proxy", "", "HTTPS proxy URL (overrides HTTPS_PROXY env var)")
}

// applySelectFlags overrides config values with the flags the user set
func applySelectFlags(cmd *cobra.Command, cfg *model.Config) {
	flags := cmd.Flags()
	if flags.Changed("k") {
		cfg.Selection.K = selectK
	}
	if flags.Changed("force-answer") {
		cfg.Selection.ForceAnswer = selectForce
	}
	if flags.Changed("strategy") {
		cfg.Selection.Strategy = selectStrategy
	}
	if flags.Changed("window") {
		cfg.Selection.Window = selectWindow
	}
	if flags.Changed("single") {
		cfg.Selection.Single = selectSingle
	}
	if flags.Changed("train") {
		cfg.Selection.Train = selectTrain
	}
	if flags.Changed("vectors") {
		cfg.Vectors.Path = selectVectors
	}
	if flags.Changed("vectors-from") {
		cfg.Vectors.Provider = selectVectorsFrom
	}
	if flags.Changed("workers") {
		cfg.Concurrency.Workers = selectWorkers
	}
	if selectNoCache {
		cfg.Cache.Enabled = false
	}
	if flags.Changed("http-proxy") {
		cfg.HTTP.HTTPProxy = selectHTTPProxy
	}
	if flags.Changed("https-proxy") {
		cfg.HTTP.HTTPSProxy = selectHTTPSProxy
	}
}

func runSelect(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applySelectFlags(cmd, cfg)

	logger := newLogger()
	p, err := pipeline.New(cfg, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if selectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, selectTimeout)
		defer cancel()
	}

	banner("paraqa Evidence Selection")
	fmt.Fprintf(os.Stderr, "  Dataset:      %s\n", args[0])
	if cfg.Selection.Single {
		fmt.Fprintf(os.Stderr, "  Mode:         gold paragraph only\n")
	} else {
		fmt.Fprintf(os.Stderr, "  Strategy:     %s\n", cfg.Selection.Strategy)
		fmt.Fprintf(os.Stderr, "  k:            %d (force answer: %v)\n", cfg.Selection.K, cfg.Selection.ForceAnswer)
	}
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", cfg.Concurrency.Workers)
	fmt.Fprintf(os.Stderr, "\n")

	ds, err := squad.LoadFile(args[0])
	if err != nil {
		return err
	}
	corpus, dataErrs := squad.ToCorpus(ds)
	for _, e := range dataErrs {
		logger.Warn("skipping question", "question", e.ID, "reason", e.Reason)
	}

	if selectIDs != "" {
		ids, err := worker.ReadIDsFromFile(selectIDs)
		if err != nil {
			return fmt.Errorf("read ids: %w", err)
		}
		corpus = filterCorpus(corpus, ids)
	}

	fmt.Fprintf(os.Stderr, "✓ Loaded %d articles, %d questions\n", len(corpus.Documents), len(corpus.Questions))
	fmt.Fprintf(os.Stderr, "⚙️  Selecting evidence...\n")

	out, err := p.Run(ctx, corpus)
	if err != nil {
		return err
	}

	if err := writeResults(selectOutput, out.Results); err != nil {
		return err
	}
	if selectReport != "" {
		if err := writeJSONFile(selectReport, out); err != nil {
			return err
		}
	}

	printReport(out)
	return nil
}

// filterCorpus keeps the listed documents and their questions
func filterCorpus(corpus *model.Corpus, ids []string) *model.Corpus {
	keep := make(map[string]bool, len(ids))
	for _, id := range ids {
		keep[id] = true
	}
	out := &model.Corpus{}
	for _, doc := range corpus.Documents {
		if keep[doc.ID] {
			out.Documents = append(out.Documents, doc)
		}
	}
	for _, q := range corpus.Questions {
		if keep[q.DocID] {
			out.Questions = append(out.Questions, q)
		}
	}
	return out
}

// writeResults writes one JSON record per line to path, or stdout
func writeResults(path string, results []evidence.Result) (err error) {
	var w io.Writer = os.Stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer func() {
			if closeErr := f.Close(); closeErr != nil && err == nil {
				err = fmt.Errorf("close output: %w", closeErr)
			}
		}()
		w = f
	}

	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	enc.SetEscapeHTML(false)
	for i := range results {
		if err := enc.Encode(&results[i]); err != nil {
			return fmt.Errorf("encode result %s: %w", results[i].Question.QuestionID, err)
		}
	}
	return bw.Flush()
}

// readResults reads the JSON lines written by writeResults
func readResults(path string) ([]evidence.Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open selection: %w", err)
	}
	defer func() { _ = f.Close() }()

	var results []evidence.Result
	dec := json.NewDecoder(bufio.NewReader(f))
	for {
		var r evidence.Result
		if err := dec.Decode(&r); err == io.EOF {
			break
		} else if err != nil {
			return nil, fmt.Errorf("decode selection record %d: %w", len(results)+1, err)
		}
		results = append(results, r)
	}
	return results, nil
}

func writeJSONFile(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func printReport(out *pipeline.Output) {
	report := out.Report
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Documents:    %d (%d skipped)\n", report.Documents, report.Skipped)
	fmt.Fprintf(os.Stderr, "  Questions:    %d\n", report.Questions)
	fmt.Fprintf(os.Stderr, "\n")
	for _, s := range report.Signals {
		icon := "✓"
		switch s.Severity {
		case model.SeverityWarning:
			icon = "⚠️ "
		case model.SeverityCritical:
			icon = "✗"
		}
		fmt.Fprintf(os.Stderr, "  %s %s\n", icon, s.Description)
	}
	for _, skip := range out.Skipped {
		fmt.Fprintf(os.Stderr, "  ✗ skipped %s: %s\n", skip.DocID, skip.Reason)
	}
	fmt.Fprintf(os.Stderr, "\n")
}
