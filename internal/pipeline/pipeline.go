// Package pipeline wires configuration, vectorizers, caching and the worker
// pool into a single evidence-selection run over a corpus.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/ppiankov/paraqa/internal/cache"
	"github.com/ppiankov/paraqa/internal/encode"
	"github.com/ppiankov/paraqa/internal/evidence"
	"github.com/ppiankov/paraqa/internal/model"
	"github.com/ppiankov/paraqa/internal/rank"
	"github.com/ppiankov/paraqa/internal/score"
	"github.com/ppiankov/paraqa/internal/text"
	"github.com/ppiankov/paraqa/internal/util"
	"github.com/ppiankov/paraqa/internal/vectorize"
	"github.com/ppiankov/paraqa/internal/worker"
)

// Pipeline runs evidence selection over whole corpora
type Pipeline struct {
	config *model.Config
	logger *slog.Logger
	stop   text.StopWords
	source vectorize.VectorSource
	cache  cache.Cache
	scorer *score.Scorer
}

// Option customizes a Pipeline
type Option func(*Pipeline)

// WithVectorSource replaces the word vector source built from the config
func WithVectorSource(src vectorize.VectorSource) Option {
	return func(p *Pipeline) { p.source = src }
}

// WithCache replaces the score matrix cache built from the config
func WithCache(c cache.Cache) Option {
	return func(p *Pipeline) { p.cache = c }
}

// Skip records a document dropped for invalid data
type Skip struct {
	DocID  string `json:"doc_id"`
	Reason string `json:"reason"`
}

// Output is the result of a run, in corpus order
type Output struct {
	Results []evidence.Result     `json:"results"`
	Skipped []Skip                `json:"skipped,omitempty"`
	Report  model.SelectionReport `json:"report"`
}

// New validates cfg and prepares a pipeline. Configuration errors are
// returned here, before any document is read.
func New(cfg *model.Config, logger *slog.Logger, opts ...Option) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}

	stop := text.EnglishStopWords()
	if cfg.Selection.StopWords != "" {
		f, err := os.Open(cfg.Selection.StopWords)
		if err != nil {
			return nil, &model.ConfigError{Field: "selection.stop_words", Reason: err.Error()}
		}
		stop, err = text.ReadStopWords(f)
		_ = f.Close()
		if err != nil {
			return nil, &model.ConfigError{Field: "selection.stop_words", Reason: err.Error()}
		}
	}

	p := &Pipeline{
		config: cfg,
		logger: logger,
		stop:   stop,
		scorer: score.NewScorer(),
	}

	if cfg.NeedsVectors() {
		src, err := newVectorSource(cfg)
		if err != nil {
			return nil, &model.ConfigError{Field: "vectors", Reason: err.Error()}
		}
		p.source = src
	}

	if cfg.Cache.Enabled {
		p.cache = cache.NewLayeredCache(cfg.Cache.MemoryTTL, cfg.Cache.Dir, cfg.Cache.DiskTTL)
	}

	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// newVectorSource builds the configured word vector provider. Remote
// providers share one rate limiter keyed by provider and model.
func newVectorSource(cfg *model.Config) (vectorize.VectorSource, error) {
	v := cfg.Vectors
	switch v.Provider {
	case model.VectorsOpenAI, model.VectorsOllama:
		limiter := worker.NewLimiter(v.RequestsPerSecond, v.Burst)
		client := util.NewHTTPClient(v.Timeout, cfg.HTTP.HTTPProxy, cfg.HTTP.HTTPSProxy, cfg.HTTP.NoProxy)
		if v.Provider == model.VectorsOllama {
			return vectorize.NewOllamaSource(vectorize.OllamaConfig{
				BaseURL:    v.BaseURL,
				Model:      v.Model,
				BatchSize:  v.BatchSize,
				HTTPClient: client,
			}, limiter)
		}
		return vectorize.NewOpenAISource(vectorize.OpenAIConfig{
			APIKey:     v.APIKey,
			BaseURL:    v.BaseURL,
			Model:      v.Model,
			BatchSize:  v.BatchSize,
			HTTPClient: client,
		}, limiter)
	default:
		return vectorize.FileSource{Path: v.Path}, nil
	}
}

// Run selects evidence for every question of corpus. Documents with invalid
// data are skipped and reported; any other failure aborts the run.
func (p *Pipeline) Run(ctx context.Context, corpus *model.Corpus) (*Output, error) {
	processor, err := p.processor(ctx, corpus)
	if err != nil {
		return nil, err
	}

	questions := corpus.QuestionsByDoc()
	p.warnOrphans(corpus, questions)

	documents := 0
	for _, doc := range corpus.Documents {
		if len(questions[doc.ID]) > 0 {
			documents++
		}
	}

	p.logger.Info("selecting evidence",
		"documents", documents,
		"questions", len(corpus.Questions),
		"strategy", p.strategyName(),
		"k", p.config.Selection.K,
		"workers", p.config.Concurrency.Workers)

	batch := worker.NewBatchProcessor(processor, p.config.Concurrency.Workers)
	docResults := batch.ProcessDocuments(ctx, corpus.Documents, questions)

	out := &Output{Results: []evidence.Result{}}
	for _, dr := range docResults {
		if dr.Error == nil {
			out.Results = append(out.Results, dr.Results...)
			continue
		}

		var invariant *model.InvariantError
		if errors.As(dr.Error, &invariant) {
			p.logger.Warn("skipping document", "doc", dr.DocID, "reason", dr.Error.Error())
			out.Skipped = append(out.Skipped, Skip{DocID: dr.DocID, Reason: dr.Error.Error()})
			continue
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("document %s: %w", dr.DocID, dr.Error)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out.Report = p.scorer.Calculate(out.Results, documents, len(out.Skipped))
	p.logger.Info("selection complete",
		"results", len(out.Results),
		"skipped", len(out.Skipped))
	if layered, ok := p.cache.(*cache.LayeredCache); ok {
		stats := layered.Stats()
		p.logger.Debug("score cache",
			"memory_hits", stats.MemoryHits,
			"disk_hits", stats.DiskHits,
			"misses", stats.Misses)
	}
	return out, nil
}

// processor builds the per-document preprocessor. Word vectors are fetched
// for the corpus vocabulary only.
func (p *Pipeline) processor(ctx context.Context, corpus *model.Corpus) (worker.Processor, error) {
	sel := p.config.Selection

	var opts []evidence.Option
	if sel.Train {
		opts = append(opts, evidence.WithWeights())
	}
	if sel.Window > 0 {
		opts = append(opts, evidence.WithEncoder(encode.Window{Size: sel.Window}))
	}

	if sel.Single {
		return evidence.NewSingleParagraph(opts...), nil
	}

	strategy, err := p.strategy(ctx, corpus)
	if err != nil {
		return nil, err
	}

	var ranker evidence.Ranker = rank.NewRanker(strategy, text.Lowercase)
	if p.cache != nil {
		ranker = rank.NewCached(rank.NewRanker(strategy, text.Lowercase), p.cache, p.config.Cache.DiskTTL, p.logger)
	}

	return evidence.NewRanked(ranker, sel.K, sel.ForceAnswer, opts...)
}

func (p *Pipeline) strategy(ctx context.Context, corpus *model.Corpus) (vectorize.Strategy, error) {
	var tfidf, embedding vectorize.Strategy

	if p.config.Selection.Strategy != model.StrategyEmbedding {
		t, err := vectorize.NewTfIdf(p.stop)
		if err != nil {
			return nil, err
		}
		tfidf = t
	}

	if p.config.Selection.Strategy != model.StrategyTfIdf {
		if p.source == nil {
			return nil, &model.ConfigError{Field: "vectors", Reason: "no word vector source configured"}
		}
		vectors, err := p.source.Vectors(ctx, corpusVocabulary(p.stop, corpus))
		if err != nil {
			return nil, fmt.Errorf("load word vectors: %w", err)
		}
		p.logger.Info("loaded word vectors", "words", vectors.Len(), "dim", vectors.Dim())

		e, err := vectorize.NewEmbedding(p.stop, vectors)
		if err != nil {
			return nil, err
		}
		embedding = e
	}

	switch p.config.Selection.Strategy {
	case model.StrategyTfIdf:
		return tfidf, nil
	case model.StrategyEmbedding:
		return embedding, nil
	default:
		return vectorize.NewCombined(tfidf, embedding), nil
	}
}

func (p *Pipeline) strategyName() string {
	if p.config.Selection.Single {
		return "single"
	}
	return p.config.Selection.Strategy
}

// warnOrphans logs questions whose document is not in the corpus
func (p *Pipeline) warnOrphans(corpus *model.Corpus, questions map[string][]model.Question) {
	known := make(map[string]bool, len(corpus.Documents))
	for _, doc := range corpus.Documents {
		known[doc.ID] = true
	}
	for docID, qs := range questions {
		if !known[docID] {
			p.logger.Warn("questions reference unknown document", "doc", docID, "questions", len(qs))
		}
	}
}

func corpusVocabulary(stop text.StopWords, corpus *model.Corpus) map[string]bool {
	var texts [][]string
	for _, doc := range corpus.Documents {
		for _, para := range doc.Paragraphs {
			texts = append(texts, para.Sentences...)
		}
	}
	for _, q := range corpus.Questions {
		texts = append(texts, q.Words)
	}
	return vectorize.Vocabulary(stop, texts...)
}
