package vectorize

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/ollama/ollama/api"
)

// OllamaConfig configures an OllamaSource
type OllamaConfig struct {
	BaseURL    string // default http://localhost:11434
	Model      string
	BatchSize  int
	HTTPClient *http.Client
}

// OllamaSource embeds vocabulary words with a local Ollama server
type OllamaSource struct {
	client  *api.Client
	model   string
	batch   int
	limiter RateLimiter
}

// NewOllamaSource creates a local vector source. limiter may be nil.
func NewOllamaSource(cfg OllamaConfig, limiter RateLimiter) (*OllamaSource, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("ollama model must be specified (e.g., nomic-embed-text)")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse ollama base URL: %w", err)
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 256
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}

	return &OllamaSource{
		client:  api.NewClient(base, httpClient),
		model:   cfg.Model,
		batch:   cfg.BatchSize,
		limiter: limiter,
	}, nil
}

// Vectors embeds the vocabulary in sorted batches
func (s *OllamaSource) Vectors(ctx context.Context, vocab map[string]bool) (*WordVectors, error) {
	words := make([]string, 0, len(vocab))
	for w := range vocab {
		words = append(words, w)
	}
	sort.Strings(words)

	var table *WordVectors
	for start := 0; start < len(words); start += s.batch {
		batch := words[start:min(start+s.batch, len(words))]

		if s.limiter != nil {
			if err := s.limiter.Wait(ctx, "ollama/"+s.model); err != nil {
				return nil, err
			}
		}

		resp, err := s.client.Embed(ctx, &api.EmbedRequest{Model: s.model, Input: batch})
		if err != nil {
			return nil, fmt.Errorf("ollama API error: %w", err)
		}
		if len(resp.Embeddings) != len(batch) {
			return nil, fmt.Errorf("requested %d embeddings, got %d", len(batch), len(resp.Embeddings))
		}

		for i, vec := range resp.Embeddings {
			if table == nil {
				table = NewWordVectors(len(vec))
			}
			if err := table.Set(batch[i], vec); err != nil {
				return nil, err
			}
		}
	}

	if table == nil {
		return NewWordVectors(0), nil
	}
	return table, nil
}
