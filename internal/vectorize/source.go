package vectorize

import (
	"context"
	"fmt"
	"net/http"
	"sort"

	"github.com/sashabaranov/go-openai"
)

// VectorSource builds the word vector table for the words a run will look up
type VectorSource interface {
	Vectors(ctx context.Context, vocab map[string]bool) (*WordVectors, error)
}

// FileSource reads pre-trained vectors from a GloVe/fastText text file,
// keeping only the requested words
type FileSource struct {
	Path string
}

// Vectors loads the file
func (f FileSource) Vectors(ctx context.Context, vocab map[string]bool) (*WordVectors, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return LoadWordVectors(f.Path, vocab)
}

// RateLimiter blocks until a call for key may proceed
type RateLimiter interface {
	Wait(ctx context.Context, key string) error
}

// OpenAIConfig configures an OpenAISource
type OpenAIConfig struct {
	APIKey     string
	BaseURL    string // any OpenAI compatible endpoint
	Model      string
	BatchSize  int
	HTTPClient *http.Client
}

// OpenAISource embeds every vocabulary word through the embeddings API
type OpenAISource struct {
	client  *openai.Client
	model   string
	batch   int
	limiter RateLimiter
}

// NewOpenAISource creates a remote vector source. limiter may be nil.
func NewOpenAISource(cfg OpenAIConfig, limiter RateLimiter) (*OpenAISource, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = "text-embedding-3-small"
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 256
	}

	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}
	if cfg.HTTPClient != nil {
		config.HTTPClient = cfg.HTTPClient
	}

	return &OpenAISource{
		client:  openai.NewClientWithConfig(config),
		model:   cfg.Model,
		batch:   cfg.BatchSize,
		limiter: limiter,
	}, nil
}

// Vectors embeds the vocabulary in sorted batches
func (s *OpenAISource) Vectors(ctx context.Context, vocab map[string]bool) (*WordVectors, error) {
	words := make([]string, 0, len(vocab))
	for w := range vocab {
		words = append(words, w)
	}
	sort.Strings(words)

	var table *WordVectors
	for start := 0; start < len(words); start += s.batch {
		batch := words[start:min(start+s.batch, len(words))]

		if s.limiter != nil {
			if err := s.limiter.Wait(ctx, "openai/"+s.model); err != nil {
				return nil, err
			}
		}

		resp, err := s.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Input: batch,
			Model: openai.EmbeddingModel(s.model),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create embeddings: %w", err)
		}
		if len(resp.Data) != len(batch) {
			return nil, fmt.Errorf("requested %d embeddings, got %d", len(batch), len(resp.Data))
		}

		for _, data := range resp.Data {
			if data.Index < 0 || data.Index >= len(batch) {
				return nil, fmt.Errorf("embedding index %d out of range", data.Index)
			}
			if table == nil {
				table = NewWordVectors(len(data.Embedding))
			}
			if err := table.Set(batch[data.Index], data.Embedding); err != nil {
				return nil, err
			}
		}
	}

	if table == nil {
		return NewWordVectors(0), nil
	}
	return table, nil
}
