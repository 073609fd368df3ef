package model

import (
	"fmt"
	"time"
)

// Ranking strategies
const (
	StrategyTfIdf     = "tfidf"
	StrategyEmbedding = "embedding"
	StrategyCombined  = "combined"
)

// Word vector providers
const (
	VectorsFile   = "file"
	VectorsOpenAI = "openai"
	VectorsOllama = "ollama"
)

// Config is the complete paraqa configuration
type Config struct {
	Selection   SelectionConfig   `yaml:"selection" mapstructure:"selection"`
	Vectors     VectorsConfig     `yaml:"vectors" mapstructure:"vectors"`
	HTTP        HTTPConfig        `yaml:"http" mapstructure:"http"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Output      OutputConfig      `yaml:"output" mapstructure:"output"`
}

// SelectionConfig controls ranking and evidence selection
type SelectionConfig struct {
	K           int    `yaml:"k" mapstructure:"k"`                       // paragraphs selected per question
	ForceAnswer bool   `yaml:"force_answer" mapstructure:"force_answer"` // always include the gold paragraph
	Strategy    string `yaml:"strategy" mapstructure:"strategy"`         // tfidf, embedding, combined
	Window      int    `yaml:"window" mapstructure:"window"`             // max tokens per paragraph, 0 = no truncation
	Single      bool   `yaml:"single" mapstructure:"single"`             // gold paragraph only, no ranking
	Train       bool   `yaml:"train" mapstructure:"train"`               // carry question weights
	StopWords   string `yaml:"stop_words,omitempty" mapstructure:"stop_words"` // one word per line, default English list
}

// VectorsConfig locates the pre-trained word vectors used by the embedding strategy
type VectorsConfig struct {
	Provider          string        `yaml:"provider" mapstructure:"provider"` // file, openai, ollama
	Path              string        `yaml:"path,omitempty" mapstructure:"path"`
	Model             string        `yaml:"model,omitempty" mapstructure:"model"`
	APIKey            string        `yaml:"-" mapstructure:"api_key"`
	BaseURL           string        `yaml:"base_url,omitempty" mapstructure:"base_url"`
	BatchSize         int           `yaml:"batch_size" mapstructure:"batch_size"`
	RequestsPerSecond float64       `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int           `yaml:"burst" mapstructure:"burst"`
	Timeout           time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// HTTPConfig applies to every outbound request: page fetches and the
// embeddings API
type HTTPConfig struct {
	Timeout       time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent     string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes  int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	RespectRobots bool          `yaml:"respect_robots" mapstructure:"respect_robots"`
	HTTPProxy     string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy    string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy       string        `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// ConcurrencyConfig sizes the per-document worker pool
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// CacheConfig controls score matrix caching
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// OutputConfig controls reporting
type OutputConfig struct {
	Verbose bool `yaml:"verbose" mapstructure:"verbose"`
}

// DefaultConfig returns the defaults used when no config file is present
func DefaultConfig() *Config {
	return &Config{
		Selection: SelectionConfig{
			K:           4,
			ForceAnswer: true,
			Strategy:    StrategyTfIdf,
		},
		Vectors: VectorsConfig{
			Provider:          VectorsFile,
			Model:             "text-embedding-3-small",
			BatchSize:         256,
			RequestsPerSecond: 2,
			Burst:             2,
			Timeout:           30 * time.Second,
		},
		HTTP: HTTPConfig{
			Timeout:       15 * time.Second,
			UserAgent:     "paraqa/0.1 (+https://github.com/ppiankov/paraqa)",
			MaxBodyBytes:  5 << 20,
			RespectRobots: true,
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
		Cache: CacheConfig{
			Enabled:   false,
			Dir:       ".paraqa-cache",
			MemoryTTL: time.Hour,
			DiskTTL:   7 * 24 * time.Hour,
		},
	}
}

// NeedsVectors reports whether the configured strategy reads word vectors
func (c *Config) NeedsVectors() bool {
	if c.Selection.Single {
		return false
	}
	return c.Selection.Strategy == StrategyEmbedding || c.Selection.Strategy == StrategyCombined
}

// Validate checks the configuration before any document is processed
func (c *Config) Validate() error {
	s := c.Selection
	if s.K < 0 {
		return &ConfigError{Field: "selection.k", Reason: fmt.Sprintf("must be >= 0, got %d", s.K)}
	}
	if s.K == 0 && s.ForceAnswer && !s.Single {
		return &ConfigError{Field: "selection.k", Reason: "force_answer needs at least one evidence slot (k >= 1)"}
	}
	if s.Window < 0 {
		return &ConfigError{Field: "selection.window", Reason: fmt.Sprintf("must be >= 0, got %d", s.Window)}
	}
	switch s.Strategy {
	case StrategyTfIdf, StrategyEmbedding, StrategyCombined:
	default:
		return &ConfigError{Field: "selection.strategy", Reason: fmt.Sprintf("unknown strategy %q (supported: tfidf, embedding, combined)", s.Strategy)}
	}

	if c.NeedsVectors() {
		switch c.Vectors.Provider {
		case VectorsFile:
			if c.Vectors.Path == "" {
				return &ConfigError{Field: "vectors.path", Reason: "strategy " + s.Strategy + " needs a word vector file"}
			}
		case VectorsOpenAI:
			if c.Vectors.APIKey == "" {
				return &ConfigError{Field: "vectors.api_key", Reason: "OPENAI_API_KEY is not set"}
			}
			if c.Vectors.BatchSize <= 0 {
				return &ConfigError{Field: "vectors.batch_size", Reason: "must be > 0"}
			}
		case VectorsOllama:
			if c.Vectors.Model == "" {
				return &ConfigError{Field: "vectors.model", Reason: "ollama needs an embedding model"}
			}
		default:
			return &ConfigError{Field: "vectors.provider", Reason: fmt.Sprintf("unknown provider %q (supported: file, openai, ollama)", c.Vectors.Provider)}
		}
	}

	if c.HTTP.MaxBodyBytes <= 0 {
		return &ConfigError{Field: "http.max_body_bytes", Reason: "must be > 0"}
	}
	if c.Concurrency.Workers < 1 {
		return &ConfigError{Field: "concurrency.workers", Reason: "must be >= 1"}
	}
	return nil
}
