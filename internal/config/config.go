// Package config loads pdfqa settings from a TOML file, a .env file and
// the environment, in that order of increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// Provider names.
const (
	ProviderOpenAI = "openai"
	ProviderCompat = "compat"
	ProviderLocal  = "local"
)

type Config struct {
	Server     ServerConfig     `toml:"server"`
	Embedding  EmbeddingConfig  `toml:"embedding"`
	Completion CompletionConfig `toml:"completion"`
	Index      IndexConfig      `toml:"index"`
	Query      QueryConfig      `toml:"query"`
}

type ServerConfig struct {
	Addr        string `toml:"addr"`
	StaticDir   string `toml:"static_dir"`
	MaxUploadMB int    `toml:"max_upload_mb"`
}

type EmbeddingConfig struct {
	Provider          string  `toml:"provider"`
	Model             string  `toml:"model"`
	BaseURL           string  `toml:"base_url"`
	APIKey            string  `toml:"api_key"`
	TimeoutSeconds    int     `toml:"timeout_seconds"`
	Dimensions        int     `toml:"dimensions"` // local provider only
	Concurrency       int     `toml:"concurrency"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	Retries           int     `toml:"retries"`
}

type CompletionConfig struct {
	Provider       string  `toml:"provider"`
	Model          string  `toml:"model"`
	BaseURL        string  `toml:"base_url"`
	APIKey         string  `toml:"api_key"`
	Temperature    float64 `toml:"temperature"`
	MaxTokens      int     `toml:"max_tokens"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
	Retries        int     `toml:"retries"`
}

type IndexConfig struct {
	SegmentSize    int `toml:"segment_size"`
	SegmentOverlap int `toml:"segment_overlap"`
}

type QueryConfig struct {
	TopK            int    `toml:"top_k"`
	MaxContextChars int    `toml:"max_context_chars"`
	Prompt          string `toml:"prompt"` // overrides the built-in summary prompt
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:        ":8080",
			MaxUploadMB: 10,
		},
		Embedding: EmbeddingConfig{
			Provider:       ProviderOpenAI,
			Model:          "text-embedding-3-small",
			TimeoutSeconds: 30,
			Concurrency:    4,
		},
		Completion: CompletionConfig{
			Provider:       ProviderOpenAI,
			Model:          "gpt-3.5-turbo",
			Temperature:    0.2,
			TimeoutSeconds: 60,
		},
		Index: IndexConfig{
			SegmentSize:    1000,
			SegmentOverlap: 200,
		},
		Query: QueryConfig{
			TopK:            4,
			MaxContextChars: 12000,
		},
	}
}

// Load reads path (if non-empty) over the defaults, then applies .env and
// environment overrides. A missing file at path is an error; a missing .env is not.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("load .env: %w", err)
	}
	cfg.applyEnv()

	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() {
	if v := os.Getenv("PDFQA_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		if c.Embedding.APIKey == "" {
			c.Embedding.APIKey = v
		}
		if c.Completion.APIKey == "" {
			c.Completion.APIKey = v
		}
	}
	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		if c.Embedding.BaseURL == "" {
			c.Embedding.BaseURL = v
		}
		if c.Completion.BaseURL == "" {
			c.Completion.BaseURL = v
		}
	}
}

// Validate reports every problem at once.
func (c Config) Validate() error {
	var errs []error

	switch c.Embedding.Provider {
	case ProviderOpenAI:
		if c.Embedding.APIKey == "" {
			errs = append(errs, errors.New("embedding: api_key (or OPENAI_API_KEY) is required for the openai provider"))
		}
	case ProviderCompat:
		if c.Embedding.Model == "" {
			errs = append(errs, errors.New("embedding: model is required for the compat provider"))
		}
	case ProviderLocal:
	default:
		errs = append(errs, fmt.Errorf("embedding: unknown provider %q", c.Embedding.Provider))
	}

	switch c.Completion.Provider {
	case ProviderOpenAI:
		if c.Completion.APIKey == "" {
			errs = append(errs, errors.New("completion: api_key (or OPENAI_API_KEY) is required for the openai provider"))
		}
	case ProviderCompat:
		if c.Completion.Model == "" {
			errs = append(errs, errors.New("completion: model is required for the compat provider"))
		}
	default:
		errs = append(errs, fmt.Errorf("completion: unknown provider %q", c.Completion.Provider))
	}

	if c.Completion.Temperature < 0 || c.Completion.Temperature > 2 {
		errs = append(errs, fmt.Errorf("completion: temperature %.2f out of range [0, 2]", c.Completion.Temperature))
	}
	if c.Index.SegmentSize <= 0 {
		errs = append(errs, errors.New("index: segment_size must be positive"))
	}
	if c.Index.SegmentOverlap < 0 || c.Index.SegmentOverlap >= c.Index.SegmentSize {
		errs = append(errs, errors.New("index: segment_overlap must be in [0, segment_size)"))
	}
	if c.Query.TopK <= 0 {
		errs = append(errs, errors.New("query: top_k must be positive"))
	}
	if c.Embedding.Retries < 0 || c.Completion.Retries < 0 {
		errs = append(errs, errors.New("retries must not be negative"))
	}

	return errors.Join(errs...)
}

// Timeout is the per-request embedding timeout.
func (e EmbeddingConfig) Timeout() time.Duration {
	return time.Duration(e.TimeoutSeconds) * time.Second
}

// Timeout bounds a single completion call.
func (c CompletionConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// MaxUploadBytes is the multipart upload limit.
func (s ServerConfig) MaxUploadBytes() int64 {
	if s.MaxUploadMB <= 0 {
		return 10 << 20
	}
	return int64(s.MaxUploadMB) << 20
}
