package main

import (
	"fmt"

	"pdfqa/internal/config"
	"pdfqa/internal/logger"
	"pdfqa/rag"
)

func newEmbedder(cfg config.EmbeddingConfig) (rag.Embedder, error) {
	var (
		e   rag.Embedder
		err error
	)
	switch cfg.Provider {
	case config.ProviderOpenAI:
		e, err = rag.NewOpenAIEmbedder(rag.OpenAIConfig{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			Timeout: cfg.Timeout(),
		})
	case config.ProviderCompat:
		e, err = rag.NewCompatEmbedder(rag.CompatConfig{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			Timeout: cfg.Timeout(),
		})
	case config.ProviderLocal:
		e = rag.NewLocalEmbedder(cfg.Dimensions)
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	if cfg.Retries > 0 {
		e = rag.NewRetryEmbedder(e, rag.DefaultBackoff(cfg.Retries))
	}
	return e, nil
}

func newCompleter(cfg config.CompletionConfig) (rag.Completer, error) {
	var (
		c   rag.Completer
		err error
	)
	switch cfg.Provider {
	case config.ProviderOpenAI:
		c, err = rag.NewOpenAICompleter(rag.OpenAIConfig{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			Timeout: cfg.Timeout(),
		})
	case config.ProviderCompat:
		c, err = rag.NewCompatCompleter(rag.CompatConfig{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			Timeout: cfg.Timeout(),
		})
	default:
		return nil, fmt.Errorf("unknown completion provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	if cfg.Retries > 0 {
		c = rag.NewRetryCompleter(c, rag.DefaultBackoff(cfg.Retries))
	}
	return c, nil
}

// newSession assembles indexer and engine from cfg. The completer is
// passed in so tests can substitute a fake.
func newSession(cfg config.Config, embedder rag.Embedder, completer rag.Completer) *rag.Session {
	indexer := rag.NewIndexer(embedder,
		rag.WithSplitter(rag.NewSplitter(
			rag.WithSegmentSize(cfg.Index.SegmentSize),
			rag.WithOverlap(cfg.Index.SegmentOverlap),
		)),
		rag.WithConcurrency(cfg.Embedding.Concurrency),
		rag.WithRateLimit(cfg.Embedding.RequestsPerSecond),
	)
	engine := rag.NewEngine(embedder, completer,
		rag.WithModelParams(rag.ModelParams{
			Model:       cfg.Completion.Model,
			Temperature: cfg.Completion.Temperature,
			MaxTokens:   cfg.Completion.MaxTokens,
		}),
		rag.WithMaxContextChars(cfg.Query.MaxContextChars),
		rag.WithCompletionTimeout(cfg.Completion.Timeout()),
	)
	return rag.NewSession(indexer, engine, cfg.Query.TopK)
}

func buildSession(cfg config.Config) (*rag.Session, error) {
	embedder, err := newEmbedder(cfg.Embedding)
	if err != nil {
		return nil, fmt.Errorf("embedding provider: %w", err)
	}
	completer, err := newCompleter(cfg.Completion)
	if err != nil {
		return nil, fmt.Errorf("completion provider: %w", err)
	}
	logger.Debug("embedding: %s, completion: %s/%s", embedder.Model(), cfg.Completion.Provider, cfg.Completion.Model)
	return newSession(cfg, embedder, completer), nil
}
