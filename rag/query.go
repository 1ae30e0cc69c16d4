package rag

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"pdfqa/internal/logger"
)

const (
	// DefaultTopK is the number of segments retrieved per prompt.
	DefaultTopK = 4

	// DefaultMaxContextChars bounds the grounded prompt in runes.
	DefaultMaxContextChars = 12000

	// DefaultCompletionTimeout bounds a single completion call.
	DefaultCompletionTimeout = 60 * time.Second
)

// Engine answers prompts against an Index. It never mutates the index.
type Engine struct {
	embedder  Embedder
	completer Completer
	params    ModelParams
	maxChars  int
	timeout   time.Duration
}

type EngineOption func(*Engine)

func WithModelParams(p ModelParams) EngineOption {
	return func(e *Engine) { e.params = p }
}

// WithMaxContextChars sets the grounded prompt budget. Zero or less disables it.
func WithMaxContextChars(n int) EngineOption {
	return func(e *Engine) { e.maxChars = n }
}

func WithCompletionTimeout(d time.Duration) EngineOption {
	return func(e *Engine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// NewEngine builds an engine. embedder must be the same model that built
// the indexes it will query.
func NewEngine(embedder Embedder, completer Completer, opts ...EngineOption) *Engine {
	e := &Engine{
		embedder:  embedder,
		completer: completer,
		maxChars:  DefaultMaxContextChars,
		timeout:   DefaultCompletionTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Retrieve returns the min(k, idx.Len()) segments most similar to prompt.
// k <= 0 means every segment.
func (e *Engine) Retrieve(ctx context.Context, idx *Index, prompt string, k int) ([]ScoredSegment, error) {
	if idx == nil {
		return nil, ErrNoDocument
	}
	if strings.TrimSpace(prompt) == "" {
		return nil, fmt.Errorf("%w: prompt is required", ErrInvalidInput)
	}
	if m := e.embedder.Model(); m != idx.Model() {
		return nil, fmt.Errorf("%w: index built with %q, querying with %q", ErrEmbeddingMismatch, idx.Model(), m)
	}

	vec, err := e.embedder.Embed(ctx, prompt)
	if err == nil {
		err = checkVector(vec)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: prompt: %w", ErrEmbedding, err)
	}
	return idx.Search(vec, k)
}

// Query retrieves context for prompt and asks the completer for an answer.
// Errors are returned as-is; nothing is retried here.
func (e *Engine) Query(ctx context.Context, idx *Index, prompt string, k int) (*QueryResult, error) {
	hits, err := e.Retrieve(ctx, idx, prompt, k)
	if err != nil {
		return nil, err
	}

	grounded, used := BuildPrompt(prompt, hits, e.maxChars)
	if used < len(hits) {
		logger.Debug("context budget %d: dropped %d of %d segments", e.maxChars, len(hits)-used, len(hits))
	}

	cctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	started := time.Now()
	answer, err := e.completer.Complete(cctx, grounded, e.params)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCompletion, err)
	}
	if strings.TrimSpace(answer) == "" {
		return nil, fmt.Errorf("%w: empty response", ErrCompletion)
	}
	logger.Debug("completion from %s in %s (%d prompt runes)",
		e.params.Model, time.Since(started).Round(time.Millisecond), utf8.RuneCountInString(grounded))

	return &QueryResult{
		Prompt:    prompt,
		Retrieved: hits,
		Used:      used,
		Answer:    answer,
		Model:     e.params.Model,
		Document:  idx.DocumentName(),
		CreatedAt: time.Now(),
	}, nil
}

const groundingHeader = "Use the document excerpts below to answer. If they do not contain the answer, say so explicitly.\n\n"

// BuildPrompt renders the grounded prompt and reports how many hits it
// includes. Hits are dropped from the end (lowest similarity) until the
// prompt fits in maxChars runes; the question itself is never cut.
func BuildPrompt(question string, hits []ScoredSegment, maxChars int) (string, int) {
	for n := len(hits); ; n-- {
		p := renderPrompt(question, hits[:n])
		if n == 0 || maxChars <= 0 || utf8.RuneCountInString(p) <= maxChars {
			return p, n
		}
	}
}

func renderPrompt(question string, hits []ScoredSegment) string {
	var sb strings.Builder
	if len(hits) > 0 {
		sb.WriteString(groundingHeader)
		for i, h := range hits {
			fmt.Fprintf(&sb, "[%d]\n%s\n\n", i+1, strings.TrimSpace(h.Segment.Text))
		}
	}
	sb.WriteString("Question:\n")
	sb.WriteString(strings.TrimSpace(question))
	sb.WriteString("\n")
	return sb.String()
}
