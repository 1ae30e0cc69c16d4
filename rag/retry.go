package rag

import (
	"context"
	"time"

	"pdfqa/internal/logger"
)

// Backoff is a bounded exponential retry policy for temporary provider errors.
type Backoff struct {
	Retries int
	Initial time.Duration
	Max     time.Duration
}

// DefaultBackoff returns a policy with n retries starting at 500ms, capped at 8s.
func DefaultBackoff(n int) Backoff {
	return Backoff{Retries: n, Initial: 500 * time.Millisecond, Max: 8 * time.Second}
}

func (b Backoff) delay(attempt int) time.Duration {
	if attempt > 30 {
		return b.Max
	}
	d := b.Initial << attempt
	if d <= 0 || (b.Max > 0 && d > b.Max) {
		d = b.Max
	}
	return d
}

func withRetry[T any](ctx context.Context, b Backoff, what string, call func(context.Context) (T, error)) (T, error) {
	var (
		out T
		err error
	)
	for attempt := 0; ; attempt++ {
		out, err = call(ctx)
		if err == nil || attempt >= b.Retries || !IsTemporary(err) {
			return out, err
		}

		wait := b.delay(attempt)
		logger.Debug("%s failed (attempt %d/%d), retrying in %s: %v", what, attempt+1, b.Retries+1, wait, err)
		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return out, err
		case <-t.C:
		}
	}
}

// RetryEmbedder retries temporary failures of the wrapped Embedder.
type RetryEmbedder struct {
	next    Embedder
	backoff Backoff
}

func NewRetryEmbedder(next Embedder, b Backoff) *RetryEmbedder {
	return &RetryEmbedder{next: next, backoff: b}
}

func (r *RetryEmbedder) Model() string { return r.next.Model() }

func (r *RetryEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	return withRetry(ctx, r.backoff, "embed", func(ctx context.Context) ([]float64, error) {
		return r.next.Embed(ctx, text)
	})
}

// RetryCompleter retries temporary failures of the wrapped Completer.
type RetryCompleter struct {
	next    Completer
	backoff Backoff
}

func NewRetryCompleter(next Completer, b Backoff) *RetryCompleter {
	return &RetryCompleter{next: next, backoff: b}
}

func (r *RetryCompleter) Complete(ctx context.Context, prompt string, params ModelParams) (string, error) {
	return withRetry(ctx, r.backoff, "complete", func(ctx context.Context) (string, error) {
		return r.next.Complete(ctx, prompt, params)
	})
}
