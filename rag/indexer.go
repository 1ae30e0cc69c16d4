package rag

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"pdfqa/internal/logger"
)

// DefaultConcurrency is the number of embedding calls in flight during ingest.
const DefaultConcurrency = 4

// Indexer converts one Document into an Index. It keeps no state between
// calls; replacing the active index is the caller's job (see Session).
type Indexer struct {
	splitter    *Splitter
	embedder    Embedder
	concurrency int
	limiter     *rate.Limiter
}

type IndexerOption func(*Indexer)

func WithSplitter(s *Splitter) IndexerOption {
	return func(ix *Indexer) {
		if s != nil {
			ix.splitter = s
		}
	}
}

// WithConcurrency bounds parallel embedding calls.
func WithConcurrency(n int) IndexerOption {
	return func(ix *Indexer) {
		if n > 0 {
			ix.concurrency = n
		}
	}
}

// WithRateLimit throttles embedding calls to rps requests per second.
// Zero or negative disables throttling.
func WithRateLimit(rps float64) IndexerOption {
	return func(ix *Indexer) {
		if rps > 0 {
			ix.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// NewIndexer returns an indexer that embeds with embedder.
func NewIndexer(embedder Embedder, opts ...IndexerOption) *Indexer {
	ix := &Indexer{
		splitter:    NewSplitter(),
		embedder:    embedder,
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

// Ingest extracts, segments and embeds doc. On any failure no index is
// returned, so a previously held index stays valid.
func (ix *Indexer) Ingest(ctx context.Context, doc Document) (*Index, error) {
	started := time.Now()

	text, err := ExtractText(doc)
	if err != nil {
		return nil, err
	}

	segments := ix.splitter.Split(doc.ID, text)
	logger.Debug("ingest %s: %d runes, %d segments (size=%d overlap=%d)",
		doc.Name, len([]rune(text)), len(segments), ix.splitter.Size(), ix.splitter.Overlap())

	embeddings, err := ix.embedAll(ctx, segments)
	if err != nil {
		return nil, err
	}

	idx, err := newIndex(doc, ix.embedder.Model(), segments, embeddings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEmbedding, err)
	}

	logger.Info("indexed %s: %d segments, dim=%d, model=%s in %s",
		doc.Name, idx.Len(), idx.Dimension(), idx.Model(), time.Since(started).Round(time.Millisecond))
	return idx, nil
}

// embedAll embeds every segment with bounded parallelism. The first
// failure cancels the outstanding calls.
func (ix *Indexer) embedAll(parent context.Context, segments []Segment) ([][]float64, error) {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	embeddings := make([][]float64, len(segments))
	sem := make(chan struct{}, ix.concurrency)

	var (
		wg       sync.WaitGroup
		once     sync.Once
		firstErr error
	)
	fail := func(err error) {
		once.Do(func() {
			firstErr = err
			cancel()
		})
	}

loop:
	for i := range segments {
		select {
		case <-ctx.Done():
			break loop
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()

			if ix.limiter != nil {
				if err := ix.limiter.Wait(ctx); err != nil {
					fail(err)
					return
				}
			}

			vec, err := ix.embedder.Embed(ctx, segments[i].Text)
			if err == nil {
				err = checkVector(vec)
			}
			if err != nil {
				fail(fmt.Errorf("segment %d: %w", segments[i].Seq, err))
				return
			}
			embeddings[i] = vec
		}(i)
	}
	wg.Wait()

	if err := parent.Err(); err != nil {
		return nil, fmt.Errorf("ingest cancelled: %w", err)
	}
	if firstErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrEmbedding, firstErr)
	}
	return embeddings, nil
}

var errMalformedVector = errors.New("malformed embedding")

func checkVector(v []float64) error {
	if len(v) == 0 {
		return fmt.Errorf("%w: empty vector", errMalformedVector)
	}
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return fmt.Errorf("%w: non-finite value", errMalformedVector)
		}
	}
	return nil
}
