package rag

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"pdfqa/internal/logger"
)

// Session holds the single active document index. A new ingest replaces
// the index as a whole; queries run against the snapshot they started with.
type Session struct {
	indexer *Indexer
	engine  *Engine
	topK    int

	current atomic.Pointer[Index]

	mu        sync.Mutex // guards installed
	gen       atomic.Uint64
	installed uint64
}

// NewSession returns an empty session. topK <= 0 uses DefaultTopK.
func NewSession(indexer *Indexer, engine *Engine, topK int) *Session {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Session{indexer: indexer, engine: engine, topK: topK}
}

// Current returns the active index, or nil before the first ingest.
func (s *Session) Current() *Index {
	return s.current.Load()
}

// Ingest indexes doc and makes it the active document. If it fails or is
// cancelled the previous index stays active. An ingest that started before
// one that already finished is discarded with ErrSuperseded.
func (s *Session) Ingest(ctx context.Context, doc Document) (*Index, error) {
	gen := s.gen.Add(1)

	idx, err := s.indexer.Ingest(ctx, doc)
	if err != nil {
		logger.Warn("ingest %s failed, keeping previous document: %v", doc.Name, err)
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen < s.installed {
		logger.Debug("ingest %s superseded by a newer upload", doc.Name)
		return nil, fmt.Errorf("%w: %s", ErrSuperseded, doc.Name)
	}
	s.installed = gen
	if old := s.current.Swap(idx); old != nil {
		logger.Debug("replaced %s with %s", old.DocumentName(), idx.DocumentName())
	}
	return idx, nil
}

// Query answers prompt against the current snapshot. k <= 0 uses the
// session default.
func (s *Session) Query(ctx context.Context, prompt string, k int) (*QueryResult, error) {
	return s.QueryIndex(ctx, s.current.Load(), prompt, k)
}

// QueryIndex answers prompt against idx, typically the index an Ingest
// call just returned, whether or not it is still active.
func (s *Session) QueryIndex(ctx context.Context, idx *Index, prompt string, k int) (*QueryResult, error) {
	if idx == nil {
		return nil, ErrNoDocument
	}
	if k <= 0 {
		k = s.topK
	}
	return s.engine.Query(ctx, idx, prompt, k)
}

// Summarize runs SummaryPrompt against the current document.
func (s *Session) Summarize(ctx context.Context) (*QueryResult, error) {
	return s.Query(ctx, SummaryPrompt, 0)
}
