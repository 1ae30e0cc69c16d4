package rag

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrParse means the document bytes could not be turned into text.
	ErrParse = errors.New("document could not be parsed")

	// ErrEmbedding means the embedding provider failed or returned unusable vectors.
	ErrEmbedding = errors.New("embedding failed")

	// ErrEmbeddingMismatch means a query vector does not live in the index's embedding space.
	ErrEmbeddingMismatch = errors.New("embedding model mismatch")

	// ErrCompletion means no answer could be produced.
	ErrCompletion = errors.New("completion failed")

	// ErrNoDocument means nothing has been ingested yet.
	ErrNoDocument = errors.New("no document ingested")

	// ErrInvalidInput indicates malformed or missing input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrSuperseded means a newer document was installed while this one was indexing.
	ErrSuperseded = errors.New("document superseded by a newer upload")
)

// ProviderError is a failure reported by an upstream embedding or completion service.
type ProviderError struct {
	Provider   string
	Op         string
	StatusCode int // 0 when no HTTP response was received
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s: status %d: %v", e.Provider, e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Provider, e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Temporary reports whether retrying the call could succeed.
func (e *ProviderError) Temporary() bool {
	if errors.Is(e.Err, context.Canceled) {
		return false
	}
	switch {
	case e.StatusCode == 0:
		return true
	case e.StatusCode == http.StatusRequestTimeout, e.StatusCode == http.StatusTooManyRequests:
		return true
	case e.StatusCode >= 500:
		return true
	}
	return false
}

// IsTemporary reports whether err wraps a retryable ProviderError.
func IsTemporary(err error) bool {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Temporary()
	}
	return false
}
