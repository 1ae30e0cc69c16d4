package rag

import (
	"time"

	"github.com/google/uuid"
)

// Document is an uploaded file before extraction.
type Document struct {
	ID      string
	Name    string // filename
	Content []byte
}

// NewDocument wraps raw upload bytes with a fresh ID.
func NewDocument(name string, content []byte) Document {
	return Document{
		ID:      uuid.New().String(),
		Name:    name,
		Content: content,
	}
}

// Segment is a contiguous span of a document's extracted text.
// Start and End are rune offsets into that text.
type Segment struct {
	ID         string
	DocumentID string
	Seq        int
	Start      int
	End        int
	Text       string
}

// ScoredSegment is a similarity search hit
type ScoredSegment struct {
	Segment Segment
	Score   float64
}

// ModelParams are passed through to the completion provider.
type ModelParams struct {
	Model       string
	Temperature float64
	MaxTokens   int
}

// QueryResult is the outcome of one prompt against one index.
type QueryResult struct {
	Prompt    string
	Retrieved []ScoredSegment // descending similarity
	Used      int             // leading Retrieved entries that fit in the context budget
	Answer    string
	Model     string
	Document  string
	CreatedAt time.Time
}
