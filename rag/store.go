package rag

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// Index is the searchable snapshot of one document. It is never mutated
// after construction, so it can be shared freely between goroutines.
type Index struct {
	documentID string
	name       string
	model      string
	dim        int
	segments   []Segment
	embeddings [][]float64
	created    time.Time
}

func newIndex(doc Document, model string, segments []Segment, embeddings [][]float64) (*Index, error) {
	if len(segments) != len(embeddings) {
		return nil, fmt.Errorf("%d segments but %d embeddings", len(segments), len(embeddings))
	}
	dim := 0
	if len(embeddings) > 0 {
		dim = len(embeddings[0])
	}
	for i, e := range embeddings {
		if len(e) != dim {
			return nil, fmt.Errorf("embedding %d has dimension %d, want %d", i, len(e), dim)
		}
	}
	return &Index{
		documentID: doc.ID,
		name:       doc.Name,
		model:      model,
		dim:        dim,
		segments:   segments,
		embeddings: embeddings,
		created:    time.Now(),
	}, nil
}

func (idx *Index) DocumentID() string   { return idx.documentID }
func (idx *Index) DocumentName() string { return idx.name }
func (idx *Index) Model() string        { return idx.model }
func (idx *Index) Dimension() int       { return idx.dim }
func (idx *Index) Len() int             { return len(idx.segments) }
func (idx *Index) CreatedAt() time.Time { return idx.created }

// Segments returns a copy of the segments in sequence order.
func (idx *Index) Segments() []Segment {
	out := make([]Segment, len(idx.segments))
	copy(out, idx.segments)
	return out
}

// cosine similarity; 0 for mismatched or zero vectors
func cosine(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// Search returns the topK most similar segments, highest score first, ties
// broken by ascending sequence number. topK outside 1..Len means all.
func (idx *Index) Search(queryEmbedding []float64, topK int) ([]ScoredSegment, error) {
	if len(queryEmbedding) != idx.dim {
		return nil, fmt.Errorf("%w: query has dimension %d, index has %d",
			ErrEmbeddingMismatch, len(queryEmbedding), idx.dim)
	}

	results := make([]ScoredSegment, len(idx.segments))
	for i, seg := range idx.segments {
		results[i] = ScoredSegment{
			Segment: seg,
			Score:   cosine(queryEmbedding, idx.embeddings[i]),
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Segment.Seq < results[j].Segment.Seq
	})

	if topK <= 0 || topK > len(results) {
		topK = len(results)
	}
	return results[:topK], nil
}
