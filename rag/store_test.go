package rag

import (
	"errors"
	"strconv"
	"testing"
)

func toyIndex(t *testing.T, embeddings ...[]float64) *Index {
	t.Helper()
	doc := Document{ID: "doc", Name: "toy.txt"}
	segments := make([]Segment, len(embeddings))
	for i := range embeddings {
		segments[i] = Segment{ID: "doc-" + strconv.Itoa(i), DocumentID: "doc", Seq: i}
	}
	idx, err := newIndex(doc, "toy", segments, embeddings)
	if err != nil {
		t.Fatalf("newIndex: %v", err)
	}
	return idx
}

func TestIndex_Search(t *testing.T) {
	// 2D toy embeddings so we can reason easily
	idx := toyIndex(t, []float64{1, 0}, []float64{0, 1})

	// query close to {1,0}
	results, err := idx.Search([]float64{0.9, 0.1}, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Segment.Seq != 0 {
		t.Fatalf("expected best match to be segment 0, got %d", results[0].Segment.Seq)
	}
}

func TestCosineSimilarity_Basic(t *testing.T) {
	a := []float64{1, 0}
	b := []float64{1, 0}
	c := []float64{0, 1}

	if got := cosine(a, b); got < 0.99 {
		t.Fatalf("expected cosine(a,b) ~ 1, got %f", got)
	}
	if got := cosine(a, c); got > 0.01 {
		t.Fatalf("expected cosine(a,c) ~ 0, got %f", got)
	}
	if got := cosine(a, []float64{0, 0}); got != 0 {
		t.Fatalf("expected 0 for zero vector, got %f", got)
	}
}

func TestIndex_SearchTopKBounds(t *testing.T) {
	idx := toyIndex(t, []float64{1, 0}, []float64{0, 1})

	for _, k := range []int{10, 0, -3} {
		res, _ := idx.Search([]float64{1, 0}, k)
		if len(res) != 2 {
			t.Fatalf("k=%d: expected 2 results, got %d", k, len(res))
		}
	}
}

func TestIndex_SearchOrderAndTies(t *testing.T) {
	idx := toyIndex(t,
		[]float64{0, 1},
		[]float64{1, 1},
		[]float64{0, 1},
		[]float64{1, 0},
		[]float64{0, 1},
	)

	res, _ := idx.Search([]float64{0, 1}, 0)

	wantSeq := []int{0, 2, 4, 1, 3}
	for i, r := range res {
		if r.Segment.Seq != wantSeq[i] {
			t.Fatalf("position %d: expected seq %d, got %d (%v)", i, wantSeq[i], r.Segment.Seq, res)
		}
		if i > 0 && r.Score > res[i-1].Score {
			t.Fatalf("scores not descending at %d", i)
		}
	}
}

func TestIndex_SearchDimensionMismatch(t *testing.T) {
	idx := toyIndex(t, []float64{1, 0})

	_, err := idx.Search([]float64{1, 0, 0}, 1)
	if !errors.Is(err, ErrEmbeddingMismatch) {
		t.Fatalf("expected ErrEmbeddingMismatch, got %v", err)
	}
}

func TestNewIndex_RejectsInconsistentDimensions(t *testing.T) {
	segments := []Segment{{Seq: 0}, {Seq: 1}}
	_, err := newIndex(Document{ID: "d"}, "m", segments, [][]float64{{1, 0}, {1}})
	if err == nil {
		t.Fatalf("expected error for mixed dimensions")
	}
}

func TestIndex_SegmentsReturnsCopy(t *testing.T) {
	idx := toyIndex(t, []float64{1})
	segs := idx.Segments()
	segs[0].Text = "mutated"

	if idx.Segments()[0].Text == "mutated" {
		t.Fatalf("index must not expose its internal slice")
	}
}
