package rag

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSplit_EmptyInput(t *testing.T) {
	segments := NewSplitter().Split("empty", "")

	if len(segments) != 0 {
		t.Fatalf("expected 0 segments for empty input, got %d", len(segments))
	}
}

func TestSplit_ThreeTopics(t *testing.T) {
	segments := threeTopicSplitter().Split("doc", threeTopics)

	if len(segments) != 3 {
		t.Fatalf("expected 3 segments, got %d: %v", len(segments), segments)
	}
	want := []string{"alpha alpha ", "beta beta ", "gamma gamma"}
	for i, s := range segments {
		if s.Text != want[i] {
			t.Errorf("segment %d: expected %q, got %q", i, want[i], s.Text)
		}
		if s.Seq != i {
			t.Errorf("segment %d: expected seq %d, got %d", i, i, s.Seq)
		}
		if s.DocumentID != "doc" {
			t.Errorf("segment %d: expected document 'doc', got %s", i, s.DocumentID)
		}
	}
	if segments[1].ID != "doc-1" {
		t.Fatalf("expected id doc-1, got %s", segments[1].ID)
	}
}

func TestSplit_ReconstructsText(t *testing.T) {
	texts := []string{
		"short",
		strings.Repeat("x", 2500),
		strings.Repeat("Patient reports mild headache. BP 120/80. ", 80),
		strings.Repeat("Prüfung ärztlicher Befunde – 血压正常。 ", 60),
		"no-spaces-at-all-" + strings.Repeat("abcdefghij", 40),
	}
	configs := []struct{ size, overlap int }{
		{1000, 200},
		{100, 20},
		{37, 0},
		{10, 9},
		{64, 63},
	}

	for _, text := range texts {
		for _, c := range configs {
			sp := NewSplitter(WithSegmentSize(c.size), WithOverlap(c.overlap))
			segments := sp.Split("d", text)

			if got := reconstruct(segments); got != text {
				t.Fatalf("size=%d overlap=%d: reconstruction mismatch\nwant %q\ngot  %q", c.size, c.overlap, text, got)
			}
			for _, s := range segments {
				if n := utf8.RuneCountInString(s.Text); n > sp.Size() || n == 0 {
					t.Fatalf("size=%d: segment %d has %d runes", c.size, s.Seq, n)
				}
			}
		}
	}
}

func TestSplit_OverlapSharedBetweenNeighbours(t *testing.T) {
	text := strings.Repeat("word ", 100)
	segments := NewSplitter(WithSegmentSize(50), WithOverlap(10)).Split("d", text)

	if len(segments) < 2 {
		t.Fatalf("expected multiple segments, got %d", len(segments))
	}
	for i := 1; i < len(segments); i++ {
		prev, cur := segments[i-1], segments[i]
		if cur.Start != prev.End-10 {
			t.Fatalf("segment %d starts at %d, expected %d", i, cur.Start, prev.End-10)
		}
	}
}

func TestSplit_PrefersWhitespaceBoundary(t *testing.T) {
	segments := NewSplitter(WithSegmentSize(20), WithOverlap(0)).Split("d", "vital signs stable today overall")

	if !strings.HasSuffix(segments[0].Text, " ") {
		t.Fatalf("expected first segment to end at a word boundary, got %q", segments[0].Text)
	}
}

func TestNewSplitter_Options(t *testing.T) {
	sp := NewSplitter()
	if sp.Size() != DefaultSegmentSize || sp.Overlap() != DefaultSegmentOverlap {
		t.Fatalf("unexpected defaults %d/%d", sp.Size(), sp.Overlap())
	}

	sp = NewSplitter(WithSegmentSize(100), WithOverlap(150))
	if sp.Overlap() >= sp.Size() {
		t.Fatalf("overlap should be reduced when it exceeds size, got %d", sp.Overlap())
	}

	sp = NewSplitter(WithSegmentSize(0), WithOverlap(-1))
	if sp.Size() != DefaultSegmentSize || sp.Overlap() != DefaultSegmentOverlap {
		t.Fatalf("invalid options should be ignored, got %d/%d", sp.Size(), sp.Overlap())
	}
}
