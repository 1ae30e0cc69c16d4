package rag

import (
	"strconv"
	"unicode"
)

const (
	// DefaultSegmentSize is the maximum number of runes per segment.
	DefaultSegmentSize = 1000

	// DefaultSegmentOverlap is the number of runes shared by neighbouring segments.
	DefaultSegmentOverlap = 200
)

// Splitter cuts extracted text into bounded, overlapping segments.
type Splitter struct {
	size    int
	overlap int
}

// SplitOption configures a Splitter.
type SplitOption func(*Splitter)

// WithSegmentSize sets the maximum segment length in runes.
func WithSegmentSize(size int) SplitOption {
	return func(s *Splitter) {
		if size > 0 {
			s.size = size
		}
	}
}

// WithOverlap sets the overlap between consecutive segments in runes.
func WithOverlap(overlap int) SplitOption {
	return func(s *Splitter) {
		if overlap >= 0 {
			s.overlap = overlap
		}
	}
}

// NewSplitter returns a splitter with the default size and overlap unless
// overridden. An overlap that does not fit inside a segment is clamped.
func NewSplitter(opts ...SplitOption) *Splitter {
	s := &Splitter{
		size:    DefaultSegmentSize,
		overlap: DefaultSegmentOverlap,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.overlap >= s.size {
		s.overlap = s.size / 4
	}
	return s
}

func (s *Splitter) Size() int    { return s.size }
func (s *Splitter) Overlap() int { return s.overlap }

// Split returns the segments of text in order. A window that stops short of
// the end is pulled back to the last whitespace in its second half, and the
// next window starts overlap runes before the previous end.
func (s *Splitter) Split(documentID, text string) []Segment {
	runes := []rune(text)
	n := len(runes)

	var segments []Segment
	start := 0
	for start < n {
		end := start + s.size
		if end >= n {
			end = n
		} else {
			for j := end; j > start+s.size/2; j-- {
				if unicode.IsSpace(runes[j-1]) {
					end = j
					break
				}
			}
		}

		segments = append(segments, Segment{
			ID:         documentID + "-" + strconv.Itoa(len(segments)),
			DocumentID: documentID,
			Seq:        len(segments),
			Start:      start,
			End:        end,
			Text:       string(runes[start:end]),
		})

		if end == n {
			break
		}
		next := end - s.overlap
		if next <= start {
			next = end
		}
		start = next
	}
	return segments
}
