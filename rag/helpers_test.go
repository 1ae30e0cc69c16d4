package rag

import (
	"context"
	"strings"
	"sync"
)

// keywordEmbedder maps text to a vector of keyword counts, which makes
// similarity scores easy to reason about in tests.
type keywordEmbedder struct {
	model string
	words []string
	hook  func(ctx context.Context, text string) error
}

func newKeywordEmbedder(words ...string) *keywordEmbedder {
	return &keywordEmbedder{model: "keywords", words: words}
}

func (e *keywordEmbedder) Model() string { return e.model }

func (e *keywordEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	if e.hook != nil {
		if err := e.hook(ctx, text); err != nil {
			return nil, err
		}
	}
	vec := make([]float64, len(e.words))
	for _, tok := range strings.Fields(strings.ToLower(text)) {
		for i, w := range e.words {
			if tok == w {
				vec[i]++
			}
		}
	}
	return vec, nil
}

// threeTopics splits into exactly three single-topic segments with a 12-rune splitter.
const threeTopics = "alpha alpha beta beta gamma gamma"

func threeTopicSplitter() *Splitter {
	return NewSplitter(WithSegmentSize(12), WithOverlap(0))
}

type fakeCompleter struct {
	mu      sync.Mutex
	answer  string
	err     error
	prompts []string

	entered chan struct{} // closed on first call when non-nil
	once    sync.Once
	release chan struct{} // when non-nil, Complete waits for it or ctx
}

func (c *fakeCompleter) Complete(ctx context.Context, prompt string, _ ModelParams) (string, error) {
	c.mu.Lock()
	c.prompts = append(c.prompts, prompt)
	c.mu.Unlock()

	if c.entered != nil {
		c.once.Do(func() { close(c.entered) })
	}
	if c.release != nil {
		select {
		case <-c.release:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return c.answer, c.err
}

func (c *fakeCompleter) lastPrompt() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.prompts) == 0 {
		return ""
	}
	return c.prompts[len(c.prompts)-1]
}

// reconstruct rebuilds the source text from segments by skipping each
// segment's overlap with its predecessor.
func reconstruct(segments []Segment) string {
	var sb strings.Builder
	prevEnd := 0
	for _, s := range segments {
		r := []rune(s.Text)
		skip := prevEnd - s.Start
		if skip < 0 {
			skip = 0
		}
		if skip < len(r) {
			sb.WriteString(string(r[skip:]))
		}
		prevEnd = s.End
	}
	return sb.String()
}
