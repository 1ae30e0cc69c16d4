package rag

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

// Embedder turns text into a vector. Model names the embedding space;
// vectors from different models must never be compared.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
	Model() string
}

// Completer produces an answer for a fully assembled prompt.
type Completer interface {
	Complete(ctx context.Context, prompt string, params ModelParams) (string, error)
}

// DefaultLocalDimensions is the vector size of the local embedder.
const DefaultLocalDimensions = 256

// LocalEmbedder is a deterministic, offline embedder based on feature
// hashing of lower-cased word tokens. Good enough for demos and tests.
type LocalEmbedder struct {
	dim int
}

// NewLocalEmbedder returns a hashing embedder. dimensions <= 0 uses DefaultLocalDimensions.
func NewLocalEmbedder(dimensions int) *LocalEmbedder {
	if dimensions <= 0 {
		dimensions = DefaultLocalDimensions
	}
	return &LocalEmbedder{dim: dimensions}
}

func (e *LocalEmbedder) Model() string {
	return fmt.Sprintf("local-hash-%d", e.dim)
}

func (e *LocalEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	vec := make([]float64, e.dim)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		h := fnv.New64a()
		h.Write([]byte(w))
		sum := h.Sum64()
		// top bit picks the sign so unrelated words cancel out on average
		sign := 1.0
		if sum>>63 == 1 {
			sign = -1.0
		}
		vec[sum%uint64(e.dim)] += sign
	}
	normalize(vec)
	return vec, nil
}

// normalize scales v to unit length in place
func normalize(v []float64) {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	if sum == 0 {
		return
	}
	inv := 1 / math.Sqrt(sum)
	for i := range v {
		v[i] *= inv
	}
}
