package embedding

import (
	"context"
	"fmt"
)

// MockEmbedder maps each rune of a text onto a fixed-size vector. It is
// deterministic and needs no network, which makes it useful for tests and dry runs.
type MockEmbedder struct {
	dimension int
}

func NewMockEmbedder(dimension int) *MockEmbedder {
	if dimension <= 0 {
		dimension = 16
	}
	return &MockEmbedder{dimension: dimension}
}

func (e *MockEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		v := make([]float32, e.dimension)
		j := 0
		for _, r := range text {
			v[j%e.dimension] += float32(r) / 1000.0
			j++
		}
		embeddings[i] = v
	}
	return embeddings, nil
}

func (e *MockEmbedder) Dimension() int {
	return e.dimension
}

func (e *MockEmbedder) ModelName() string {
	return fmt.Sprintf("mock-%d", e.dimension)
}
