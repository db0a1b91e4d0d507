// Package embedding turns text into fixed-length vectors through a hosted
// model.
package embedding

import (
	"context"
	"fmt"
)

// DefaultDimensions is the output size of text-embedding-004.
const DefaultDimensions = 768

// Embedder returns one vector per input text, in input order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// EmbedOne embeds a single text.
func EmbedOne(ctx context.Context, e Embedder, text string) ([]float32, error) {
	vecs, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("embedding: expected 1 vector, got %d", len(vecs))
	}
	return vecs[0], nil
}

// CheckDimensions fails on the first vector whose length is not dim.
func CheckDimensions(vecs [][]float32, dim int) error {
	for i, v := range vecs {
		if len(v) != dim {
			return fmt.Errorf("embedding: vector %d has %d dimensions, want %d", i, len(v), dim)
		}
	}
	return nil
}
