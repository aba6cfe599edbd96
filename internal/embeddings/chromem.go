package embeddings

import (
	"context"
	"errors"
	"fmt"

	chromem "github.com/philippgille/chromem-go"
)

// ErrEmptyEmbedding is returned when a provider answers without a vector.
var ErrEmptyEmbedding = errors.New("embedding provider returned no vector")

// ChromemFunc adapts e to chromem's one-text-at-a-time embedding function.
// Vectors whose length differs from e.Dimensions are rejected so that a
// misconfigured model cannot poison the collection.
func ChromemFunc(e Embedder) chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		vecs, err := e.Embed(ctx, []string{text})
		if err != nil {
			return nil, err
		}
		if len(vecs) == 0 || len(vecs[0]) == 0 {
			return nil, fmt.Errorf("%s: %w", e.Name(), ErrEmptyEmbedding)
		}
		if d := e.Dimensions(); d > 0 && len(vecs[0]) != d {
			return nil, fmt.Errorf("%s: got %d dimensions, want %d", e.Name(), len(vecs[0]), d)
		}
		return vecs[0], nil
	}
}
