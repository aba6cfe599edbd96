package embeddings

import (
	"context"
	"fmt"
)

// Embedder defines the interface for generating text embeddings.
type Embedder interface {
	// Embed generates embeddings for one or more texts, in input order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the number of dimensions in the embedding vectors,
	// or 0 when it is not known until the first call.
	Dimensions() int

	// Name returns "<provider>/<model>". Index snapshots are keyed by it.
	Name() string
}

// checkBatch rejects responses that would silently corrupt an index.
func checkBatch(provider string, got [][]float32, want int) error {
	if len(got) != want {
		return fmt.Errorf("%s returned %d embeddings, expected %d", provider, len(got), want)
	}
	dims := -1
	for i, v := range got {
		if len(v) == 0 {
			return fmt.Errorf("%s returned an empty embedding at position %d", provider, i)
		}
		if dims >= 0 && len(v) != dims {
			return fmt.Errorf("%s returned mixed dimensions (%d and %d)", provider, dims, len(v))
		}
		dims = len(v)
	}
	return nil
}
