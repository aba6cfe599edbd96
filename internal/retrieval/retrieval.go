// Package retrieval finds the passages relevant to a question, optionally
// broadening the search with model-generated rephrasings.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ziadkadry99/esg-assistant/internal/embeddings"
	"github.com/ziadkadry99/esg-assistant/internal/vectordb"
)

// ErrRetrievalFailed indicates the question itself could not be embedded or
// searched.
var ErrRetrievalFailed = errors.New("retrieval failed")

// Searcher is the read side of a vector index.
type Searcher interface {
	Query(ctx context.Context, vector []float32, k int) ([]vectordb.Result, error)
}

// Retriever returns passages for a question, most relevant first.
type Retriever interface {
	Retrieve(ctx context.Context, question string) ([]vectordb.Result, error)
}

// Direct embeds the question and queries the index once.
type Direct struct {
	index    Searcher
	embedder embeddings.Embedder
	k        int
	timeout  time.Duration
	logger   *zap.Logger
}

// NewDirect returns a Direct retriever returning k passages. timeout bounds
// the embedding call and the index query together; zero disables it.
func NewDirect(index Searcher, embedder embeddings.Embedder, k int, timeout time.Duration, logger *zap.Logger) *Direct {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Direct{index: index, embedder: embedder, k: k, timeout: timeout, logger: logger}
}

// K returns the number of passages fetched per query.
func (d *Direct) K() int { return d.k }

// Retrieve implements Retriever.
func (d *Direct) Retrieve(ctx context.Context, question string) ([]vectordb.Result, error) {
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	start := time.Now()
	vectors, err := d.embedder.Embed(ctx, []string{question})
	if err != nil {
		return nil, fmt.Errorf("%w: embedding question: %w", ErrRetrievalFailed, err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("%w: embedder returned %d vectors", ErrRetrievalFailed, len(vectors))
	}

	results, err := d.index.Query(ctx, vectors[0], d.k)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRetrievalFailed, err)
	}
	d.logger.Debug("retrieved passages",
		zap.Int("count", len(results)),
		zap.Duration("elapsed", time.Since(start)))
	return results, nil
}
