package vectordb

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/ziadkadry99/esg-assistant/internal/chunker"
	"github.com/ziadkadry99/esg-assistant/internal/embeddings"
)

// OpenOptions configure Open.
type OpenOptions struct {
	// Root holds one snapshot directory per embedder and chunking setup.
	Root   string
	Params Params
	// Rebuild ignores any existing snapshot.
	Rebuild bool
	// Chunks produces the passages when a build is needed.
	Chunks func(ctx context.Context) ([]chunker.Chunk, error)
	Build  BuildOptions
}

// Open loads the snapshot for the configured embedder and chunking, or
// builds and saves one when none exists. An incompatible snapshot is
// returned as ErrIndexCorrupt; it is only replaced when Rebuild is set.
func Open(ctx context.Context, embedder embeddings.Embedder, opts OpenOptions) (*Index, bool, error) {
	logger := opts.Build.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	dir := SnapshotDir(opts.Root, embedder.Name(), opts.Params.ChunkSize, opts.Params.ChunkOverlap)

	if !opts.Rebuild {
		idx, err := Load(ctx, dir, embedder, opts.Params)
		if err == nil {
			logger.Info("index loaded", zap.String("dir", dir), zap.Int("chunks", idx.Count()))
			return idx, false, nil
		}
		if !errors.Is(err, ErrNoSnapshot) {
			return nil, false, fmt.Errorf("%w (rebuild with --rebuild)", err)
		}
	}

	chunks, err := opts.Chunks(ctx)
	if err != nil {
		return nil, false, err
	}
	idx, err := Build(ctx, chunks, embedder, opts.Params, opts.Build)
	if err != nil {
		return nil, false, err
	}
	if err := idx.Save(dir); err != nil {
		return nil, false, err
	}
	logger.Info("index saved", zap.String("dir", dir))
	return idx, true, nil
}
