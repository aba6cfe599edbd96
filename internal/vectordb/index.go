package vectordb

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"time"

	chromem "github.com/philippgille/chromem-go"
	"go.uber.org/zap"

	"github.com/ziadkadry99/esg-assistant/internal/chunker"
	"github.com/ziadkadry99/esg-assistant/internal/embeddings"
	"github.com/ziadkadry99/esg-assistant/internal/progress"
)

const collectionName = "passages"

// DefaultBatchSize is the number of passages embedded per request during a
// build.
const DefaultBatchSize = 32

var (
	// ErrIndexCorrupt indicates a snapshot that cannot be used with the
	// current embedder, chunking parameters or documents.
	ErrIndexCorrupt = errors.New("index snapshot corrupt or incompatible")

	// ErrNoSnapshot indicates there is nothing to load.
	ErrNoSnapshot = errors.New("no index snapshot")
)

// Result is a chunk returned by a query.
type Result struct {
	Chunk      chunker.Chunk
	Similarity float32
	// Ordinal is the chunk's insertion position; it breaks similarity ties.
	Ordinal int
}

// Index is an immutable nearest-neighbour index over chunks. It is safe for
// concurrent queries.
type Index struct {
	db         *chromem.DB
	collection *chromem.Collection
	manifest   Manifest
}

// BuildOptions tune Build.
type BuildOptions struct {
	BatchSize int
	// BatchTimeout bounds each embedding request. Zero means no limit.
	BatchTimeout time.Duration
	Progress     progress.Reporter
	Logger       *zap.Logger
}

// Build embeds every chunk and returns a ready index. Any embedding failure
// aborts the build.
func Build(ctx context.Context, chunks []chunker.Chunk, embedder embeddings.Embedder, params Params, opts BuildOptions) (*Index, error) {
	if len(chunks) == 0 {
		return nil, fmt.Errorf("building index: no chunks")
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.Progress == nil {
		opts.Progress = progress.Nop()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	params.Embedder = embedder.Name()

	docs := make([]chromem.Document, len(chunks))
	dims := 0

	opts.Progress.Start(len(chunks))
	for start := 0; start < len(chunks); start += opts.BatchSize {
		end := min(start+opts.BatchSize, len(chunks))
		texts := make([]string, end-start)
		for i := range texts {
			texts[i] = chunks[start+i].Text
		}

		vectors, err := embedBatch(ctx, embedder, texts, opts.BatchTimeout)
		if err != nil {
			opts.Progress.Finish()
			return nil, fmt.Errorf("embedding chunks %d-%d: %w", start, end-1, err)
		}
		if len(vectors) != len(texts) {
			opts.Progress.Finish()
			return nil, fmt.Errorf("embedding chunks %d-%d: got %d vectors", start, end-1, len(vectors))
		}

		for i, vec := range vectors {
			if dims == 0 {
				dims = len(vec)
			}
			if len(vec) != dims || dims == 0 {
				opts.Progress.Finish()
				return nil, fmt.Errorf("embedding chunk %d: dimension %d, expected %d", start+i, len(vec), dims)
			}
			ord := start + i
			c := chunks[ord]
			docs[ord] = chromem.Document{
				ID:        c.ID(),
				Content:   c.Text,
				Embedding: vec,
				Metadata: map[string]string{
					"document": c.Document,
					"page":     strconv.Itoa(c.Page),
					"seq":      strconv.Itoa(c.Seq),
					"ord":      strconv.Itoa(ord),
				},
			}
		}
		opts.Progress.Update(end, fmt.Sprintf("Embedding passages (%d/%d)", end, len(chunks)))
	}
	opts.Progress.Finish()

	db := chromem.NewDB()
	col, err := db.GetOrCreateCollection(collectionName, nil, embeddings.ChromemFunc(embedder))
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}
	if err := col.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return nil, fmt.Errorf("adding passages: %w", err)
	}

	opts.Logger.Info("index built",
		zap.String("embedder", params.Embedder),
		zap.Int("chunks", len(docs)),
		zap.Int("dimensions", dims))

	return &Index{
		db:         db,
		collection: col,
		manifest: Manifest{
			FormatVersion: FormatVersion,
			Params:        params,
			Dimensions:    dims,
			Count:         len(docs),
			SampleID:      docs[0].ID,
			CreatedAt:     time.Now().UTC(),
		},
	}, nil
}

func embedBatch(ctx context.Context, e embeddings.Embedder, texts []string, timeout time.Duration) ([][]float32, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return e.Embed(ctx, texts)
}

// Save persists the index to dir as a compressed chromem export plus a
// manifest.
func (idx *Index) Save(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	// Drop a stale manifest first so an interrupted save is detected on load.
	_ = os.Remove(filepath.Join(dir, manifestFile))
	if err := idx.db.ExportToFile(filepath.Join(dir, snapshotFile), true, ""); err != nil {
		return fmt.Errorf("exporting index: %w", err)
	}
	return writeManifest(dir, idx.manifest)
}

// Load restores an index saved by Save. It fails with ErrIndexCorrupt when
// the snapshot is unreadable or was built with different parameters, and
// with ErrNoSnapshot when dir holds no snapshot at all.
func Load(ctx context.Context, dir string, embedder embeddings.Embedder, params Params) (*Index, error) {
	if !Exists(dir) {
		return nil, fmt.Errorf("%w in %s", ErrNoSnapshot, dir)
	}
	params.Embedder = embedder.Name()

	m, err := readManifest(dir)
	if err != nil {
		return nil, err
	}
	if err := m.check(params, embedder.Dimensions()); err != nil {
		return nil, err
	}

	db := chromem.NewDB()
	if err := db.ImportFromFile(filepath.Join(dir, snapshotFile), ""); err != nil {
		return nil, fmt.Errorf("%w: importing %s: %v", ErrIndexCorrupt, snapshotFile, err)
	}
	col := db.GetCollection(collectionName, embeddings.ChromemFunc(embedder))
	if col == nil {
		return nil, fmt.Errorf("%w: collection %q missing", ErrIndexCorrupt, collectionName)
	}
	if n := col.Count(); n != m.Count {
		return nil, fmt.Errorf("%w: %d passages, manifest says %d", ErrIndexCorrupt, n, m.Count)
	}
	sample, err := col.GetByID(ctx, m.SampleID)
	if err != nil {
		return nil, fmt.Errorf("%w: sample passage: %v", ErrIndexCorrupt, err)
	}
	if len(sample.Embedding) != m.Dimensions {
		return nil, fmt.Errorf("%w: stored vectors have %d dimensions, manifest says %d",
			ErrIndexCorrupt, len(sample.Embedding), m.Dimensions)
	}

	return &Index{db: db, collection: col, manifest: *m}, nil
}

// Count returns the number of indexed chunks.
func (idx *Index) Count() int {
	return idx.collection.Count()
}

// Dimensions returns the vector size.
func (idx *Index) Dimensions() int {
	return idx.manifest.Dimensions
}

// Manifest describes the index.
func (idx *Index) Manifest() Manifest {
	return idx.manifest
}

// Query returns the k chunks nearest to vector by cosine similarity,
// nearest first, with ties broken by insertion order. When k exceeds the
// number of chunks every chunk is returned.
func (idx *Index) Query(ctx context.Context, vector []float32, k int) ([]Result, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}
	if len(vector) != idx.manifest.Dimensions {
		return nil, fmt.Errorf("query vector has %d dimensions, index has %d", len(vector), idx.manifest.Dimensions)
	}
	count := idx.collection.Count()
	if count == 0 {
		return nil, nil
	}

	// chromem's own top-n cut does not order ties, so rank everything and
	// cut after a stable sort.
	raw, err := idx.collection.QueryEmbedding(ctx, vector, count, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("chromem query: %w", err)
	}

	results := make([]Result, len(raw))
	for i, r := range raw {
		results[i] = toResult(r)
	}
	sort.SliceStable(results, func(a, b int) bool {
		if results[a].Similarity != results[b].Similarity {
			return results[a].Similarity > results[b].Similarity
		}
		return results[a].Ordinal < results[b].Ordinal
	})

	if k < len(results) {
		results = results[:k]
	}
	return results, nil
}

func toResult(r chromem.Result) Result {
	page, _ := strconv.Atoi(r.Metadata["page"])
	seq, _ := strconv.Atoi(r.Metadata["seq"])
	ord, _ := strconv.Atoi(r.Metadata["ord"])
	return Result{
		Chunk: chunker.Chunk{
			Document: r.Metadata["document"],
			Page:     page,
			Seq:      seq,
			Text:     r.Content,
		},
		Similarity: r.Similarity,
		Ordinal:    ord,
	}
}
