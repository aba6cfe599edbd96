package vectordb

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ziadkadry99/esg-assistant/internal/chunker"
)

// mockEmbedder returns deterministic embeddings based on text content.
// It produces a simple hash-based vector for reproducible tests.
type mockEmbedder struct {
	dims int
	name string
	err  error
}

func newMockEmbedder(dims int) *mockEmbedder {
	return &mockEmbedder{dims: dims, name: "mock/test"}
}

func (m *mockEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	if m.err != nil {
		return nil, m.err
	}
	results := make([][]float32, len(texts))
	for i, text := range texts {
		results[i] = m.deterministicVector(text)
	}
	return results, nil
}

func (m *mockEmbedder) Dimensions() int { return m.dims }
func (m *mockEmbedder) Name() string    { return m.name }

// deterministicVector produces a normalized vector from text.
// Similar texts will produce similar vectors because shared characters contribute
// to the same positions in the vector.
func (m *mockEmbedder) deterministicVector(text string) []float32 {
	vec := make([]float32, m.dims)
	for i, ch := range text {
		idx := (int(ch) + i) % m.dims
		vec[idx] += 1.0
	}
	vec[0] += 0.01
	var norm float64
	for _, v := range vec {
		norm += float64(v * v)
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec
}

var testParams = Params{ChunkSize: 1000, ChunkOverlap: 150, Corpus: "corpus-a"}

func sampleChunks() []chunker.Chunk {
	texts := []string{
		"Paris Agreement is a 2015 treaty on climate change.",
		"Greenhouse gas emissions are reported under scope 1, 2 and 3.",
		"Board diversity is a governance indicator.",
		"Water stress affects agricultural supply chains.",
		"Occupational health and safety is a social risk.",
		"Carbon pricing raises the cost of emissions.",
	}
	chunks := make([]chunker.Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = chunker.Chunk{Document: "guide.pdf", Page: i / 2, Seq: i % 2, Text: text}
	}
	return chunks
}

func buildTestIndex(t *testing.T, e *mockEmbedder, chunks []chunker.Chunk) *Index {
	t.Helper()
	idx, err := Build(t.Context(), chunks, e, testParams, BuildOptions{BatchSize: 4})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return idx
}

func ids(results []Result) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.Chunk.ID()
	}
	return out
}

func TestBuildAndQuery(t *testing.T) {
	e := newMockEmbedder(64)
	chunks := sampleChunks()
	idx := buildTestIndex(t, e, chunks)

	if idx.Count() != len(chunks) {
		t.Fatalf("Count: got %d, want %d", idx.Count(), len(chunks))
	}
	if idx.Dimensions() != 64 {
		t.Errorf("Dimensions: got %d", idx.Dimensions())
	}

	q, _ := e.Embed(t.Context(), []string{chunks[0].Text})
	results, err := idx.Query(t.Context(), q[0], 3)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[0].Chunk.Text != chunks[0].Text {
		t.Errorf("nearest chunk should be the identical text, got %q", results[0].Chunk.Text)
	}
	for i := 1; i < len(results); i++ {
		if results[i].Similarity > results[i-1].Similarity {
			t.Errorf("results not ordered nearest-first at %d", i)
		}
	}
	if results[0].Chunk.Document != "guide.pdf" || results[0].Chunk.Page != 0 || results[0].Chunk.Seq != 0 {
		t.Errorf("provenance lost: %+v", results[0].Chunk)
	}
}

func TestQueryKLargerThanCount(t *testing.T) {
	e := newMockEmbedder(64)
	idx := buildTestIndex(t, e, sampleChunks())

	q, _ := e.Embed(t.Context(), []string{"emissions"})
	results, err := idx.Query(t.Context(), q[0], 50)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != idx.Count() {
		t.Errorf("expected all %d chunks, got %d", idx.Count(), len(results))
	}
}

func TestQueryRejectsBadInput(t *testing.T) {
	e := newMockEmbedder(64)
	idx := buildTestIndex(t, e, sampleChunks())

	q, _ := e.Embed(t.Context(), []string{"x"})
	if _, err := idx.Query(t.Context(), q[0], 0); err == nil {
		t.Error("expected error for k=0")
	}
	if _, err := idx.Query(t.Context(), make([]float32, 8), 1); err == nil {
		t.Error("expected error for wrong dimension")
	}
}

func TestQueryTiesFollowInsertionOrder(t *testing.T) {
	e := newMockEmbedder(32)
	var chunks []chunker.Chunk
	for i := 0; i < 5; i++ {
		chunks = append(chunks, chunker.Chunk{Document: "dup.pdf", Page: 0, Seq: i, Text: "identical passage"})
	}
	chunks = append(chunks, chunker.Chunk{Document: "other.pdf", Page: 0, Seq: 0, Text: "zzzz qqqq"})
	idx := buildTestIndex(t, e, chunks)

	q, _ := e.Embed(t.Context(), []string{"identical passage"})
	for run := 0; run < 5; run++ {
		results, err := idx.Query(t.Context(), q[0], 3)
		if err != nil {
			t.Fatal(err)
		}
		got := strings.Join(ids(results), ",")
		want := "dup.pdf#0#0,dup.pdf#0#1,dup.pdf#0#2"
		if got != want {
			t.Fatalf("run %d: got %s, want %s", run, got, want)
		}
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	e := newMockEmbedder(64)
	chunks := sampleChunks()
	idx := buildTestIndex(t, e, chunks)

	dir := filepath.Join(t.TempDir(), "snap")
	if err := idx.Save(dir); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(t.Context(), dir, e, testParams)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Count() != idx.Count() {
		t.Fatalf("Count after load: got %d, want %d", loaded.Count(), idx.Count())
	}

	for _, query := range []string{"climate treaty", "governance board", "water", "safety risk"} {
		q, _ := e.Embed(t.Context(), []string{query})
		before, err := idx.Query(t.Context(), q[0], len(chunks))
		if err != nil {
			t.Fatal(err)
		}
		after, err := loaded.Query(t.Context(), q[0], len(chunks))
		if err != nil {
			t.Fatal(err)
		}
		if b, a := strings.Join(ids(before), ","), strings.Join(ids(after), ","); a != b {
			t.Errorf("query %q: order changed after reload\nbefore: %s\nafter:  %s", query, b, a)
		}
		for i := range before {
			if before[i].Chunk.Text != after[i].Chunk.Text {
				t.Errorf("query %q: text changed at %d", query, i)
			}
		}
	}
}

func TestLoadDetectsIncompatibleSnapshots(t *testing.T) {
	e := newMockEmbedder(64)
	idx := buildTestIndex(t, e, sampleChunks())

	tests := []struct {
		name   string
		setup  func(t *testing.T, dir string)
		e      *mockEmbedder
		params Params
	}{
		{
			name:   "different embedder",
			e:      &mockEmbedder{dims: 64, name: "mock/other"},
			params: testParams,
		},
		{
			name:   "different dimensions",
			e:      &mockEmbedder{dims: 32, name: "mock/test"},
			params: testParams,
		},
		{
			name:   "different chunking",
			e:      e,
			params: Params{ChunkSize: 500, ChunkOverlap: 50, Corpus: testParams.Corpus},
		},
		{
			name:   "different documents",
			e:      e,
			params: Params{ChunkSize: 1000, ChunkOverlap: 150, Corpus: "corpus-b"},
		},
		{
			name: "garbage export",
			setup: func(t *testing.T, dir string) {
				if err := os.WriteFile(filepath.Join(dir, snapshotFile), []byte("not gob"), 0644); err != nil {
					t.Fatal(err)
				}
			},
			e:      e,
			params: testParams,
		},
		{
			name: "missing manifest",
			setup: func(t *testing.T, dir string) {
				if err := os.Remove(filepath.Join(dir, manifestFile)); err != nil {
					t.Fatal(err)
				}
			},
			e:      e,
			params: testParams,
		},
		{
			name: "future format",
			setup: func(t *testing.T, dir string) {
				m := idx.Manifest()
				m.FormatVersion = FormatVersion + 1
				if err := writeManifest(dir, m); err != nil {
					t.Fatal(err)
				}
			},
			e:      e,
			params: testParams,
		},
		{
			name: "count mismatch",
			setup: func(t *testing.T, dir string) {
				m := idx.Manifest()
				m.Count++
				if err := writeManifest(dir, m); err != nil {
					t.Fatal(err)
				}
			},
			e:      e,
			params: testParams,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			if err := idx.Save(dir); err != nil {
				t.Fatal(err)
			}
			if tt.setup != nil {
				tt.setup(t, dir)
			}
			_, err := Load(t.Context(), dir, tt.e, tt.params)
			if !errors.Is(err, ErrIndexCorrupt) {
				t.Errorf("expected ErrIndexCorrupt, got %v", err)
			}
		})
	}
}

func TestLoadMissingSnapshot(t *testing.T) {
	_, err := Load(t.Context(), filepath.Join(t.TempDir(), "none"), newMockEmbedder(8), testParams)
	if !errors.Is(err, ErrNoSnapshot) {
		t.Errorf("expected ErrNoSnapshot, got %v", err)
	}
}

func TestBuildAbortsOnEmbeddingFailure(t *testing.T) {
	e := newMockEmbedder(16)
	e.err = errors.New("model unavailable")
	if _, err := Build(t.Context(), sampleChunks(), e, testParams, BuildOptions{}); err == nil {
		t.Fatal("expected build to fail")
	}
}

func TestSnapshotDirKeyedByModelAndChunking(t *testing.T) {
	a := SnapshotDir("/tmp/idx", "ollama/paraphrase-multilingual", 1000, 150)
	b := SnapshotDir("/tmp/idx", "openai/text-embedding-3-small", 1000, 150)
	c := SnapshotDir("/tmp/idx", "ollama/paraphrase-multilingual", 1000, 100)
	if a == b || a == c || b == c {
		t.Errorf("snapshot dirs collide: %s %s %s", a, b, c)
	}
	if strings.Contains(filepath.Base(a), "/") {
		t.Errorf("model name not sanitized: %s", a)
	}
}

func TestOpenBuildsOnceThenLoads(t *testing.T) {
	e := newMockEmbedder(64)
	root := t.TempDir()
	calls := 0
	opts := OpenOptions{
		Root:   root,
		Params: testParams,
		Chunks: func(context.Context) ([]chunker.Chunk, error) {
			calls++
			return sampleChunks(), nil
		},
	}

	_, built, err := Open(t.Context(), e, opts)
	if err != nil || !built {
		t.Fatalf("first Open: built=%v err=%v", built, err)
	}
	idx, built, err := Open(t.Context(), e, opts)
	if err != nil || built {
		t.Fatalf("second Open: built=%v err=%v", built, err)
	}
	if calls != 1 {
		t.Errorf("expected chunks to be produced once, got %d", calls)
	}
	if idx.Count() != len(sampleChunks()) {
		t.Errorf("unexpected count %d", idx.Count())
	}

	opts.Rebuild = true
	if _, built, err := Open(t.Context(), e, opts); err != nil || !built {
		t.Fatalf("rebuild: built=%v err=%v", built, err)
	}
}

func TestOpenReportsCorruptSnapshot(t *testing.T) {
	e := newMockEmbedder(64)
	root := t.TempDir()
	dir := SnapshotDir(root, e.Name(), testParams.ChunkSize, testParams.ChunkOverlap)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, manifestFile), []byte("{"), 0644); err != nil {
		t.Fatal(err)
	}

	_, _, err := Open(t.Context(), e, OpenOptions{
		Root:   root,
		Params: testParams,
		Chunks: func(context.Context) ([]chunker.Chunk, error) {
			t.Fatal("corrupt snapshot must not trigger a silent rebuild")
			return nil, nil
		},
	})
	if !errors.Is(err, ErrIndexCorrupt) {
		t.Errorf("expected ErrIndexCorrupt, got %v", err)
	}
}

func TestFormatResults(t *testing.T) {
	if got := FormatResults(nil); got != "No results found." {
		t.Errorf("unexpected empty output %q", got)
	}
	out := FormatResults([]Result{{Chunk: chunker.Chunk{Document: "a.pdf", Page: 0, Text: "hello"}, Similarity: 0.5}})
	if !strings.Contains(out, "a.pdf, page 1") {
		t.Errorf("expected one-based page, got:\n%s", out)
	}
}
