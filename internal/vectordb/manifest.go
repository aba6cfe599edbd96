package vectordb

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"
)

// FormatVersion is bumped whenever the snapshot layout or metadata changes.
const FormatVersion = 1

const (
	snapshotFile = "chromem.gob.gz"
	manifestFile = "manifest.json"
)

// Params identify what an index was built from. A snapshot is only usable
// when all of them match.
type Params struct {
	Embedder     string `json:"embedder"`
	ChunkSize    int    `json:"chunk_size"`
	ChunkOverlap int    `json:"chunk_overlap"`
	// Corpus fingerprints the source documents.
	Corpus string `json:"corpus"`
}

// Manifest is written next to the chromem export and describes it.
type Manifest struct {
	FormatVersion int `json:"format_version"`
	Params
	Dimensions int       `json:"dimensions"`
	Count      int       `json:"count"`
	SampleID   string    `json:"sample_id"`
	CreatedAt  time.Time `json:"created_at"`
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// SnapshotDir returns the snapshot directory under root for the given
// embedding model and chunking parameters, so that changing either selects a
// fresh snapshot instead of reusing stale vectors.
func SnapshotDir(root, embedder string, chunkSize, chunkOverlap int) string {
	name := fmt.Sprintf("%s_c%d_o%d_v%d", unsafeChars.ReplaceAllString(embedder, "_"), chunkSize, chunkOverlap, FormatVersion)
	return filepath.Join(root, name)
}

// Exists reports whether dir contains any snapshot files.
func Exists(dir string) bool {
	for _, f := range []string{manifestFile, snapshotFile} {
		if _, err := os.Stat(filepath.Join(dir, f)); err == nil {
			return true
		}
	}
	return false
}

func readManifest(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, manifestFile))
	if err != nil {
		return nil, fmt.Errorf("%w: reading manifest: %v", ErrIndexCorrupt, err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: decoding manifest: %v", ErrIndexCorrupt, err)
	}
	return &m, nil
}

// writeManifest writes via a temporary file so a crash never leaves a
// manifest describing a half-written export.
func writeManifest(dir string, m Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}
	tmp := filepath.Join(dir, manifestFile+".tmp")
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	if err := os.Rename(tmp, filepath.Join(dir, manifestFile)); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	return nil
}

// check compares a stored manifest with the parameters of the running
// process. dims of 0 means the embedder does not know its size up front.
func (m *Manifest) check(want Params, dims int) error {
	switch {
	case m.FormatVersion != FormatVersion:
		return fmt.Errorf("%w: format version %d, expected %d", ErrIndexCorrupt, m.FormatVersion, FormatVersion)
	case m.Embedder != want.Embedder:
		return fmt.Errorf("%w: built with embedder %q, configured %q", ErrIndexCorrupt, m.Embedder, want.Embedder)
	case m.ChunkSize != want.ChunkSize || m.ChunkOverlap != want.ChunkOverlap:
		return fmt.Errorf("%w: built with chunking %d/%d, configured %d/%d",
			ErrIndexCorrupt, m.ChunkSize, m.ChunkOverlap, want.ChunkSize, want.ChunkOverlap)
	case want.Corpus != "" && m.Corpus != want.Corpus:
		return fmt.Errorf("%w: documents changed since the index was built", ErrIndexCorrupt)
	case m.Dimensions <= 0:
		return fmt.Errorf("%w: invalid dimensions %d", ErrIndexCorrupt, m.Dimensions)
	case dims > 0 && m.Dimensions != dims:
		return fmt.Errorf("%w: %d-dimensional vectors, embedder produces %d", ErrIndexCorrupt, m.Dimensions, dims)
	case m.Count <= 0:
		return fmt.Errorf("%w: empty index", ErrIndexCorrupt)
	}
	return nil
}
