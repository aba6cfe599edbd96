// Package loader discovers PDF documents and extracts their text page by
// page.
package loader

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"
)

var (
	// ErrNoDocuments indicates the input directory holds no eligible files.
	ErrNoDocuments = errors.New("no documents found")

	// ErrMissingDir indicates the input directory does not exist.
	ErrMissingDir = errors.New("input directory not found")
)

// Document is one source file.
type Document struct {
	Path string
	// Name is the slash-separated path relative to the input directory.
	// It identifies the document in chunk IDs and is shown as the source;
	// for files directly under the directory it is the basename.
	Name string
}

// Page is one page of a Document. Index is zero-based.
type Page struct {
	Document string
	Path     string
	Index    int
	Text     string
}

// Extractor returns the text of every page in a PDF file, in page order.
type Extractor interface {
	ExtractPages(ctx context.Context, path string) ([]string, error)
}

// Discover lists the files under dir matching pattern, sorted by path.
func Discover(dir, pattern string) ([]Document, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrMissingDir, dir)
		}
		return nil, fmt.Errorf("accessing %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrMissingDir, dir)
	}

	matches, err := doublestar.Glob(os.DirFS(dir), pattern, doublestar.WithFilesOnly(), doublestar.WithCaseInsensitive())
	if err != nil {
		return nil, fmt.Errorf("matching %q in %s: %w", pattern, dir, err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w in %s (pattern %q)", ErrNoDocuments, dir, pattern)
	}
	sort.Strings(matches)

	docs := make([]Document, len(matches))
	for i, m := range matches {
		p := filepath.Join(dir, filepath.FromSlash(m))
		docs[i] = Document{Path: p, Name: m}
	}
	return docs, nil
}

// Load discovers documents under dir and extracts their pages. Pages with
// no text are skipped. A file that cannot be read fails the whole load.
func Load(ctx context.Context, dir, pattern string, ex Extractor, logger *zap.Logger) ([]Page, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	docs, err := Discover(dir, pattern)
	if err != nil {
		return nil, err
	}

	var pages []Page
	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		texts, err := ex.ExtractPages(ctx, doc.Path)
		if err != nil {
			return nil, fmt.Errorf("extracting %s: %w", doc.Name, err)
		}
		kept := 0
		for i, text := range texts {
			if strings.TrimSpace(text) == "" {
				continue
			}
			pages = append(pages, Page{
				Document: doc.Name,
				Path:     doc.Path,
				Index:    i,
				Text:     text,
			})
			kept++
		}
		logger.Debug("loaded document",
			zap.String("document", doc.Name),
			zap.Int("pages", len(texts)),
			zap.Int("pages_with_text", kept))
	}

	if len(pages) == 0 {
		return nil, fmt.Errorf("%w: no extractable text in %d file(s) under %s", ErrNoDocuments, len(docs), dir)
	}
	return pages, nil
}

// Fingerprint summarises the names and sizes of docs. Index snapshots store it
// to notice when the document set changes.
func Fingerprint(docs []Document) (string, error) {
	h := sha256.New()
	for _, d := range docs {
		info, err := os.Stat(d.Path)
		if err != nil {
			return "", fmt.Errorf("fingerprinting %s: %w", d.Name, err)
		}
		fmt.Fprintf(h, "%s\x00%d\x00", d.Name, info.Size())
	}
	return hex.EncodeToString(h.Sum(nil))[:16], nil
}
