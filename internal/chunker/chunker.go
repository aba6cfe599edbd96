// Package chunker splits page text into fixed-size overlapping passages.
package chunker

import (
	"fmt"

	"github.com/ziadkadry99/esg-assistant/internal/loader"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 150

// Chunk is a contiguous passage of one page. Page is zero-based and Seq
// restarts at 0 on every page.
type Chunk struct {
	Document string
	Page     int
	Seq      int
	Text     string
}

// ID identifies the chunk by its position in the corpus.
func (c Chunk) ID() string {
	return fmt.Sprintf("%s#%d#%d", c.Document, c.Page, c.Seq)
}

// Chunker produces chunks of at most Size characters, each sharing Overlap
// characters with its predecessor on the same page. Characters are runes.
type Chunker struct {
	size    int
	overlap int
}

// Option configures a Chunker.
type Option func(*Chunker)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(c *Chunker) { c.size = size }
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) { c.overlap = overlap }
}

// New creates a Chunker. The overlap must be smaller than the chunk size.
func New(opts ...Option) (*Chunker, error) {
	c := &Chunker{size: DefaultChunkSize, overlap: DefaultChunkOverlap}
	for _, opt := range opts {
		opt(c)
	}
	if c.size <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", c.size)
	}
	if c.overlap < 0 || c.overlap >= c.size {
		return nil, fmt.Errorf("chunk overlap must be in [0, %d), got %d", c.size, c.overlap)
	}
	return c, nil
}

// Size returns the maximum chunk length.
func (c *Chunker) Size() int { return c.size }

// Overlap returns the number of characters shared by neighbouring chunks.
func (c *Chunker) Overlap() int { return c.overlap }

// Split chunks every page in order.
func (c *Chunker) Split(pages []loader.Page) []Chunk {
	var out []Chunk
	for _, p := range pages {
		for seq, text := range c.SplitText(p.Text) {
			out = append(out, Chunk{
				Document: p.Document,
				Page:     p.Index,
				Seq:      seq,
				Text:     text,
			})
		}
	}
	return out
}

// SplitText returns the windows of text. A text of L characters yields one
// window when L <= size, otherwise ceil((L-overlap)/(size-overlap)).
// Empty text yields none.
func (c *Chunker) SplitText(text string) []string {
	runes := []rune(text)
	n := len(runes)
	if n == 0 {
		return nil
	}
	if n <= c.size {
		return []string{text}
	}

	step := c.size - c.overlap
	windows := make([]string, 0, (n-c.overlap+step-1)/step)
	for start := 0; ; start += step {
		end := min(start+c.size, n)
		windows = append(windows, string(runes[start:end]))
		if end == n {
			return windows
		}
	}
}
