package vectordb

import (
	"fmt"
	"strings"
)

// FormatResults renders query results as human-readable text. Pages are
// shown one-based.
func FormatResults(results []Result) string {
	if len(results) == 0 {
		return "No results found."
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d result(s):\n\n", len(results))

	for i, r := range results {
		fmt.Fprintf(&sb, "--- Result %d (similarity: %.4f) ---\n", i+1, r.Similarity)
		fmt.Fprintf(&sb, "Source: %s, page %d\n\n", r.Chunk.Document, r.Chunk.Page+1)
		sb.WriteString(r.Chunk.Text)
		sb.WriteString("\n\n")
	}

	return sb.String()
}
