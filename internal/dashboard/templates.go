package dashboard

import (
	"bytes"
	_ "embed"
	"net/http"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

//go:embed index.html
var indexHTML []byte

// ServeIndex serves the embedded chat page.
func (d *Dashboard) ServeIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(indexHTML)
}

// Raw HTML in model output is escaped, not passed through.
var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

// renderMarkdown converts an answer to HTML. On failure the caller falls
// back to the plain text.
func renderMarkdown(text string) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(text), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
