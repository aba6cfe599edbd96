package risk

import (
	"embed"
	"fmt"
	"html/template"
	"io"
)

//go:embed templates/treemap.html
var templatesFS embed.FS

var treemap = template.Must(template.New("treemap.html").Funcs(template.FuncMap{
	"opacity": func(depth int) string {
		return fmt.Sprintf("%.2f", 1-0.15*float64(max(depth-1, 0)))
	},
}).ParseFS(templatesFS, "templates/treemap.html"))

// RenderHTML writes a standalone page showing the tree as nested boxes
// sized by Size, with each definition in the hover text.
func RenderHTML(w io.Writer, root *Node) error {
	return treemap.Execute(w, map[string]any{
		"Title":   Title,
		"Summary": Summary,
		"Caption": Caption,
		"Root":    root,
	})
}
