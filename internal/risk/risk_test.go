package risk

import (
	"bytes"
	"strings"
	"testing"
)

func TestTreeShape(t *testing.T) {
	root, err := Tree()
	if err != nil {
		t.Fatal(err)
	}
	if root.ID != "ÇSY Riskleri" || len(root.Children) != 3 {
		t.Fatalf("unexpected root %q with %d children", root.ID, len(root.Children))
	}

	count := 0
	var walk func(n *Node)
	walk = func(n *Node) {
		count++
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(root)
	if count != len(Categories()) || count != 25 {
		t.Errorf("expected all 25 categories in the tree, got %d", count)
	}

	// Own values plus descendants.
	if got := root.Size(); got != 58 {
		t.Errorf("root size: got %d, want 58", got)
	}
	env := root.Children[0]
	if env.Label != "Çevresel Riskler" || env.Size() != 14+4+4+3+3 {
		t.Errorf("environmental size: got %d", env.Size())
	}
}

func TestColorsFollowTopLevelCategory(t *testing.T) {
	root, err := Tree()
	if err != nil {
		t.Fatal(err)
	}
	if root.Color != RootColor {
		t.Errorf("root color %q", root.Color)
	}
	for i, top := range root.Children {
		for _, c := range top.Children {
			if c.Color != Palette[i] {
				t.Errorf("%s: got %s, want %s", c.Label, c.Color, Palette[i])
			}
		}
	}
}

func TestEveryCategoryButRootIsDefined(t *testing.T) {
	for _, c := range Categories() {
		if c.Parent != "" && c.Definition == "" {
			t.Errorf("%s has no definition", c.ID)
		}
	}
}

func TestBuildRejectsBadData(t *testing.T) {
	tests := map[string][]Category{
		"unknown parent": {{ID: "a"}, {ID: "b", Parent: "x"}},
		"two roots":      {{ID: "a"}, {ID: "b"}},
		"duplicate":      {{ID: "a"}, {ID: "a"}},
		"no root":        {{ID: "a", Parent: "a"}},
	}
	for name, cats := range tests {
		if _, err := build(cats); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestRenderText(t *testing.T) {
	root, _ := Tree()
	var buf bytes.Buffer
	if err := RenderText(&buf, root); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "ÇSY Riskleri (58)\n") {
		t.Errorf("unexpected first line:\n%s", out)
	}
	if !strings.Contains(out, "\n      Su Yönetimi (1)\n") {
		t.Errorf("expected indented leaf:\n%s", out)
	}
}

func TestRenderHTML(t *testing.T) {
	root, _ := Tree()
	var buf bytes.Buffer
	if err := RenderHTML(&buf, root); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{Title, "Yolsuzluğun Önlenmesi", "#2ca02c", "Ana Kategori: Sosyal Riskler", "Sayfa 24"} {
		if !strings.Contains(out, want) {
			t.Errorf("HTML missing %q", want)
		}
	}
}
