package chunker

import (
	"math/rand"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/ziadkadry99/esg-assistant/internal/loader"
)

func expectedCount(l, s, o int) int {
	if l == 0 {
		return 0
	}
	if l <= s {
		return 1
	}
	return (l - o + (s - o) - 1) / (s - o)
}

// reconstruct joins chunks dropping the overlapping prefix of each
// chunk after the first.
func reconstruct(chunks []string, overlap int) string {
	var sb strings.Builder
	for i, c := range chunks {
		if i == 0 {
			sb.WriteString(c)
			continue
		}
		sb.WriteString(string([]rune(c)[overlap:]))
	}
	return sb.String()
}

func TestNewRejectsInvalidParams(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
	}{
		{"zero size", []Option{WithChunkSize(0)}},
		{"overlap equals size", []Option{WithChunkSize(100), WithOverlap(100)}},
		{"overlap above size", []Option{WithChunkSize(100), WithOverlap(150)}},
		{"negative overlap", []Option{WithOverlap(-1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.opts...); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestSplitTextShortPage(t *testing.T) {
	c, err := New(WithChunkSize(100), WithOverlap(10))
	if err != nil {
		t.Fatal(err)
	}
	text := "Paris Agreement is a 2015 treaty on climate change."
	got := c.SplitText(text)
	if len(got) != 1 || got[0] != text {
		t.Errorf("expected the page verbatim, got %q", got)
	}
	if got := c.SplitText(""); len(got) != 0 {
		t.Errorf("empty text should yield no chunks, got %d", len(got))
	}
}

func TestSplitTextProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	alphabet := []rune("abcçdefgğhıijklmnoöprsştuüvyz ÇŞĞİÖÜ.,\n")

	params := []struct{ size, overlap int }{
		{1000, 150},
		{1000, 100},
		{10, 3},
		{7, 0},
		{5, 4},
	}
	lengths := []int{1, 5, 7, 10, 11, 999, 1000, 1001, 1850, 2700, 5000}

	for _, p := range params {
		c, err := New(WithChunkSize(p.size), WithOverlap(p.overlap))
		if err != nil {
			t.Fatal(err)
		}
		for _, l := range lengths {
			runes := make([]rune, l)
			for i := range runes {
				runes[i] = alphabet[rng.Intn(len(alphabet))]
			}
			text := string(runes)

			chunks := c.SplitText(text)
			if want := expectedCount(l, p.size, p.overlap); len(chunks) != want {
				t.Errorf("S=%d O=%d L=%d: got %d chunks, want %d", p.size, p.overlap, l, len(chunks), want)
			}
			for i, ch := range chunks {
				if n := utf8.RuneCountInString(ch); n > p.size {
					t.Errorf("S=%d O=%d L=%d: chunk %d has %d chars", p.size, p.overlap, l, i, n)
				}
			}
			for i := 1; i < len(chunks); i++ {
				prev, cur := []rune(chunks[i-1]), []rune(chunks[i])
				if string(prev[len(prev)-p.overlap:]) != string(cur[:p.overlap]) {
					t.Errorf("S=%d O=%d L=%d: chunks %d and %d do not overlap", p.size, p.overlap, l, i-1, i)
				}
			}
			if got := reconstruct(chunks, p.overlap); got != text {
				t.Errorf("S=%d O=%d L=%d: reconstruction mismatch", p.size, p.overlap, l)
			}
		}
	}
}

func TestSplitIsDeterministicAndTracksProvenance(t *testing.T) {
	c, err := New(WithChunkSize(20), WithOverlap(5))
	if err != nil {
		t.Fatal(err)
	}
	pages := []loader.Page{
		{Document: "rehber.pdf", Index: 0, Text: strings.Repeat("sürdürülebilirlik ", 4)},
		{Document: "rehber.pdf", Index: 3, Text: "kısa"},
		{Document: "sozluk.pdf", Index: 0, Text: strings.Repeat("yönetişim ", 5)},
	}

	first := c.Split(pages)
	second := c.Split(pages)
	if len(first) != len(second) {
		t.Fatalf("non-deterministic chunk count: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("chunk %d differs between runs", i)
		}
	}

	seen := map[string]bool{}
	for _, ch := range first {
		if seen[ch.ID()] {
			t.Errorf("duplicate chunk id %s", ch.ID())
		}
		seen[ch.ID()] = true
	}

	var short *Chunk
	for i := range first {
		if first[i].Page == 3 {
			short = &first[i]
		}
	}
	if short == nil || short.Text != "kısa" || short.Seq != 0 || short.Document != "rehber.pdf" {
		t.Errorf("unexpected chunk for short page: %+v", short)
	}
	if first[0].ID() != "rehber.pdf#0#0" {
		t.Errorf("unexpected first id %q", first[0].ID())
	}
}
