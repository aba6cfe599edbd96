package retrieval

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ziadkadry99/esg-assistant/internal/chunker"
	"github.com/ziadkadry99/esg-assistant/internal/llm"
	"github.com/ziadkadry99/esg-assistant/internal/prompt"
	"github.com/ziadkadry99/esg-assistant/internal/vectordb"
)

// fakeRetriever returns canned results per query.
type fakeRetriever struct {
	mu      sync.Mutex
	results map[string][]vectordb.Result
	fail    map[string]error
	queries []string
}

func (f *fakeRetriever) Retrieve(_ context.Context, q string) ([]vectordb.Result, error) {
	f.mu.Lock()
	f.queries = append(f.queries, q)
	f.mu.Unlock()
	if err := f.fail[q]; err != nil {
		return nil, err
	}
	return f.results[q], nil
}

// fakeProvider returns a fixed completion or error.
type fakeProvider struct {
	content string
	err     error
	calls   int
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) Complete(ctx context.Context, _ llm.CompletionRequest) (*llm.CompletionResponse, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return &llm.CompletionResponse{Content: p.content}, nil
}

// fakeEmbedder maps every text to a fixed vector.
type fakeEmbedder struct {
	err error
}

func (e *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0}
	}
	return out, nil
}
func (e *fakeEmbedder) Dimensions() int { return 2 }
func (e *fakeEmbedder) Name() string    { return "fake/embedder" }

// fakeSearcher records the k it was called with.
type fakeSearcher struct {
	results []vectordb.Result
	err     error
	gotK    int
	block   bool
}

func (s *fakeSearcher) Query(ctx context.Context, _ []float32, k int) ([]vectordb.Result, error) {
	s.gotK = k
	if s.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return s.results, s.err
}

func res(doc string, page, seq int) vectordb.Result {
	return vectordb.Result{Chunk: chunker.Chunk{Document: doc, Page: page, Seq: seq, Text: doc}}
}

func resultIDs(rs []vectordb.Result) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.Chunk.ID()
	}
	return out
}

func newAssembler(t *testing.T) *prompt.Assembler {
	t.Helper()
	a, err := prompt.New(prompt.English)
	if err != nil {
		t.Fatal(err)
	}
	return a
}

func TestDirectRetrieve(t *testing.T) {
	s := &fakeSearcher{results: []vectordb.Result{res("a.pdf", 0, 0)}}
	d := NewDirect(s, &fakeEmbedder{}, 7, time.Second, nil)

	got, err := d.Retrieve(t.Context(), "q")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || s.gotK != 7 {
		t.Errorf("got %d results with k=%d", len(got), s.gotK)
	}
}

func TestDirectFailures(t *testing.T) {
	tests := []struct {
		name string
		d    *Direct
	}{
		{"embedding", NewDirect(&fakeSearcher{}, &fakeEmbedder{err: errors.New("down")}, 3, 0, nil)},
		{"index", NewDirect(&fakeSearcher{err: errors.New("bad k")}, &fakeEmbedder{}, 3, 0, nil)},
		{"timeout", NewDirect(&fakeSearcher{block: true}, &fakeEmbedder{}, 3, 10*time.Millisecond, nil)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.d.Retrieve(t.Context(), "q")
			if !errors.Is(err, ErrRetrievalFailed) {
				t.Errorf("expected ErrRetrievalFailed, got %v", err)
			}
		})
	}
}

func TestParseAlternatives(t *testing.T) {
	tests := []struct {
		name string
		text string
		n    int
		want []string
	}{
		{
			name: "plain lines",
			text: "What is A?\nDefine A.\nExplain A.",
			n:    3,
			want: []string{"What is A?", "Define A.", "Explain A."},
		},
		{
			name: "numbered and bulleted",
			text: "1. What is A?\n2) Define A.\n- Explain A.\n* Describe A.",
			n:    4,
			want: []string{"What is A?", "Define A.", "Explain A.", "Describe A."},
		},
		{
			name: "blank lines and quotes",
			text: "\n\n\"What is A?\"\n   \n",
			n:    3,
			want: []string{"What is A?"},
		},
		{
			name: "drops original and repeats",
			text: "original question\nOther one\nother   ONE\nThird",
			n:    3,
			want: []string{"Other one", "Third"},
		},
		{
			name: "capped at n",
			text: "a\nb\nc\nd\ne",
			n:    3,
			want: []string{"a", "b", "c"},
		},
		{
			name: "empty",
			text: "",
			n:    3,
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseAlternatives(tt.text, "Original Question", tt.n)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMergeKeepsFirstOccurrence(t *testing.T) {
	first := []vectordb.Result{res("a.pdf", 0, 0), res("a.pdf", 1, 0)}
	second := []vectordb.Result{res("a.pdf", 1, 0), res("b.pdf", 0, 0), res("a.pdf", 0, 0)}
	third := []vectordb.Result{res("b.pdf", 0, 0), res("c.pdf", 2, 1)}

	got := resultIDs(Merge(first, second, third))
	want := []string{"a.pdf#0#0", "a.pdf#1#0", "b.pdf#0#0", "c.pdf#2#1"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestMultiQueryMergesInIssuedOrder(t *testing.T) {
	base := &fakeRetriever{results: map[string][]vectordb.Result{
		"What is A?": {res("a.pdf", 0, 0), res("a.pdf", 0, 1)},
		"Define A":   {res("a.pdf", 0, 1), res("b.pdf", 3, 0)},
		"Explain A":  {res("c.pdf", 1, 0), res("a.pdf", 0, 0)},
		"Describe A": {res("b.pdf", 3, 0), res("d.pdf", 0, 0)},
	}}
	provider := &fakeProvider{content: "1. Define A\n2. Explain A\n3. Describe A"}
	m := NewMultiQuery(base, provider, newAssembler(t))

	got, err := m.Retrieve(t.Context(), "What is A?")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"a.pdf#0#0", "a.pdf#0#1", "b.pdf#3#0", "c.pdf#1#0", "d.pdf#0#0"}
	if ids := resultIDs(got); !reflect.DeepEqual(ids, want) {
		t.Errorf("got %v, want %v", ids, want)
	}
	if len(base.queries) != 4 {
		t.Errorf("expected 4 queries, got %v", base.queries)
	}
}

func TestMultiQueryFallsBackWhenModelFails(t *testing.T) {
	base := &fakeRetriever{results: map[string][]vectordb.Result{
		"q": {res("a.pdf", 0, 0)},
	}}
	for _, p := range []*fakeProvider{{err: errors.New("quota exceeded")}, {content: "   \n"}} {
		base.queries = nil
		m := NewMultiQuery(base, p, newAssembler(t))
		got, err := m.Retrieve(t.Context(), "q")
		if err != nil {
			t.Fatalf("expected graceful fallback, got %v", err)
		}
		if len(got) != 1 || len(base.queries) != 1 || base.queries[0] != "q" {
			t.Errorf("expected only the original question, queries=%v", base.queries)
		}
	}
}

func TestMultiQuerySkipsFailedAlternative(t *testing.T) {
	base := &fakeRetriever{
		results: map[string][]vectordb.Result{
			"q":    {res("a.pdf", 0, 0)},
			"alt2": {res("b.pdf", 0, 0)},
		},
		fail: map[string]error{"alt1": errors.New("embedding timeout")},
	}
	m := NewMultiQuery(base, &fakeProvider{content: "alt1\nalt2"}, newAssembler(t))

	got, err := m.Retrieve(t.Context(), "q")
	if err != nil {
		t.Fatal(err)
	}
	if ids := strings.Join(resultIDs(got), ","); ids != "a.pdf#0#0,b.pdf#0#0" {
		t.Errorf("unexpected results %s", ids)
	}
}

func TestMultiQueryOriginalFailureIsReturned(t *testing.T) {
	base := &fakeRetriever{fail: map[string]error{"q": ErrRetrievalFailed}}
	m := NewMultiQuery(base, &fakeProvider{content: "alt"}, newAssembler(t))

	if _, err := m.Retrieve(t.Context(), "q"); !errors.Is(err, ErrRetrievalFailed) {
		t.Errorf("expected ErrRetrievalFailed, got %v", err)
	}
}

func TestMultiQueryDisabled(t *testing.T) {
	p := &fakeProvider{content: "alt"}
	m := NewMultiQuery(&fakeRetriever{}, p, newAssembler(t), WithAlternatives(0))
	if alts := m.Expand(t.Context(), "q"); alts != nil {
		t.Errorf("expected no alternatives, got %v", alts)
	}
	if p.calls != 0 {
		t.Error("model should not be called when expansion is disabled")
	}
}
