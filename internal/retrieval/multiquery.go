package retrieval

import (
	"context"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ziadkadry99/esg-assistant/internal/llm"
	"github.com/ziadkadry99/esg-assistant/internal/prompt"
	"github.com/ziadkadry99/esg-assistant/internal/vectordb"
)

// DefaultAlternatives is the number of rephrasings requested per question.
const DefaultAlternatives = 3

// MultiQuery asks the language model for alternative phrasings of the
// question, retrieves passages for the original and every alternative, and
// merges the lists.
//
// Merging keeps the first occurrence of each chunk, scanning the original
// question's results before the alternatives and the alternatives in the
// order the model produced them.
type MultiQuery struct {
	base        Retriever
	provider    llm.Provider
	prompts     *prompt.Assembler
	n           int
	model       string
	temperature float64
	timeout     time.Duration
	logger      *zap.Logger
}

// Option configures a MultiQuery.
type Option func(*MultiQuery)

// WithAlternatives sets how many rephrasings to request.
func WithAlternatives(n int) Option {
	return func(m *MultiQuery) { m.n = n }
}

// WithModel overrides the provider's default model and temperature for
// expansion requests.
func WithModel(model string, temperature float64) Option {
	return func(m *MultiQuery) {
		m.model = model
		m.temperature = temperature
	}
}

// WithExpansionTimeout bounds the rephrasing request.
func WithExpansionTimeout(d time.Duration) Option {
	return func(m *MultiQuery) { m.timeout = d }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(m *MultiQuery) { m.logger = l }
}

// NewMultiQuery wraps base with query expansion.
func NewMultiQuery(base Retriever, provider llm.Provider, prompts *prompt.Assembler, opts ...Option) *MultiQuery {
	m := &MultiQuery{
		base:     base,
		provider: provider,
		prompts:  prompts,
		n:        DefaultAlternatives,
		logger:   zap.NewNop(),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Expand returns the model's alternative phrasings of question. It never
// fails: any problem with the model yields no alternatives.
func (m *MultiQuery) Expand(ctx context.Context, question string) []string {
	if m.n <= 0 {
		return nil
	}
	p, err := m.prompts.MultiQuery(question, m.n)
	if err != nil {
		m.logger.Warn("rendering expansion prompt", zap.Error(err))
		return nil
	}

	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}
	resp, err := m.provider.Complete(ctx, llm.Prompt(m.model, p, 512, m.temperature))
	if err != nil {
		m.logger.Warn("query expansion failed, using the original question only", zap.Error(err))
		return nil
	}

	alts := ParseAlternatives(resp.Content, question, m.n)
	m.logger.Debug("expanded question", zap.Strings("alternatives", alts))
	return alts
}

// Retrieve implements Retriever. Queries run concurrently. A failure of the
// original question's query is returned; failed alternatives are skipped.
func (m *MultiQuery) Retrieve(ctx context.Context, question string) ([]vectordb.Result, error) {
	queries := append([]string{question}, m.Expand(ctx, question)...)
	lists := make([][]vectordb.Result, len(queries))

	g, gctx := errgroup.WithContext(ctx)
	for i, q := range queries {
		g.Go(func() error {
			results, err := m.base.Retrieve(gctx, q)
			if err != nil {
				if i == 0 {
					return err
				}
				m.logger.Warn("alternative query failed", zap.String("query", q), zap.Error(err))
				return nil
			}
			lists[i] = results
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return Merge(lists...), nil
}

// Merge concatenates result lists in order, dropping any chunk already seen.
func Merge(lists ...[]vectordb.Result) []vectordb.Result {
	seen := make(map[string]struct{})
	var out []vectordb.Result
	for _, list := range lists {
		for _, r := range list {
			id := r.Chunk.ID()
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, r)
		}
	}
	return out
}

var listMarker = regexp.MustCompile(`^\s*(?:[-*•]+|\(?\d+[.):]|\d+\s*-)\s*`)

// ParseAlternatives extracts up to n questions from a model reply with one
// question per line. List markers and surrounding quotes are stripped; blank
// lines, repeats and copies of the original are dropped.
func ParseAlternatives(text, original string, n int) []string {
	seen := map[string]bool{normalize(original): true}
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if len(out) == n {
			break
		}
		line = listMarker.ReplaceAllString(line, "")
		line = strings.Trim(strings.TrimSpace(line), `"'“”`)
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		key := normalize(line)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, line)
	}
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
