// Package generator sends assembled prompts to the language model.
package generator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ziadkadry99/esg-assistant/internal/llm"
)

// ErrGenerationFailed wraps every provider, network or timeout error raised
// while producing an answer.
var ErrGenerationFailed = errors.New("generation failed")

// DefaultMaxTokens caps answer length.
const DefaultMaxTokens = 2048

// Generator produces answers from prompts.
type Generator struct {
	provider    llm.Provider
	model       string
	temperature float64
	maxTokens   int
	timeout     time.Duration
	logger      *zap.Logger
}

// Option configures a Generator.
type Option func(*Generator)

// WithModel sets the model and temperature.
func WithModel(model string, temperature float64) Option {
	return func(g *Generator) {
		g.model = model
		g.temperature = temperature
	}
}

// WithTimeout bounds a whole generation, including reading the stream.
func WithTimeout(d time.Duration) Option {
	return func(g *Generator) { g.timeout = d }
}

// WithMaxTokens caps the answer length.
func WithMaxTokens(n int) Option {
	return func(g *Generator) { g.maxTokens = n }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(g *Generator) { g.logger = l }
}

// New returns a Generator backed by provider.
func New(provider llm.Provider, opts ...Option) *Generator {
	g := &Generator{
		provider:  provider,
		maxTokens: DefaultMaxTokens,
		logger:    zap.NewNop(),
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

func (g *Generator) request(prompt string) llm.CompletionRequest {
	return llm.Prompt(g.model, prompt, g.maxTokens, g.temperature)
}

func (g *Generator) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if g.timeout > 0 {
		return context.WithTimeout(ctx, g.timeout)
	}
	return context.WithCancel(ctx)
}

// Invoke returns the complete answer.
func (g *Generator) Invoke(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	resp, err := g.provider.Complete(ctx, g.request(prompt))
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrGenerationFailed, g.provider.Name(), err)
	}
	g.logUsage(prompt, resp.Content, resp.InputTokens, resp.OutputTokens, time.Since(start))
	return resp.Content, nil
}

// Stream starts an answer and returns its fragments as they arrive.
func (g *Generator) Stream(ctx context.Context, prompt string) (*Stream, error) {
	ctx, cancel := g.withTimeout(ctx)

	s, err := llm.StreamCompletion(ctx, g.provider, g.request(prompt))
	if err != nil {
		cancel()
		return nil, fmt.Errorf("%w: %s: %w", ErrGenerationFailed, g.provider.Name(), err)
	}
	return &Stream{
		src:    s,
		ctx:    ctx,
		cancel: cancel,
		start:  time.Now(),
		prompt: prompt,
		gen:    g,
	}, nil
}

func (g *Generator) logUsage(prompt, answer string, in, out int, elapsed time.Duration) {
	if in == 0 {
		in = llm.EstimateTokens(prompt)
	}
	if out == 0 {
		out = llm.EstimateTokens(answer)
	}
	g.logger.Debug("answer generated",
		zap.String("provider", g.provider.Name()),
		zap.String("model", g.model),
		zap.Int("input_tokens", in),
		zap.Int("output_tokens", out),
		zap.Float64("estimated_cost_usd", llm.EstimateCost(g.model, in, out)),
		zap.Duration("elapsed", elapsed))
}

// Stream is a finite, forward-only sequence of answer fragments. It cannot
// be restarted. Close cancels the underlying request.
type Stream struct {
	src    llm.Stream
	ctx    context.Context
	cancel context.CancelFunc
	start  time.Time
	prompt string
	gen    *Generator

	text   strings.Builder
	err    error
	done   bool
	closed bool
}

// Next returns the next fragment. It returns false once the answer is
// complete or has failed; Err distinguishes the two.
func (s *Stream) Next() (string, bool) {
	for !s.done {
		frag, err := s.src.Recv()
		if err != nil {
			s.done = true
			if !errors.Is(err, io.EOF) {
				if ctxErr := s.ctx.Err(); ctxErr != nil {
					err = ctxErr
				}
				s.err = fmt.Errorf("%w: %s: %w", ErrGenerationFailed, s.gen.provider.Name(), err)
			} else {
				s.gen.logUsage(s.prompt, s.text.String(), 0, 0, time.Since(s.start))
			}
			s.Close()
			return "", false
		}
		if frag == "" {
			continue
		}
		s.text.WriteString(frag)
		return frag, true
	}
	return "", false
}

// Err returns the error that ended the stream, if any.
func (s *Stream) Err() error { return s.err }

// Text returns the fragments received so far, concatenated.
func (s *Stream) Text() string { return s.text.String() }

// Close releases the stream. It is safe to call more than once.
func (s *Stream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.done = true
	err := s.src.Close()
	s.cancel()
	return err
}
