package llm

import (
	"context"
	"io"
)

// Provider defines the interface for LLM providers.
type Provider interface {
	// Complete sends a completion request and returns the response.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
	// Name returns the name of this provider.
	Name() string
}

// Streamer is implemented by providers that can deliver a completion
// incrementally.
type Streamer interface {
	Stream(ctx context.Context, req CompletionRequest) (Stream, error)
}

// Stream yields completion text fragments in order. Recv returns io.EOF
// once the completion is finished. A Stream cannot be restarted; Close
// releases the underlying connection and may be called at any time.
type Stream interface {
	Recv() (string, error)
	Close() error
}

// StreamCompletion streams from p when it supports streaming, and otherwise
// runs Complete and yields its content as a single fragment.
func StreamCompletion(ctx context.Context, p Provider, req CompletionRequest) (Stream, error) {
	if s, ok := p.(Streamer); ok {
		return s.Stream(ctx, req)
	}
	resp, err := p.Complete(ctx, req)
	if err != nil {
		return nil, err
	}
	return NewSingleStream(resp.Content), nil
}

// NewSingleStream returns a Stream that yields text once.
func NewSingleStream(text string) Stream {
	return &singleStream{text: text}
}

type singleStream struct {
	text string
	done bool
}

func (s *singleStream) Recv() (string, error) {
	if s.done {
		return "", io.EOF
	}
	s.done = true
	return s.text, nil
}

func (s *singleStream) Close() error {
	s.done = true
	return nil
}
