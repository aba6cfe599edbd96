package llm

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"
)

// OllamaProvider implements Provider and Streamer on top of the Ollama
// client library.
type OllamaProvider struct {
	baseURL string
	model   string
	client  *api.Client
}

// NewOllamaProvider creates a new Ollama provider for the server at baseURL.
func NewOllamaProvider(baseURL string, model string) (*OllamaProvider, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing ollama host %q: %w", baseURL, err)
	}
	return &OllamaProvider{
		baseURL: baseURL,
		model:   model,
		client:  api.NewClient(u, http.DefaultClient),
	}, nil
}

func (p *OllamaProvider) Name() string {
	return "ollama"
}

func (p *OllamaProvider) buildRequest(req CompletionRequest, stream bool) *api.ChatRequest {
	model := req.Model
	if model == "" {
		model = p.model
	}

	messages := make([]api.Message, 0, len(req.Messages))
	for _, msg := range req.Messages {
		messages = append(messages, api.Message{
			Role:    string(msg.Role),
			Content: msg.Content,
		})
	}

	options := map[string]any{"temperature": req.Temperature}
	if req.MaxTokens > 0 {
		options["num_predict"] = req.MaxTokens
	}

	chatReq := &api.ChatRequest{
		Model:    model,
		Messages: messages,
		Stream:   &stream,
		Options:  options,
	}
	return chatReq
}

func (p *OllamaProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	var (
		content strings.Builder
		last    api.ChatResponse
	)
	err := p.client.Chat(ctx, p.buildRequest(req, false), func(resp api.ChatResponse) error {
		content.WriteString(resp.Message.Content)
		last = resp
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ollama chat: %w", err)
	}

	return &CompletionResponse{
		Content:      content.String(),
		InputTokens:  last.PromptEvalCount,
		OutputTokens: last.EvalCount,
		Model:        last.Model,
		FinishReason: last.DoneReason,
	}, nil
}

func (p *OllamaProvider) Stream(ctx context.Context, req CompletionRequest) (Stream, error) {
	chatReq := p.buildRequest(req, true)
	return newCallbackStream(ctx, func(ctx context.Context, emit func(string) error) error {
		done := false
		err := p.client.Chat(ctx, chatReq, func(resp api.ChatResponse) error {
			if resp.Done {
				done = true
			}
			if resp.Message.Content == "" {
				return nil
			}
			return emit(resp.Message.Content)
		})
		if err != nil {
			return fmt.Errorf("ollama chat: %w", err)
		}
		if !done {
			return fmt.Errorf("ollama chat: %w", io.ErrUnexpectedEOF)
		}
		return nil
	}), nil
}
