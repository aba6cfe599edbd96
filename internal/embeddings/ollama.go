package embeddings

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync/atomic"

	"github.com/ollama/ollama/api"
)

const defaultOllamaBaseURL = "http://localhost:11434"

// ollamaDimensions lists output sizes of common embedding models.
var ollamaDimensions = map[string]int{
	"paraphrase-multilingual": 768,
	"nomic-embed-text":        768,
	"mxbai-embed-large":       1024,
	"bge-m3":                  1024,
	"all-minilm":              384,
}

// OllamaEmbedder generates embeddings using a local Ollama instance.
type OllamaEmbedder struct {
	model      string
	dimensions atomic.Int64
	client     *api.Client
}

// NewOllamaEmbedder creates a new Ollama embedder.
// model is the Ollama model name (e.g. "paraphrase-multilingual").
// baseURL defaults to http://localhost:11434 if empty.
func NewOllamaEmbedder(model string, baseURL string) (*OllamaEmbedder, error) {
	if baseURL == "" {
		baseURL = defaultOllamaBaseURL
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing ollama host %q: %w", baseURL, err)
	}
	e := &OllamaEmbedder{
		model:  model,
		client: api.NewClient(u, http.DefaultClient),
	}
	e.dimensions.Store(int64(ollamaDimensions[model]))
	return e, nil
}

func (e *OllamaEmbedder) Name() string {
	return "ollama/" + e.model
}

// Dimensions returns the known size for the model, or the size observed on
// the first successful call.
func (e *OllamaEmbedder) Dimensions() int {
	return int(e.dimensions.Load())
}

func (e *OllamaEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	resp, err := e.client.Embed(ctx, &api.EmbedRequest{
		Model: e.model,
		Input: texts,
	})
	if err != nil {
		return nil, fmt.Errorf("ollama embedding request failed: %w", err)
	}
	if err := checkBatch("ollama", resp.Embeddings, len(texts)); err != nil {
		return nil, err
	}
	e.dimensions.CompareAndSwap(0, int64(len(resp.Embeddings[0])))
	return resp.Embeddings, nil
}
