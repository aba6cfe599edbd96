package embeddings

import (
	"fmt"
	"os"
)

// New creates an Embedder for the given provider ("openai", "google",
// "ollama") and model. apiKey is ignored for ollama, which reads OLLAMA_HOST.
func New(provider, model, apiKey string) (Embedder, error) {
	switch provider {
	case "openai":
		if apiKey == "" {
			return nil, fmt.Errorf("openai embeddings require an API key")
		}
		return NewOpenAIEmbedder(apiKey, OpenAIModel(model), os.Getenv("OPENAI_BASE_URL")), nil
	case "google":
		if apiKey == "" {
			return nil, fmt.Errorf("google embeddings require an API key")
		}
		return NewGoogleEmbedder(apiKey, GoogleModel(model)), nil
	case "ollama":
		return NewOllamaEmbedder(model, os.Getenv("OLLAMA_HOST"))
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", provider)
	}
}
