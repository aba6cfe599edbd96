package llm

import (
	"fmt"
	"os"
)

// NewProvider creates a new LLM provider based on the given provider type and model.
// Supported provider types: "anthropic", "openai", "google", "ollama".
// apiKey is required for every provider except ollama, which reads
// OLLAMA_HOST instead.
func NewProvider(providerType string, model string, apiKey string) (Provider, error) {
	switch providerType {
	case "anthropic":
		if apiKey == "" {
			return nil, fmt.Errorf("anthropic provider requires an API key")
		}
		return NewAnthropicProvider(apiKey, model), nil

	case "openai":
		if apiKey == "" {
			return nil, fmt.Errorf("openai provider requires an API key")
		}
		return NewOpenAIProvider(apiKey, model, os.Getenv("OPENAI_BASE_URL")), nil

	case "google":
		if apiKey == "" {
			return nil, fmt.Errorf("google provider requires an API key")
		}
		return NewGoogleProvider(apiKey, model), nil

	case "ollama":
		return NewOllamaProvider(OllamaHost(), model)

	default:
		return nil, fmt.Errorf("unsupported provider type: %s", providerType)
	}
}

// OllamaHost returns OLLAMA_HOST, defaulting to the local server.
func OllamaHost() string {
	host := os.Getenv("OLLAMA_HOST")
	if host == "" {
		return "http://localhost:11434"
	}
	return host
}
