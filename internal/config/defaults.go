package config

import (
	"os"
	"path/filepath"
	"time"
)

// QualityPreset describes the models to use for a given quality tier.
type QualityPreset struct {
	Model          string
	EmbeddingModel string
}

// qualityPresets maps each provider+quality combination to its model choices.
// EmbeddingModel is only used when the provider also serves embeddings.
var qualityPresets = map[ProviderType]map[QualityTier]QualityPreset{
	ProviderGoogle: {
		QualityLite:   {Model: "gemini-2.5-flash", EmbeddingModel: "text-embedding-004"},
		QualityNormal: {Model: "gemini-pro-latest", EmbeddingModel: "text-embedding-004"},
		QualityMax:    {Model: "gemini-2.5-pro", EmbeddingModel: "text-embedding-004"},
	},
	ProviderOpenAI: {
		QualityLite:   {Model: "gpt-4o-mini", EmbeddingModel: "text-embedding-3-small"},
		QualityNormal: {Model: "gpt-4o", EmbeddingModel: "text-embedding-3-small"},
		QualityMax:    {Model: "gpt-4.1", EmbeddingModel: "text-embedding-3-large"},
	},
	ProviderAnthropic: {
		QualityLite:   {Model: "claude-haiku-4-5-20251001"},
		QualityNormal: {Model: "claude-sonnet-4-5-20250929"},
		QualityMax:    {Model: "claude-opus-4-1-20250805"},
	},
	ProviderOllama: {
		QualityLite:   {Model: "llama3.2", EmbeddingModel: "paraphrase-multilingual"},
		QualityNormal: {Model: "llama3.1", EmbeddingModel: "paraphrase-multilingual"},
		QualityMax:    {Model: "llama3.1:70b", EmbeddingModel: "paraphrase-multilingual"},
	},
}

// DefaultConfig returns a Config with sensible defaults: Gemini for answers
// and a local multilingual Ollama model for embeddings.
func DefaultConfig() *Config {
	return &Config{
		Provider:          ProviderGoogle,
		Model:             "gemini-pro-latest",
		Temperature:       0.1,
		EmbeddingProvider: ProviderOllama,
		EmbeddingModel:    "paraphrase-multilingual",
		Quality:           QualityNormal,
		Language:          "tr",
		DataDir:           "data",
		Include:           "*.pdf",
		IndexDir:          filepath.Join(os.TempDir(), "esgassist"),
		PDFExtractor:      ExtractorNative,
		Retrieval: RetrievalConfig{
			ChunkSize:    1000,
			ChunkOverlap: 150,
			TopK:         7,
			NumQueries:   3,
			MultiQuery:   true,
		},
		Timeouts: TimeoutConfig{
			Embedding:  30 * time.Second,
			Expansion:  30 * time.Second,
			Generation: 120 * time.Second,
		},
		RequestsPerMinute: 60,
		Server: ServerConfig{
			Port:        8080,
			CORSOrigins: []string{"*"},
		},
	}
}

// GetPreset returns the quality preset for the given provider and tier.
// Returns the Normal Google preset if the combination is not found.
func GetPreset(provider ProviderType, tier QualityTier) QualityPreset {
	if tiers, ok := qualityPresets[provider]; ok {
		if preset, ok := tiers[tier]; ok {
			return preset
		}
	}
	return qualityPresets[ProviderGoogle][QualityNormal]
}
