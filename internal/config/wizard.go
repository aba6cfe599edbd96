package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/manifoldco/promptui"
)

// RunWizard runs an interactive configuration wizard, saves the result to
// path and returns it.
func RunWizard(path string) (*Config, error) {
	fmt.Println("Welcome to esgassist! Let's configure the assistant.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. Answer provider.
	providerPrompt := promptui.Select{
		Label: "Select LLM provider for answers",
		Items: []string{"google", "openai", "anthropic", "ollama"},
	}
	_, providerStr, err := providerPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("provider selection: %w", err)
	}
	cfg.Provider = ProviderType(providerStr)

	// 2. Quality tier.
	qualityPrompt := promptui.Select{
		Label: "Select quality tier",
		Items: []string{
			"lite   - fast & cheap",
			"normal - balanced",
			"max    - highest quality",
		},
	}
	qualityIdx, _, err := qualityPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("quality selection: %w", err)
	}
	tiers := []QualityTier{QualityLite, QualityNormal, QualityMax}
	cfg.Quality = tiers[qualityIdx]
	cfg.Model = GetPreset(cfg.Provider, cfg.Quality).Model

	// 3. Embedding provider.
	embPrompt := promptui.Select{
		Label: "Select embedding provider",
		Items: []string{"ollama", "google", "openai"},
	}
	_, embStr, err := embPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("embedding provider selection: %w", err)
	}
	cfg.EmbeddingProvider = ProviderType(embStr)
	cfg.EmbeddingModel = GetPreset(cfg.EmbeddingProvider, cfg.Quality).EmbeddingModel

	// 4. Language.
	langPrompt := promptui.Select{
		Label: "Answer language",
		Items: []string{"tr", "en"},
	}
	_, cfg.Language, err = langPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("language selection: %w", err)
	}

	// 5. Document directory.
	dataPrompt := promptui.Prompt{
		Label:   "Directory containing the PDF documents",
		Default: cfg.DataDir,
		Validate: func(s string) error {
			if s == "" {
				return fmt.Errorf("directory is required")
			}
			return nil
		},
	}
	cfg.DataDir, err = dataPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("data dir: %w", err)
	}

	// 6. Passages per query.
	topKPrompt := promptui.Prompt{
		Label:   "Passages retrieved per query",
		Default: strconv.Itoa(cfg.Retrieval.TopK),
		Validate: func(s string) error {
			n, err := strconv.Atoi(s)
			if err != nil || n <= 0 {
				return fmt.Errorf("enter a positive number")
			}
			return nil
		},
	}
	topKStr, err := topKPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("top k: %w", err)
	}
	cfg.Retrieval.TopK, _ = strconv.Atoi(topKStr)

	for _, p := range []ProviderType{cfg.Provider, cfg.EmbeddingProvider} {
		if envVar := APIKeyEnvVar(p); envVar != "" && os.Getenv(envVar) == "" {
			fmt.Printf("\nNote: Set %s in your environment (or .env) before running esgassist.\n", envVar)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Save(path); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", path)
	return cfg, nil
}
