package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix for environment variable overrides.
const EnvPrefix = "ESGASSIST_"

// ErrConfiguration marks problems that must stop the assistant before it
// serves anything: missing credentials, missing input directory, bad values.
var ErrConfiguration = errors.New("configuration error")

// LoadDotEnv loads KEY=value pairs from the given files into the process
// environment without overriding variables that are already set. Missing
// files are ignored.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("loading %s: %w", p, err)
		}
	}
	return nil
}

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (ESGASSIST_*). Nested keys use a double
// underscore: ESGASSIST_RETRIEVAL__TOP_K=5.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// Start from defaults.
	cfg := DefaultConfig()

	// Load YAML file if it exists.
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.ReplaceAll(key, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// validProviders is the set of recognized LLM provider values.
var validProviders = map[ProviderType]bool{
	ProviderAnthropic: true,
	ProviderOpenAI:    true,
	ProviderGoogle:    true,
	ProviderOllama:    true,
}

// validEmbeddingProviders excludes Anthropic, which has no embedding API.
var validEmbeddingProviders = map[ProviderType]bool{
	ProviderOpenAI: true,
	ProviderGoogle: true,
	ProviderOllama: true,
}

var validQualityTiers = map[QualityTier]bool{
	QualityLite:   true,
	QualityNormal: true,
	QualityMax:    true,
}

var validLanguages = map[string]bool{"tr": true, "en": true}

// Validate checks that the configuration contains valid values. Every
// failure wraps ErrConfiguration.
func (c *Config) Validate() error {
	if err := c.validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	return nil
}

func (c *Config) validate() error {
	if c.Provider == "" {
		return fmt.Errorf("provider is required")
	}
	if !validProviders[c.Provider] {
		return fmt.Errorf("invalid provider %q: must be one of anthropic, openai, google, ollama", c.Provider)
	}
	if c.Model == "" {
		return fmt.Errorf("model is required")
	}
	if c.EmbeddingProvider == "" {
		return fmt.Errorf("embedding_provider is required")
	}
	if !validEmbeddingProviders[c.EmbeddingProvider] {
		return fmt.Errorf("invalid embedding_provider %q: must be one of openai, google, ollama", c.EmbeddingProvider)
	}
	if c.EmbeddingModel == "" {
		return fmt.Errorf("embedding_model is required")
	}
	if c.Quality != "" && !validQualityTiers[c.Quality] {
		return fmt.Errorf("invalid quality %q: must be one of lite, normal, max", c.Quality)
	}
	if !validLanguages[c.Language] {
		return fmt.Errorf("invalid language %q: must be tr or en", c.Language)
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("temperature must be between 0 and 2")
	}
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}
	if c.IndexDir == "" {
		return fmt.Errorf("index_dir is required")
	}
	if c.PDFExtractor != ExtractorNative && c.PDFExtractor != ExtractorPdftotext {
		return fmt.Errorf("invalid pdf_extractor %q: must be native or pdftotext", c.PDFExtractor)
	}

	r := c.Retrieval
	if r.ChunkSize <= 0 {
		return fmt.Errorf("retrieval.chunk_size must be positive")
	}
	if r.ChunkOverlap < 0 || r.ChunkOverlap >= r.ChunkSize {
		return fmt.Errorf("retrieval.chunk_overlap must be in [0, chunk_size)")
	}
	if r.TopK <= 0 {
		return fmt.Errorf("retrieval.top_k must be positive")
	}
	if r.NumQueries < 0 {
		return fmt.Errorf("retrieval.num_queries must be non-negative")
	}

	if c.Timeouts.Embedding <= 0 || c.Timeouts.Expansion <= 0 || c.Timeouts.Generation <= 0 {
		return fmt.Errorf("all timeouts must be positive")
	}
	if c.RequestsPerMinute < 0 {
		return fmt.Errorf("requests_per_minute must be non-negative")
	}
	return nil
}

// APIKeyEnvVar returns the conventional environment variable name for
// the API key of the given provider.
func APIKeyEnvVar(provider ProviderType) string {
	switch provider {
	case ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	case ProviderGoogle:
		return "GOOGLE_API_KEY"
	default:
		return ""
	}
}

// RequireCredential returns the API key for the provider or an
// ErrConfiguration naming the variable that must be set. Providers that need
// no key return "". The key itself never appears in the error.
func RequireCredential(provider ProviderType) (string, error) {
	envVar := APIKeyEnvVar(provider)
	if envVar == "" {
		return "", nil
	}
	key := strings.TrimSpace(os.Getenv(envVar))
	if key == "" {
		return "", fmt.Errorf("%w: %s is not set; export it or add it to .env", ErrConfiguration, envVar)
	}
	return key, nil
}

// Credentials resolves the API keys for the generation and embedding
// providers.
type Credentials struct {
	LLM       string
	Embedding string
}

// ResolveCredentials checks both configured providers. It performs no
// network access.
func (c *Config) ResolveCredentials() (Credentials, error) {
	llmKey, err := RequireCredential(c.Provider)
	if err != nil {
		return Credentials{}, err
	}
	embKey, err := RequireCredential(c.EmbeddingProvider)
	if err != nil {
		return Credentials{}, err
	}
	return Credentials{LLM: llmKey, Embedding: embKey}, nil
}
