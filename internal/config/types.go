package config

import "time"

// QualityTier controls the model selection and trade-off between speed/cost and quality.
type QualityTier string

const (
	QualityLite   QualityTier = "lite"
	QualityNormal QualityTier = "normal"
	QualityMax    QualityTier = "max"
)

// ProviderType identifies an LLM or embedding provider.
type ProviderType string

const (
	ProviderAnthropic ProviderType = "anthropic"
	ProviderOpenAI    ProviderType = "openai"
	ProviderGoogle    ProviderType = "google"
	ProviderOllama    ProviderType = "ollama"
)

// PDF text extraction backends.
const (
	ExtractorNative    = "native"
	ExtractorPdftotext = "pdftotext"
)

// Config is the top-level esgassist configuration, corresponding to .esgassist.yml.
type Config struct {
	Provider          ProviderType    `yaml:"provider" koanf:"provider"`
	Model             string          `yaml:"model" koanf:"model"`
	Temperature       float64         `yaml:"temperature" koanf:"temperature"`
	EmbeddingProvider ProviderType    `yaml:"embedding_provider" koanf:"embedding_provider"`
	EmbeddingModel    string          `yaml:"embedding_model" koanf:"embedding_model"`
	Quality           QualityTier     `yaml:"quality" koanf:"quality"`
	Language          string          `yaml:"language" koanf:"language"`
	DataDir           string          `yaml:"data_dir" koanf:"data_dir"`
	Include           string          `yaml:"include" koanf:"include"`
	IndexDir          string          `yaml:"index_dir" koanf:"index_dir"`
	PDFExtractor      string          `yaml:"pdf_extractor" koanf:"pdf_extractor"`
	Retrieval         RetrievalConfig `yaml:"retrieval" koanf:"retrieval"`
	Timeouts          TimeoutConfig   `yaml:"timeouts" koanf:"timeouts"`
	RequestsPerMinute int             `yaml:"requests_per_minute" koanf:"requests_per_minute"`
	Server            ServerConfig    `yaml:"server" koanf:"server"`
}

// RetrievalConfig holds chunking and search parameters. Changing ChunkSize
// or ChunkOverlap selects a different index snapshot.
type RetrievalConfig struct {
	ChunkSize    int  `yaml:"chunk_size" koanf:"chunk_size"`
	ChunkOverlap int  `yaml:"chunk_overlap" koanf:"chunk_overlap"`
	TopK         int  `yaml:"top_k" koanf:"top_k"`
	NumQueries   int  `yaml:"num_queries" koanf:"num_queries"`
	MultiQuery   bool `yaml:"multi_query" koanf:"multi_query"`
}

// TimeoutConfig bounds each external call.
type TimeoutConfig struct {
	Embedding  time.Duration `yaml:"embedding" koanf:"embedding"`
	Expansion  time.Duration `yaml:"expansion" koanf:"expansion"`
	Generation time.Duration `yaml:"generation" koanf:"generation"`
}

// ServerConfig holds settings for the serve command.
type ServerConfig struct {
	Port        int      `yaml:"port" koanf:"port"`
	CORSOrigins []string `yaml:"cors_origins" koanf:"cors_origins"`
}
