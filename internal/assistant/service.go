// Package assistant wires the retrieval pipeline into a long-lived service
// and per-user chat sessions.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ziadkadry99/esg-assistant/internal/chunker"
	"github.com/ziadkadry99/esg-assistant/internal/config"
	"github.com/ziadkadry99/esg-assistant/internal/embeddings"
	"github.com/ziadkadry99/esg-assistant/internal/generator"
	"github.com/ziadkadry99/esg-assistant/internal/llm"
	"github.com/ziadkadry99/esg-assistant/internal/loader"
	"github.com/ziadkadry99/esg-assistant/internal/progress"
	"github.com/ziadkadry99/esg-assistant/internal/prompt"
	"github.com/ziadkadry99/esg-assistant/internal/retrieval"
	"github.com/ziadkadry99/esg-assistant/internal/vectordb"
)

// ExcerptLength is the number of runes of a passage shown as a source.
const ExcerptLength = 500

// Deps overrides how the service reaches the outside world. Zero values
// select the real implementations.
type Deps struct {
	Logger    *zap.Logger
	Extractor loader.Extractor
	// NewProvider builds the answer model client once credentials are known.
	NewProvider func(cfg *config.Config, apiKey string) (llm.Provider, error)
	// NewEmbedder builds the embedding client once credentials are known.
	NewEmbedder func(cfg *config.Config, apiKey string) (embeddings.Embedder, error)
	Progress    progress.Reporter
	Metrics     *Metrics
	// Rebuild discards any existing index snapshot.
	Rebuild bool
}

// DefaultProvider builds the configured LLM provider, rate limited when
// requests_per_minute is set.
func DefaultProvider(cfg *config.Config, apiKey string) (llm.Provider, error) {
	p, err := llm.NewProvider(string(cfg.Provider), cfg.Model, apiKey)
	if err != nil {
		return nil, err
	}
	if cfg.RequestsPerMinute > 0 {
		return llm.NewRateLimitedProvider(p, cfg.RequestsPerMinute), nil
	}
	return p, nil
}

// DefaultEmbedder builds the configured embedder.
func DefaultEmbedder(cfg *config.Config, apiKey string) (embeddings.Embedder, error) {
	return embeddings.New(string(cfg.EmbeddingProvider), cfg.EmbeddingModel, apiKey)
}

// Service holds everything that is built once per process: the index, the
// model clients and the prompt templates. It is read-only after New and
// shared by all sessions.
type Service struct {
	cfg       *config.Config
	logger    *zap.Logger
	metrics   *Metrics
	index     *vectordb.Index
	built     bool
	direct    *retrieval.Direct
	retriever retrieval.Retriever
	prompts   *prompt.Assembler
	generator *generator.Generator
}

// New validates the configuration, resolves credentials, then loads or
// builds the index. Credentials are checked before any client is created,
// so a missing key never results in a network call. A missing or empty
// document directory is reported as config.ErrConfiguration wrapping
// loader.ErrNoDocuments or loader.ErrMissingDir.
func New(ctx context.Context, cfg *config.Config, deps Deps) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	creds, err := cfg.ResolveCredentials()
	if err != nil {
		return nil, err
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if deps.NewProvider == nil {
		deps.NewProvider = DefaultProvider
	}
	if deps.NewEmbedder == nil {
		deps.NewEmbedder = DefaultEmbedder
	}
	if deps.Extractor == nil {
		ex, err := loader.NewExtractor(cfg.PDFExtractor)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", config.ErrConfiguration, err)
		}
		deps.Extractor = ex
	}

	docs, err := loader.Discover(cfg.DataDir, cfg.Include)
	if err != nil {
		if errors.Is(err, loader.ErrNoDocuments) || errors.Is(err, loader.ErrMissingDir) {
			return nil, fmt.Errorf("%w: %w", config.ErrConfiguration, err)
		}
		return nil, err
	}
	fingerprint, err := loader.Fingerprint(docs)
	if err != nil {
		return nil, err
	}

	prompts, err := prompt.New(cfg.Language)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", config.ErrConfiguration, err)
	}
	ch, err := chunker.New(chunker.WithChunkSize(cfg.Retrieval.ChunkSize), chunker.WithOverlap(cfg.Retrieval.ChunkOverlap))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", config.ErrConfiguration, err)
	}

	embedder, err := deps.NewEmbedder(cfg, creds.Embedding)
	if err != nil {
		return nil, fmt.Errorf("%w: embedder: %w", config.ErrConfiguration, err)
	}
	provider, err := deps.NewProvider(cfg, creds.LLM)
	if err != nil {
		return nil, fmt.Errorf("%w: llm provider: %w", config.ErrConfiguration, err)
	}

	idx, built, err := vectordb.Open(ctx, embedder, vectordb.OpenOptions{
		Root: cfg.IndexDir,
		Params: vectordb.Params{
			ChunkSize:    cfg.Retrieval.ChunkSize,
			ChunkOverlap: cfg.Retrieval.ChunkOverlap,
			Corpus:       fingerprint,
		},
		Rebuild: deps.Rebuild,
		Chunks: func(ctx context.Context) ([]chunker.Chunk, error) {
			pages, err := loader.Load(ctx, cfg.DataDir, cfg.Include, deps.Extractor, logger)
			if err != nil {
				if errors.Is(err, loader.ErrNoDocuments) {
					return nil, fmt.Errorf("%w: %w", config.ErrConfiguration, err)
				}
				return nil, err
			}
			chunks := ch.Split(pages)
			logger.Info("documents chunked",
				zap.Int("documents", len(docs)),
				zap.Int("pages", len(pages)),
				zap.Int("chunks", len(chunks)))
			return chunks, nil
		},
		Build: vectordb.BuildOptions{
			BatchTimeout: cfg.Timeouts.Embedding,
			Progress:     deps.Progress,
			Logger:       logger,
		},
	})
	if err != nil {
		return nil, err
	}

	direct := retrieval.NewDirect(idx, embedder, cfg.Retrieval.TopK, cfg.Timeouts.Embedding, logger)
	var retriever retrieval.Retriever = direct
	if cfg.Retrieval.MultiQuery {
		retriever = retrieval.NewMultiQuery(direct, provider, prompts,
			retrieval.WithAlternatives(cfg.Retrieval.NumQueries),
			retrieval.WithModel(cfg.Model, cfg.Temperature),
			retrieval.WithExpansionTimeout(cfg.Timeouts.Expansion),
			retrieval.WithLogger(logger))
	}

	gen := generator.New(provider,
		generator.WithModel(cfg.Model, cfg.Temperature),
		generator.WithTimeout(cfg.Timeouts.Generation),
		generator.WithLogger(logger))

	return &Service{
		cfg:       cfg,
		logger:    logger,
		metrics:   deps.Metrics,
		index:     idx,
		built:     built,
		direct:    direct,
		retriever: retriever,
		prompts:   prompts,
		generator: gen,
	}, nil
}

// Config returns the configuration the service was built with.
func (s *Service) Config() *config.Config { return s.cfg }

// Index returns the shared vector index.
func (s *Service) Index() *vectordb.Index { return s.index }

// Built reports whether New built the index rather than loading a snapshot.
func (s *Service) Built() bool { return s.built }

// Greeting is the first assistant turn of every conversation.
func (s *Service) Greeting() string { return prompt.Greeting(s.cfg.Language) }

// ExampleQuestions returns sample questions in the configured language.
func (s *Service) ExampleQuestions() []string { return prompt.ExampleQuestions(s.cfg.Language) }

// Fallback returns the phrase the model uses when the documents do not
// answer a question.
func (s *Service) Fallback() string { return s.prompts.Fallback() }

// Search retrieves passages without generating an answer. expand selects
// the query-expanding retriever when it is enabled.
func (s *Service) Search(ctx context.Context, question string, expand bool) ([]vectordb.Result, error) {
	if expand {
		return s.retriever.Retrieve(ctx, question)
	}
	return s.direct.Retrieve(ctx, question)
}

// Source is a passage shown as provenance for an answer. Page is one-based.
type Source struct {
	Document   string  `json:"document"`
	Page       int     `json:"page"`
	Excerpt    string  `json:"excerpt"`
	Similarity float32 `json:"similarity"`
}

// Answer is a completed answer with its sources.
type Answer struct {
	Question string   `json:"question"`
	Text     string   `json:"answer"`
	Sources  []Source `json:"sources"`
}

// NewSource converts a retrieval result for display.
func NewSource(r vectordb.Result) Source {
	return Source{
		Document:   r.Chunk.Document,
		Page:       r.Chunk.Page + 1,
		Excerpt:    Excerpt(r.Chunk.Text, ExcerptLength),
		Similarity: r.Similarity,
	}
}

// Excerpt returns the first n runes of text, followed by "..." when text
// is longer.
func Excerpt(text string, n int) string {
	text = strings.TrimSpace(text)
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n]) + "..."
}

// Ask answers one question without a session. onFragment, when not nil,
// receives the answer as it streams.
func (s *Service) Ask(ctx context.Context, question string, onFragment func(string)) (*Answer, error) {
	return s.answer(ctx, question, onFragment, nil)
}

func (s *Service) answer(ctx context.Context, question string, onFragment func(string), onState func(State)) (*Answer, error) {
	if onState == nil {
		onState = func(State) {}
	}
	if s.metrics != nil {
		s.metrics.Questions.Inc()
	}

	onState(AwaitingRetrieval)
	start := time.Now()
	results, err := s.retriever.Retrieve(ctx, question)
	if err != nil {
		s.fail("retrieval", err)
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.Retrieval.Observe(time.Since(start).Seconds())
		s.metrics.Passages.Observe(float64(len(results)))
	}

	passages := make([]string, len(results))
	sources := make([]Source, len(results))
	for i, r := range results {
		passages[i] = r.Chunk.Text
		sources[i] = NewSource(r)
	}
	p, err := s.prompts.Assemble(passages, question)
	if err != nil {
		return nil, err
	}

	onState(AwaitingGeneration)
	start = time.Now()
	stream, err := s.generator.Stream(ctx, p)
	if err != nil {
		s.fail("generation", err)
		return nil, err
	}
	defer stream.Close()
	for {
		frag, ok := stream.Next()
		if !ok {
			break
		}
		if onFragment != nil {
			onFragment(frag)
		}
	}
	if err := stream.Err(); err != nil {
		s.fail("generation", err)
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		s.fail("generation", err)
		return nil, fmt.Errorf("%w: %w", generator.ErrGenerationFailed, err)
	}
	if s.metrics != nil {
		s.metrics.Generation.Observe(time.Since(start).Seconds())
	}

	s.logger.Info("question answered",
		zap.Int("sources", len(sources)),
		zap.Int("answer_runes", len([]rune(stream.Text()))))
	return &Answer{Question: question, Text: stream.Text(), Sources: sources}, nil
}

func (s *Service) fail(stage string, err error) {
	if s.metrics != nil {
		s.metrics.Failures.WithLabelValues(stage).Inc()
	}
	s.logger.Warn("question failed", zap.String("stage", stage), zap.Error(err))
}

// UserMessage renders a turn-level error for display, without internals
// such as request bodies.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, retrieval.ErrRetrievalFailed):
		return "The documents could not be searched right now. Please try again."
	case errors.Is(err, generator.ErrGenerationFailed):
		return "The answer could not be generated right now. Please try again."
	case errors.Is(err, ErrBusy):
		return "Please wait for the current answer to finish."
	case errors.Is(err, ErrEmptyQuestion):
		return "Please enter a question."
	default:
		return "Something went wrong: " + err.Error()
	}
}
