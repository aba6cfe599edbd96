package cmd

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ziadkadry99/esg-assistant/internal/assistant"
	"github.com/ziadkadry99/esg-assistant/internal/config"
	"github.com/ziadkadry99/esg-assistant/internal/progress"
)

// loadConfig loads the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `esgassist init` to create a config file", err)
	}
	return cfg, nil
}

// serviceOptions tunes how a command builds the assistant.
type serviceOptions struct {
	rebuild bool
	quiet   bool
	metrics *assistant.Metrics
}

// loadService loads the config and builds the assistant from it.
func loadService(ctx context.Context, opts serviceOptions) (*assistant.Service, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return newService(ctx, cfg, opts)
}

// newService builds the assistant, indexing the documents on first use.
func newService(ctx context.Context, cfg *config.Config, opts serviceOptions) (*assistant.Service, error) {
	reporter := progress.NewReporter("Indexing documents")
	if opts.quiet {
		reporter = progress.Nop()
	}

	svc, err := assistant.New(ctx, cfg, assistant.Deps{
		Logger:   logger,
		Progress: reporter,
		Metrics:  opts.metrics,
		Rebuild:  opts.rebuild,
	})
	if err != nil {
		return nil, err
	}
	logger.Debug("assistant ready",
		zap.String("provider", string(cfg.Provider)),
		zap.String("model", cfg.Model),
		zap.Int("passages", svc.Index().Count()),
		zap.Bool("built", svc.Built()))
	return svc, nil
}
