package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ziadkadry99/esg-assistant/internal/assistant"
	"github.com/ziadkadry99/esg-assistant/internal/dashboard"
	"github.com/ziadkadry99/esg-assistant/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web chat server",
	Long:  `Starts an HTTP server with the browser chat, a JSON/WebSocket API, the risk taxonomy page and Prometheus metrics.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().Int("port", 0, "port to listen on (overrides server.port)")
	serveCmd.Flags().Duration("session-ttl", 30*time.Minute, "discard idle chat sessions after this long")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	port, _ := cmd.Flags().GetInt("port")
	ttl, _ := cmd.Flags().GetDuration("session-ttl")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if port > 0 {
		cfg.Server.Port = port
	}

	srv := server.New(server.Config{
		Port:        cfg.Server.Port,
		CORSOrigins: cfg.Server.CORSOrigins,
	}, logger)
	metrics := assistant.NewMetrics(srv.Registry())

	svc, err := newService(ctx, cfg, serviceOptions{metrics: metrics})
	if err != nil {
		return err
	}

	sessions := assistant.NewSessions(svc, ttl)
	dashboard.New(svc, sessions, logger).RegisterRoutes(srv.Router())
	srv.SetReady(func() bool { return svc.Index().Count() > 0 })

	go pruneSessions(ctx, sessions, ttl)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()
	fmt.Fprintf(cmd.ErrOrStderr(), "esgassist listening on http://localhost:%d\n", cfg.Server.Port)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logger.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}

func pruneSessions(ctx context.Context, sessions *assistant.Sessions, ttl time.Duration) {
	interval := ttl / 2
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := sessions.Prune(now); n > 0 {
				logger.Debug("pruned idle sessions", zap.Int("count", n))
			}
		}
	}
}
