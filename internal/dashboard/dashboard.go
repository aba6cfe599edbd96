// Package dashboard serves the web chat, its JSON API and the risk treemap.
package dashboard

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ziadkadry99/esg-assistant/internal/assistant"
)

// Dashboard provides the browser chat and session API.
type Dashboard struct {
	svc      *assistant.Service
	sessions *assistant.Sessions
	logger   *zap.Logger
}

// New creates a new Dashboard.
func New(svc *assistant.Service, sessions *assistant.Sessions, logger *zap.Logger) *Dashboard {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dashboard{svc: svc, sessions: sessions, logger: logger}
}

// RegisterRoutes mounts all dashboard routes onto the given router.
func (d *Dashboard) RegisterRoutes(r chi.Router) {
	r.Get("/", d.ServeIndex)
	r.Get("/risks", d.handleRiskPage)
	r.Get("/api/risks", d.handleRisks)
	r.Get("/api/info", d.handleInfo)
	r.Post("/api/search", d.handleSearch)

	r.Route("/api/sessions", func(r chi.Router) {
		r.Post("/", d.handleCreateSession)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", d.handleGetSession)
			r.Delete("/", d.handleDeleteSession)
			r.Post("/ask", d.handleAsk)
			r.Post("/clear", d.handleClear)
		})
	})

	r.Get("/ws/chat", d.handleWebSocket)
}
