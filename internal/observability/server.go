// Package observability provides the optional local status server:
// health, Prometheus metrics, and a live view of the running session's
// transcript.
package observability

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"transcribe-cli/internal/observability/logging"
	"transcribe-cli/internal/transcript"
)

// Server serves the status endpoints for a streaming session.
type Server struct {
	server *http.Server
	hub    *Hub
	stop   chan struct{}
	addr   string
}

// NewServer builds the status server around the session's transcript.
func NewServer(addr string, builder *transcript.Builder) *Server {
	hub := NewHub()

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Get("/transcript", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(struct {
				Lines []transcript.Line `json:"lines"`
				Text  string            `json:"text"`
			}{
				Lines: builder.Lines(),
				Text:  builder.Text(),
			})
		})
		r.Get("/live", hub.Handler())
	})

	return &Server{
		addr: addr,
		hub:  hub,
		stop: make(chan struct{}),
		server: &http.Server{
			Addr:         addr,
			Handler:      r,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
}

// Hub returns the live transcript feed.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Start runs the hub and the HTTP listener in the background.
func (s *Server) Start() {
	go s.hub.Run(s.stop)
	go func() {
		logger := logging.WithComponent("status")
		logger.Info().Str("addr", s.addr).Msg("Status server listening")
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("Status server error")
		}
	}()
}

// Shutdown stops the listener and disconnects live viewers.
func (s *Server) Shutdown(ctx context.Context) error {
	close(s.stop)
	return s.server.Shutdown(ctx)
}
