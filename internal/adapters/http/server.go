// Package http exposes a read-only admin surface over an App: liveness,
// build info, Prometheus metrics, the current list view and a server-sent
// event stream of view changes.
package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/todosoa"
	"github.com/aretw0/todosoa/pkg/view"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// App is the part of todosoa.App the admin surface reads.
type App interface {
	View() *view.Model
}

// Server serves the admin routes.
type Server struct {
	App      App
	Gatherer prometheus.Gatherer
	Info     map[string]string
	Logger   *slog.Logger
}

// NewHandler creates the admin HTTP handler. gatherer may be nil, in which
// case /metrics serves the default registry.
func NewHandler(app App, gatherer prometheus.Gatherer, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		App:      app,
		Gatherer: gatherer,
		Logger:   logger,
		Info: map[string]string{
			"app":     "todosoa-admin",
			"version": strings.TrimSpace(todosoa.Version),
		},
	}

	r := chi.NewRouter()
	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	} else {
		r.Handle("/metrics", promhttp.Handler())
	}
	r.Get("/view", s.GetView)
	r.Get("/events", s.SubscribeEvents)
	return r
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, s.Info)
}

// GetView handles the GET /view request with a snapshot of the list view.
func (s *Server) GetView(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, s.App.View().Snapshot())
}

// SubscribeEvents handles the GET /events request (SSE). Each view change
// is sent as an event named after the change kind.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	changes, cancel := s.App.View().Subscribe()
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	stream(r.Context(), w, flusher, changes, s.Logger)
}

func stream(ctx context.Context, w http.ResponseWriter, flusher http.Flusher, changes <-chan view.Change, logger *slog.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case change, ok := <-changes:
			if !ok {
				return
			}
			data, err := json.Marshal(change)
			if err != nil {
				logger.Error("View event encode failed", "error", err)
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", change.Kind, data)
			flusher.Flush()
		}
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Logger.Error("Response encode failed", "error", err)
	}
}
