package diag

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"
)

// SessionCounter reports how many playback sessions are currently active.
type SessionCounter interface {
	ActiveSessions() int
}

// Server exposes a small HTTP diagnostics endpoint for liveness checks and
// basic runtime stats.
type Server struct {
	httpServer *http.Server
	counters   []SessionCounter
	started    time.Time
}

// NewServer creates a diagnostics server listening on addr.
func NewServer(addr string, counters ...SessionCounter) *Server {
	s := &Server{
		counters: counters,
		started:  time.Now(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealthz)

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return s
}

// Start begins serving in a background goroutine.
func (s *Server) Start() {
	go func() {
		slog.Info("diagnostics server listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("diagnostics server failed", "error", err)
		}
	}()
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

type healthResponse struct {
	Status         string `json:"status"`
	ActiveSessions int    `json:"active_sessions"`
	UptimeSeconds  int64  `json:"uptime_seconds"`
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	sessions := 0
	for _, counter := range s.counters {
		sessions += counter.ActiveSessions()
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(healthResponse{
		Status:         "ok",
		ActiveSessions: sessions,
		UptimeSeconds:  int64(time.Since(s.started) / time.Second),
	}); err != nil {
		slog.Warn("failed to write health response", "error", err)
	}
}
