// internal/api/api.go
// Local HTTP status endpoint for a running chat session.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/erilali/jimclient/internal/logger"
	"github.com/erilali/jimclient/internal/session"
)

const (
	version         = "1.0.0"
	shutdownTimeout = 2 * time.Second
)

// StatusSource is implemented by *session.Session.
type StatusSource interface {
	Status() session.Status
}

// ArchiveState is implemented by *archive.Recorder. A nil ArchiveState means
// archiving is disabled.
type ArchiveState interface {
	Connected() bool
}

type Health struct {
	Status  string         `json:"status"`
	Session session.Status `json:"session"`
	Archive string         `json:"archive"`
	Version string         `json:"version"`
}

type Server struct {
	addr    string
	session StatusSource
	archive ArchiveState
	log     *logger.Logger
}

func NewServer(addr string, sess StatusSource, archive ArchiveState, log *logger.Logger) *Server {
	return &Server{addr: addr, session: sess, archive: archive, log: log}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.health)
	return mux
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	h := Health{
		Status:  "ok",
		Session: s.session.Status(),
		Archive: "disabled",
		Version: version,
	}
	if h.Session.Closed {
		h.Status = "closed"
	}
	if s.archive != nil {
		h.Archive = "disconnected"
		if s.archive.Connected() {
			h.Archive = "connected"
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(h); err != nil {
		s.log.Errorf("Error encoding health response: %v", err)
	}
}

// Run serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("Status server started at %s", s.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
