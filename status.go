package main

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// StatusServer exposes the last cycle and the tail of the event log over
// HTTP.  It is read-only: nothing it serves can change what the control loop
// does.
type StatusServer struct {
	cfg    Config
	logger *EventLogger

	mu      sync.RWMutex
	last    Cycle
	cycles  int
	dangers int
	started time.Time
}

// NewStatusServer creates a server for the given configuration.
func NewStatusServer(cfg Config, logger *EventLogger) *StatusServer {
	return &StatusServer{cfg: cfg, logger: logger, started: time.Now()}
}

// Observe records a cycle.  Called from the control loop.
func (s *StatusServer) Observe(c Cycle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = c
	s.cycles++
	if c.Condition == ConditionDanger {
		s.dangers++
	}
}

// Handler returns the routes, all behind basic auth.
func (s *StatusServer) Handler() http.Handler {
	st := s.cfg.Status
	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", requireBasicAuth(st.Username, st.PasswordHash, s.handleStatus))
	mux.HandleFunc("/api/logs", requireBasicAuth(st.Username, st.PasswordHash, s.handleLogs))
	return mux
}

// Start serves until ctx is cancelled.  It uses TLS when a certificate and
// key are configured.
func (s *StatusServer) Start(ctx context.Context) error {
	st := s.cfg.Status
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", st.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		TLSConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	var err error
	if st.CertFile != "" && st.KeyFile != "" {
		s.logger.Log("status api listening on https://0.0.0.0%s", srv.Addr)
		err = srv.ListenAndServeTLS(st.CertFile, st.KeyFile)
	} else {
		s.logger.Log("status api listening on http://0.0.0.0%s", srv.Addr)
		err = srv.ListenAndServe()
	}
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// statusResponse is the body of /api/status.
type statusResponse struct {
	Threshold     int    `json:"threshold"`
	Cycles        int    `json:"cycles"`
	DangerCycles  int    `json:"danger_cycles"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	Last          *Cycle `json:"last,omitempty"`
}

// handleStatus returns the most recent cycle and counters.
func (s *StatusServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.mu.RLock()
	resp := statusResponse{
		Threshold:     s.cfg.Threshold,
		Cycles:        s.cycles,
		DangerCycles:  s.dangers,
		UptimeSeconds: int64(time.Since(s.started).Seconds()),
	}
	if s.cycles > 0 {
		last := s.last
		resp.Last = &last
	}
	s.mu.RUnlock()
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// logTailBytes bounds how much of the event log a single request reads.
const logTailBytes = 256 << 10

// handleLogs returns the end of the event log.  Accepts optional query
// parameter `lines=n` to limit number of lines returned.
func (s *StatusServer) handleLogs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	limit := 200
	if n, err := strconv.Atoi(r.URL.Query().Get("lines")); err == nil && n > 0 {
		limit = n
	}
	lines, err := tailLines(s.logger.FilePath(), limit, logTailBytes)
	if err != nil {
		http.Error(w, "log not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(lines)
}

// tailLines returns up to n complete lines from the last maxBytes of the
// file at path.  A line cut by the window start is dropped.
func tailLines(path string, n int, maxBytes int64) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	offset := info.Size() - maxBytes
	if offset < 0 {
		offset = 0
	}
	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return nil, err
	}
	data, err := io.ReadAll(io.LimitReader(f, maxBytes))
	if err != nil {
		return nil, err
	}
	text := string(data)
	if offset > 0 {
		// The first line may have been cut by the window start.
		if i := strings.IndexByte(text, '\n'); i >= 0 {
			text = text[i+1:]
		} else {
			text = ""
		}
	}
	lines := strings.Split(text, "\n")
	// Drop empty trailing line
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return lines, nil
}
