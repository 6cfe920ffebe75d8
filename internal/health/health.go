// Package health provides the ops HTTP server.
//
// The server exposes three endpoints on a port separate from the public API:
//
//   - /healthz: liveness check; 200 once the daemon has started.
//   - /readyz: readiness check; 200 only when every registered [Checker] passes.
//   - /metrics: Prometheus scrape endpoint.
//
// Docker and Kubernetes use these endpoints to monitor the daemon.
package health

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nadzzz/ttsbroker/internal/scratch"
	"github.com/nadzzz/ttsbroker/internal/tts"
)

// checkTimeout is the maximum time a single readiness check may take.
const checkTimeout = 5 * time.Second

// Checker is a named readiness check. Check returns nil when the dependency
// is healthy.
type Checker struct {
	Name  string
	Check func(ctx context.Context) error
}

// EngineChecker fails while the speech engine's backend is unavailable.
func EngineChecker(s tts.Synthesizer) Checker {
	return Checker{
		Name: "engine",
		Check: func(context.Context) error {
			if !tts.Available(s) {
				return fmt.Errorf("%s: %w", s.Name(), tts.ErrBackendUnavailable)
			}
			return nil
		},
	}
}

// ScratchChecker fails when a scratch space cannot be created under dir.
func ScratchChecker(dir string) Checker {
	return Checker{
		Name: "scratch",
		Check: func(context.Context) error {
			sp, err := scratch.New(dir, "ttsbroker-readyz")
			if err != nil {
				return err
			}
			return sp.Release()
		},
	}
}

// result is the JSON response body for health endpoints.
type result struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Server is a lightweight HTTP server for health checks and metrics.
type Server struct {
	addr     string
	checkers []Checker
	ready    atomic.Bool

	mu     sync.Mutex
	server *http.Server
	bound  net.Addr
}

// New creates a new ops server bound to addr (host:port). The checkers are
// evaluated in order on each /readyz request.
func New(addr string, checkers ...Checker) *Server {
	return &Server{addr: addr, checkers: append([]Checker(nil), checkers...)}
}

// SetReady marks the daemon as started.
func (s *Server) SetReady(ready bool) {
	s.ready.Store(ready)
}

// Addr returns the bound address, or nil before ListenAndServe.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bound
}

// Handler returns the ops router.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.healthz)
	mux.HandleFunc("GET /readyz", s.readyz)
	mux.Handle("GET /metrics", promhttp.Handler())
	return mux
}

// ListenAndServe starts the ops server.
// It blocks until the context is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	lis, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("health server: %w", err)
	}
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.mu.Lock()
	s.server = srv
	s.bound = lis.Addr()
	s.mu.Unlock()

	slog.Info("health server listening", "addr", lis.Addr().String())

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.Serve(lis); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("health server: %w", err)
	}
	return nil
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	if !s.ready.Load() {
		writeJSON(w, http.StatusServiceUnavailable, result{Status: "not_ready"})
		return
	}
	writeJSON(w, http.StatusOK, result{Status: "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
	if !s.ready.Load() {
		writeJSON(w, http.StatusServiceUnavailable, result{Status: "not_ready"})
		return
	}

	checks := make(map[string]string, len(s.checkers))
	allOK := true
	for _, c := range s.checkers {
		ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
		err := c.Check(ctx)
		cancel()

		if err != nil {
			checks[c.Name] = "fail: " + err.Error()
			allOK = false
		} else {
			checks[c.Name] = "ok"
		}
	}

	res := result{Status: "ok", Checks: checks}
	status := http.StatusOK
	if !allOK {
		res.Status = "fail"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, res)
}

// writeJSON encodes v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
