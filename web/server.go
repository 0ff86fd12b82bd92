// sudori - a sudoku solving and verification service.
// Copyright (C) 2026 the sudori authors.
//
// Licensed under the MIT license. See the LICENSE file for details.

// Package web is the HTTP shell around the solving engine: a JSON
// API for solving, verifying and candidate lookup, cookie sessions
// for play-along state, a websocket endpoint that replays solver
// traces, and prometheus metrics. The engine itself stays
// transport-free; everything here converts between wire shapes and
// puzzle.Grid at the boundary.
package web

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/time/rate"
)

/*

configuration

*/

// Config carries the tunables of the web shell.
type Config struct {
	Addr         string        // listen address
	SolveTimeout time.Duration // wall-clock budget per solve
	SolveRate    rate.Limit    // solver invocations per second, service-wide
	SolveBurst   int
}

// ConfigFromEnv reads PORT, SOLVE_TIMEOUT and SOLVE_RATE, with
// localhost defaults for development. A bare PORT number means we
// are deployed behind a router and should listen on all interfaces.
func ConfigFromEnv() Config {
	cfg := Config{
		Addr:         "localhost:8080",
		SolveTimeout: 10 * time.Second,
		SolveRate:    16,
		SolveBurst:   16,
	}
	if port := os.Getenv("PORT"); port != "" {
		cfg.Addr = ":" + port
	}
	if v := os.Getenv("SOLVE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.SolveTimeout = d
		}
	}
	if v := os.Getenv("SOLVE_RATE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			cfg.SolveRate = rate.Limit(f)
			cfg.SolveBurst = int(f)
			if cfg.SolveBurst < 1 {
				cfg.SolveBurst = 1
			}
		}
	}
	return cfg
}

/*

the server

*/

var validate = validator.New()

// Server holds the handlers' shared state.
type Server struct {
	cfg     Config
	store   Store
	log     *slog.Logger
	limiter *rate.Limiter
	metrics *metrics
}

// New builds a Server around a store.
func New(cfg Config, store Store, log *slog.Logger) *Server {
	return &Server{
		cfg:     cfg,
		store:   store,
		log:     log,
		limiter: rate.NewLimiter(cfg.SolveRate, cfg.SolveBurst),
		metrics: newMetrics(),
	}
}

// Handler routes the whole API.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/puzzles", s.handleListPuzzles)
	mux.HandleFunc("GET /api/puzzles/{id}", s.handleGetPuzzle)
	mux.HandleFunc("POST /api/puzzles", s.handleSavePuzzle)
	mux.HandleFunc("POST /api/solve", s.handleSolve)
	mux.HandleFunc("POST /api/verify", s.handleVerify)
	mux.HandleFunc("GET /api/candidates", s.handleCandidates)
	mux.HandleFunc("GET /session", s.handleSessionState)
	mux.HandleFunc("POST /session/select", s.handleSessionSelect)
	mux.HandleFunc("POST /session/entry", s.handleSessionEntry)
	mux.HandleFunc("POST /session/reset", s.handleSessionReset)
	mux.HandleFunc("GET /session/hints", s.handleSessionHints)
	mux.HandleFunc("DELETE /session", s.handleSessionDelete)
	mux.HandleFunc("GET /live/solve", s.handleLiveSolve)
	mux.Handle("GET /metrics", s.metrics.handler())
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	return s.logRequests(mux)
}

// statusRecorder remembers the status code a handler wrote.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(status int) {
	sr.status = status
	sr.ResponseWriter.WriteHeader(status)
}

// Hijack hands the underlying connection through, so the websocket
// upgrade on /live/solve works behind the logging middleware.
func (sr *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := sr.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("hijack: %w", http.ErrNotSupported)
	}
	return hj.Hijack()
}

// Unwrap exposes the wrapped writer to http.ResponseController.
func (sr *statusRecorder) Unwrap() http.ResponseWriter {
	return sr.ResponseWriter
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sr := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sr, r)
		pattern := r.Pattern
		if pattern == "" {
			pattern = "unmatched"
		}
		s.metrics.observeRequest(r.Method, pattern, sr.status)
		s.log.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", sr.status,
			"duration", time.Since(start))
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	type health struct {
		Status string `json:"status"`
		Error  string `json:"error,omitempty"`
	}
	if err := s.store.Ping(r.Context()); err != nil {
		s.writeJSON(w, http.StatusServiceUnavailable, health{Status: "degraded", Error: err.Error()})
		return
	}
	s.writeJSON(w, http.StatusOK, health{Status: "ok"})
}

/*

request and response plumbing

*/

// maxBodyBytes bounds request bodies; the largest legitimate body
// is a puzzle save with two spelled-out grids.
const maxBodyBytes = 64 << 10

// apiError is the JSON error shape of every non-2xx response.
type apiError struct {
	Error string    `json:"error"`
	Cells []cellRef `json:"cells,omitempty"`
}

// cellRef names a cell in display coordinates, rows and columns
// numbered from 1.
type cellRef struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// readJSON decodes and validates a request body.
func readJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("decoding request: %w", err)
	}
	if err := validate.Struct(dst); err != nil {
		return fmt.Errorf("validating request: %w", err)
	}
	return nil
}

// writeJSON encodes and sends the response. Encoding failures are
// logged; at that point half a response may be gone already, so
// there is nothing useful left to send the client.
func (s *Server) writeJSON(w http.ResponseWriter, status int, obj any) {
	hs := w.Header()
	hs.Add("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(obj); err != nil {
		s.log.Error("encoding response", "err", err)
	}
}

// writeErr sends an apiError with a bare message.
func (s *Server) writeErr(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, apiError{Error: msg})
}

// allowSolve charges one solver invocation against the service-wide
// limiter, answering 429 when the budget is spent.
func (s *Server) allowSolve(w http.ResponseWriter) bool {
	if s.limiter.Allow() {
		return true
	}
	s.writeErr(w, http.StatusTooManyRequests, "solve rate exceeded, retry later")
	return false
}
