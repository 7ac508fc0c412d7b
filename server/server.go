// Package server exposes the advisory service over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sweetpotato0/agri-advisor/answer"
	"github.com/sweetpotato0/agri-advisor/cache"
	"github.com/sweetpotato0/agri-advisor/pkg/logging"
	"github.com/sweetpotato0/agri-advisor/pkg/metrics"
	"github.com/sweetpotato0/agri-advisor/runner"
)

// MaxBatch bounds the questions accepted by one batch request.
const MaxBatch = 50

const maxBodyBytes = 1 << 20

type (
	// AdviseRequest is the body of POST /api/v1/advise.
	AdviseRequest struct {
		Query    string `json:"query"`
		Language string `json:"language,omitempty"`
	}

	// BatchRequest is the body of POST /api/v1/advise/batch.
	BatchRequest struct {
		Language  string         `json:"language,omitempty"`
		Questions []*runner.Task `json:"questions"`
	}

	// BatchResponse holds one result per question, in order.
	BatchResponse struct {
		Results  []*runner.Result `json:"results"`
		Duration float64          `json:"duration_ms"`
	}

	// HealthResponse reports liveness and cache statistics.
	HealthResponse struct {
		Status    string                 `json:"status"`
		Version   string                 `json:"version"`
		Timestamp string                 `json:"timestamp"`
		Cache     map[string]cache.Stats `json:"cache,omitempty"`
	}

	// ErrorResponse is written for malformed requests.
	ErrorResponse struct {
		Error      string `json:"error"`
		StatusCode int    `json:"status_code"`
		Timestamp  string `json:"timestamp"`
	}
)

// Advisor is the service behind the API.
type Advisor interface {
	Advise(ctx context.Context, query, language string) answer.Response
}

// Config configures an APIServer.
type Config struct {
	Addr           string
	Version        string
	MaxConcurrency int
	// Cache, when set, is reported by the health endpoint.
	Cache *cache.Layer
}

// APIServer is the HTTP front end.
type APIServer struct {
	advisor Advisor
	pool    *runner.Pool
	cfg     Config
	srv     *http.Server
	log     *slog.Logger
}

// NewAPIServer creates the server and its routes. Methods are part of the
// route patterns, so other methods get 405 from the mux.
func NewAPIServer(advisor Advisor, cfg Config) *APIServer {
	s := &APIServer{
		advisor: advisor,
		pool:    runner.NewPool(advisor, cfg.MaxConcurrency),
		cfg:     cfg,
		log:     logging.WithComponent("server"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/advise", s.advise)
	mux.HandleFunc("POST /api/v1/advise/batch", s.adviseBatch)
	mux.HandleFunc("GET /api/v1/health", s.health)
	mux.Handle("GET /metrics", metrics.Handler())

	s.srv = &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// Batches run many pipelines.
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  time.Minute,
	}
	return s
}

// Handler returns the routed handler, for tests and embedding.
func (s *APIServer) Handler() http.Handler { return s.srv.Handler }

// Start serves until Stop is called.
func (s *APIServer) Start() error {
	s.log.Info("listening", "addr", s.cfg.Addr)
	err := s.srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Stop waits for in-flight requests until ctx ends.
func (s *APIServer) Stop(ctx context.Context) error { return s.srv.Shutdown(ctx) }

// decode reads a bounded JSON body into v, answering 400 itself on failure.
func (s *APIServer) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		s.fail(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

// advise always answers 200: short or unclear questions get a rephrase
// answer rather than an error.
func (s *APIServer) advise(w http.ResponseWriter, r *http.Request) {
	var req AdviseRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.reply(w, http.StatusOK, s.advisor.Advise(r.Context(), req.Query, req.Language))
}

func (s *APIServer) adviseBatch(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if !s.decode(w, r, &req) {
		return
	}
	if n := len(req.Questions); n == 0 {
		s.fail(w, http.StatusBadRequest, "questions must not be empty")
		return
	} else if n > MaxBatch {
		s.fail(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("at most %d questions per batch", MaxBatch))
		return
	}
	for _, q := range req.Questions {
		if q == nil {
			s.fail(w, http.StatusBadRequest, "questions must not contain null")
			return
		}
		if strings.TrimSpace(q.Language) == "" {
			q.Language = req.Language
		}
	}

	began := time.Now()
	results := s.pool.Batch(r.Context(), req.Questions)
	s.reply(w, http.StatusOK, BatchResponse{
		Results:  results,
		Duration: float64(time.Since(began).Milliseconds()),
	})
}

func (s *APIServer) health(w http.ResponseWriter, r *http.Request) {
	h := HealthResponse{
		Status:    "healthy",
		Version:   s.cfg.Version,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if s.cfg.Cache != nil {
		h.Cache = s.cfg.Cache.Stats(r.Context())
	}
	s.reply(w, http.StatusOK, h)
}

func (s *APIServer) reply(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Warn("encode response", "status", status, "error", err)
	}
}

func (s *APIServer) fail(w http.ResponseWriter, status int, msg string) {
	s.reply(w, status, ErrorResponse{
		Error:      msg,
		StatusCode: status,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	})
}
