// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes the author and daily-papers endpoints over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/pdiddy/arxiv-engine/internal/metrics"
	"github.com/pdiddy/arxiv-engine/internal/search"
	"github.com/pdiddy/arxiv-engine/pkg/types"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// Searcher runs a search to completion. *search.Client satisfies it.
type Searcher interface {
	Collect(ctx context.Context, s types.Search) ([]types.Paper, error)
}

// Response is the envelope of every /papers reply.
type Response struct {
	Success bool          `json:"success"`
	Papers  []types.Paper `json:"papers"`
	Total   int           `json:"total"`
	Error   string        `json:"error,omitempty"`
}

type byAuthorRequest struct {
	AuthorID   string `json:"author_id"`
	MaxResults *int   `json:"max_results"`
}

type dailyRequest struct {
	Categories []string `json:"categories"`
	Window     string   `json:"window"`
	MaxResults *int     `json:"max_results"`
}

// Server wires HTTP handlers to a Searcher.
type Server struct {
	router   chi.Router
	searcher Searcher
	cfg      types.ServerConfig
	logger   *zap.Logger
	now      func() time.Time
}

// Option configures a Server.
type Option func(*Server)

// WithNow sets the clock used to compute the daily window.
func WithNow(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// New constructs a Server with middleware and routes.
func New(searcher Searcher, cfg types.ServerConfig, logger *zap.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		searcher: searcher,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(logger))
	r.Use(recoverMiddleware(logger))
	r.Use(metricsMiddleware)

	r.Get("/healthz", s.healthz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/papers", func(r chi.Router) {
		if cfg.APIKey != "" {
			r.Use(apiKeyMiddleware(cfg.APIKey))
		}
		r.Post("/by-author", s.byAuthor)
		r.Post("/daily", s.daily)
	})

	s.router = r
	return s
}

// Handler returns the router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) byAuthor(w http.ResponseWriter, r *http.Request) {
	var req byAuthorRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, failure("invalid JSON"))
		return
	}
	if strings.TrimSpace(req.AuthorID) == "" {
		writeJSON(w, http.StatusBadRequest, failure("author_id is required"))
		return
	}

	q := search.ByAuthor(req.AuthorID)
	limit, err := s.limit(req.MaxResults)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, failure(err.Error()))
		return
	}
	q.MaxResults = limit
	s.run(w, r, q)
}

func (s *Server) daily(w http.ResponseWriter, r *http.Request) {
	var req dailyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, failure("invalid JSON"))
		return
	}

	window, err := search.ParseWindow(req.Window)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, failure(err.Error()))
		return
	}
	q := search.Recent(req.Categories, window, s.now())
	if q.IsEmpty() {
		writeJSON(w, http.StatusBadRequest, failure("at least one category is required"))
		return
	}
	limit, err := s.limit(req.MaxResults)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, failure(err.Error()))
		return
	}
	q.MaxResults = limit
	s.run(w, r, q)
}

// limit resolves the requested result cap against the server ceiling.
func (s *Server) limit(requested *int) (int, error) {
	ceiling := s.cfg.MaxResults
	if ceiling <= 0 {
		ceiling = search.FacadeMaxResults
	}
	if requested == nil {
		return min(search.FacadeMaxResults, ceiling), nil
	}
	if *requested <= 0 {
		return 0, fmt.Errorf("max_results must be > 0, got %d", *requested)
	}
	return min(*requested, ceiling), nil
}

func (s *Server) run(w http.ResponseWriter, r *http.Request, q types.Search) {
	ctx := r.Context()
	if s.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.RequestTimeout)
		defer cancel()
	}

	papers, err := s.searcher.Collect(ctx, q)
	if err != nil {
		if errors.Is(err, context.Canceled) && r.Context().Err() != nil {
			s.logger.Debug("client went away", zap.String("request_id", RequestID(r.Context())))
			return
		}
		s.logger.Warn("arXiv search failed",
			zap.String("request_id", RequestID(r.Context())),
			zap.String("query", q.Query),
			zap.Int("partial", len(papers)),
			zap.Error(err),
		)
		writeJSON(w, http.StatusBadGateway, failure(err.Error()))
		return
	}

	if papers == nil {
		papers = []types.Paper{}
	}
	writeJSON(w, http.StatusOK, Response{Success: true, Papers: papers, Total: len(papers)})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode request: %w", err)
	}
	return nil
}

func failure(msg string) Response {
	return Response{Success: false, Papers: []types.Paper{}, Error: msg}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
