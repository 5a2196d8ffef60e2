// Package api exposes the HTTP interface for the scraper service.
package api

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/JakeFAU/site-metascraper/internal/metrics"
	"github.com/JakeFAU/site-metascraper/internal/scraper"
)

// Client-facing error messages.
const (
	MsgInvalidURL    = "Invalid URL"
	MsgCannotScrape  = "Cannot Scrape this Website"
	msgInvalidJSON   = "invalid JSON"
	msgNotConfigured = "history is not configured"
)

const (
	defaultRequestTimeout = 60 * time.Second
	defaultMaxBatchURLs   = 25
	defaultResultsLimit   = 20
	maxResultsLimit       = 500
	maxBatchBodyBytes     = 1 << 20
)

// ScrapeService is the subset of scraper.Service the handlers call.
type ScrapeService interface {
	Scrape(ctx context.Context, rawURL string) (scraper.Result, error)
	ScrapeMany(ctx context.Context, urls []string, limit int) []scraper.BatchItem
	Robots(ctx context.Context, rawURL string) (scraper.RobotsDecision, error)
	Status(ctx context.Context, rawURL string) (scraper.SiteStatus, error)
	Images(ctx context.Context, rawURL string) (scraper.ImageSet, error)
}

// ReadinessCheck reports whether a downstream dependency is usable.
type ReadinessCheck func(ctx context.Context) error

// Options tune the Server.
type Options struct {
	RequestTimeout time.Duration
	MaxBatchURLs   int
	Readiness      []ReadinessCheck
}

// Server wires HTTP handlers to the scrape service and history store.
type Server struct {
	router  chi.Router
	service ScrapeService
	results scraper.ResultStore
	opts    Options
	logger  *zap.Logger
}

// NewServer constructs a Server with middleware and routes. results may be nil.
func NewServer(service ScrapeService, results scraper.ResultStore, opts Options, logger *zap.Logger) *Server {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = defaultRequestTimeout
	}
	if opts.MaxBatchURLs <= 0 {
		opts.MaxBatchURLs = defaultMaxBatchURLs
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		service: service,
		results: results,
		opts:    opts,
		logger:  logger,
	}
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(logger))
	r.Use(recoverMiddleware(logger))
	r.Use(metrics.Middleware)

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(timeoutMiddleware(opts.RequestTimeout))
		r.Get("/scrape", s.scrape)
		r.Post("/scrape/batch", s.scrapeBatch)
		r.Get("/robots", s.robots)
		r.Get("/status", s.status)
		r.Get("/images", s.images)
		r.Get("/results", s.listResults)
	})

	s.router = r
	return s
}

// Handler returns the Router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
	for _, check := range s.opts.Readiness {
		if err := check(r.Context()); err != nil {
			s.logger.Warn("readiness check failed", zap.Error(err))
			s.writeError(w, http.StatusServiceUnavailable, "not ready")
			return
		}
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) scrape(w http.ResponseWriter, r *http.Request) {
	result, err := s.service.Scrape(r.Context(), r.URL.Query().Get("url"))
	if err != nil {
		s.writeScrapeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

type batchRequest struct {
	URLs  []string `json:"urls"`
	Limit int      `json:"limit"`
}

type batchResponse struct {
	Items []scraper.BatchItem `json:"items"`
}

func (s *Server) scrapeBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	body := http.MaxBytesReader(w, r.Body, maxBatchBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		s.writeError(w, http.StatusBadRequest, msgInvalidJSON)
		return
	}
	if len(req.URLs) == 0 {
		s.writeError(w, http.StatusBadRequest, "urls required")
		return
	}
	if len(req.URLs) > s.opts.MaxBatchURLs {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("at most %d urls per batch", s.opts.MaxBatchURLs))
		return
	}
	items := s.service.ScrapeMany(r.Context(), req.URLs, req.Limit)
	s.writeJSON(w, http.StatusOK, batchResponse{Items: items})
}

func (s *Server) robots(w http.ResponseWriter, r *http.Request) {
	decision, err := s.service.Robots(r.Context(), r.URL.Query().Get("url"))
	if err != nil {
		s.writeScrapeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, decision)
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	status, err := s.service.Status(r.Context(), r.URL.Query().Get("url"))
	if err != nil {
		s.writeScrapeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, status)
}

func (s *Server) images(w http.ResponseWriter, r *http.Request) {
	set, err := s.service.Images(r.Context(), r.URL.Query().Get("url"))
	if err != nil {
		s.writeScrapeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, set)
}

type resultsResponse struct {
	Records []scraper.Record `json:"records"`
}

func (s *Server) listResults(w http.ResponseWriter, r *http.Request) {
	if s.results == nil {
		s.writeError(w, http.StatusNotFound, msgNotConfigured)
		return
	}
	limit := defaultResultsLimit
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			s.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxResultsLimit)
	}
	records, err := s.results.ListRecords(r.Context(), limit)
	if err != nil {
		s.logger.Error("list results failed", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "failed to list results")
		return
	}
	if records == nil {
		records = []scraper.Record{}
	}
	s.writeJSON(w, http.StatusOK, resultsResponse{Records: records})
}

// writeScrapeError maps service errors to the public contract: invalid input
// is a 400, everything else collapses to a 500.
func (s *Server) writeScrapeError(w http.ResponseWriter, err error) {
	if errors.Is(err, scraper.ErrInvalidURL) {
		s.writeError(w, http.StatusBadRequest, MsgInvalidURL)
		return
	}
	s.writeError(w, http.StatusInternalServerError, MsgCannotScrape)
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get("X-Request-ID")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequestID returns the request ID stored by the server middleware, if any.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func loggingMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)
			logger.Info("request completed",
				zap.String("request_id", RequestID(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.status),
				zap.Int64("duration_ms", time.Since(start).Milliseconds()),
			)
		})
	}
}

func recoverMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("panic recovered",
						zap.Any("error", rec),
						zap.String("request_id", RequestID(r.Context())),
					)
					writeJSON(logger, w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

func timeoutMiddleware(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, d, "request timed out")
	}
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	if err != nil {
		return n, fmt.Errorf("write response: %w", err)
	}
	return n, nil
}

func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if h, ok := rw.ResponseWriter.(http.Hijacker); ok {
		conn, buf, err := h.Hijack()
		if err != nil {
			return nil, nil, fmt.Errorf("hijack connection: %w", err)
		}
		return conn, buf, nil
	}
	return nil, nil, errors.New("hijacker not supported")
}

type requestIDKey struct{}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	writeJSON(s.logger, w, status, payload)
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(s.logger, w, status, map[string]string{"error": msg})
}

func writeJSON(logger *zap.Logger, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error("write JSON failed", zap.Error(err))
	}
}
