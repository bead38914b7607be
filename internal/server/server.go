package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/resume-reviewer/internal/checkpoint"
	"github.com/jonathan/resume-reviewer/internal/pipeline"
	"github.com/jonathan/resume-reviewer/internal/server/middleware"
	"github.com/jonathan/resume-reviewer/internal/server/ratelimit"
	"github.com/jonathan/resume-reviewer/internal/types"
)

// DefaultMaxUploadBytes bounds multipart resume uploads
const DefaultMaxUploadBytes = 10 << 20

// Analyzer runs and inspects analyses. *pipeline.Orchestrator implements it.
type Analyzer interface {
	Prepare(ctx context.Context, opts pipeline.RunOptions) (pipeline.RunOptions, error)
	Run(ctx context.Context, opts pipeline.RunOptions) (*types.Run, error)
	Get(ctx context.Context, threadID string) (*types.Run, error)
	List(ctx context.Context, filter checkpoint.Filter) ([]*types.Run, error)
	Delete(ctx context.Context, threadID string) error
}

// Config holds server configuration
type Config struct {
	Addr     string
	Analyzer Analyzer
	Logger   *zap.Logger
	// JWT enables bearer token auth when set
	JWT *JWTService
	// MatchAPIKey enables X-API-Key auth when set
	MatchAPIKey middleware.KeyMatcher
	// RateLimit defaults to the default endpoint limits
	RateLimit      *ratelimit.Config
	MaxUploadBytes int64
	// KeepAlive is the comment interval on event streams
	KeepAlive time.Duration
}

// Server is the HTTP API
type Server struct {
	httpServer *http.Server
	analyzer   Analyzer
	logger     *zap.Logger
	limiter    *ratelimit.Limiter
	maxUpload  int64
	keepAlive  time.Duration

	// background runs outlive their request and stop with the server
	runCtx   context.Context
	stopRuns context.CancelFunc
	runs     sync.WaitGroup
}

// New creates a new server instance
func New(cfg Config) (*Server, error) {
	if cfg.Analyzer == nil {
		return nil, fmt.Errorf("analyzer is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	rl := cfg.RateLimit
	if rl == nil {
		rl = &ratelimit.Config{Enabled: true, DefaultLimit: 600, DefaultWindow: time.Minute,
			EndpointConfigs: ratelimit.DefaultEndpointConfigs()}
	}
	maxUpload := cfg.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = DefaultMaxUploadBytes
	}

	keepAlive := cfg.KeepAlive
	if keepAlive <= 0 {
		keepAlive = DefaultKeepAlive
	}

	runCtx, stopRuns := context.WithCancel(context.Background())
	s := &Server{
		analyzer:  cfg.Analyzer,
		logger:    logger,
		limiter:   ratelimit.NewLimiter(rl),
		maxUpload: maxUpload,
		keepAlive: keepAlive,
		runCtx:    runCtx,
		stopRuns:  stopRuns,
	}

	protect := func(h http.HandlerFunc) http.Handler { return h }
	if cfg.JWT != nil || cfg.MatchAPIKey != nil {
		var tokens middleware.TokenValidator
		if cfg.JWT != nil {
			tokens = cfg.JWT.AsTokenValidator()
		}
		auth := middleware.AuthMiddleware(tokens, cfg.MatchAPIKey)
		protect = func(h http.HandlerFunc) http.Handler { return auth(h) }
	} else {
		logger.Warn("API authentication disabled: no JWT secret or API keys configured")
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("POST /analyses", protect(s.handleCreateAnalysis))
	mux.Handle("POST /analyses/stream", protect(s.handleStreamAnalysis))
	mux.Handle("GET /analyses", protect(s.handleListAnalyses))
	mux.Handle("GET /analyses/{id}", protect(s.handleGetAnalysis))
	mux.Handle("GET /analyses/{id}/scores", protect(s.handleGetScores))
	mux.Handle("DELETE /analyses/{id}", protect(s.handleDeleteAnalysis))

	s.httpServer = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.withRateLimit(s.withLogging(s.withCORS(mux))),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 10 * time.Minute, // streamed analyses hold the connection for six model calls
		IdleTimeout:  60 * time.Second,
	}
	return s, nil
}

// Handler returns the root handler with all middleware applied
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start serves until ctx is cancelled, then shuts down gracefully. Background
// analyses are cancelled and stop at their next stage boundary.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	err := s.httpServer.Shutdown(shutdownCtx)
	s.stopRuns()
	s.runs.Wait()
	if err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.logger.Info("server stopped")
	return nil
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, "+middleware.APIKeyHeader)

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, info := s.limiter.Allow(clientID(r), r.URL.Path, r.Method)
		setRateLimitHeaders(w, info)
		if !allowed {
			s.rateLimitResponse(w, info)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the response code for request logs
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Flush keeps SSE working through the recorder
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("remote", r.RemoteAddr),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Warn("error encoding JSON response", zap.Error(err))
	}
}

func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}

// writeError maps err to its status code
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", zap.Error(err))
	}
	s.errorResponse(w, status, err.Error())
}

// clientID is the remote IP without its port
func clientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

func setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(info.ResetTime.Unix(), 10))
	}
}

func (s *Server) rateLimitResponse(w http.ResponseWriter, info ratelimit.Info) {
	response := map[string]any{
		"error":   "rate_limit_exceeded",
		"message": "Rate limit exceeded. Please try again later.",
		"limit":   info.Limit,
	}
	if info.RetryAfter > 0 {
		seconds := int(info.RetryAfter.Seconds()) + 1
		response["retry_after"] = seconds
		w.Header().Set("Retry-After", strconv.Itoa(seconds))
	}
	s.logger.Warn("rate limit exceeded", zap.Int("limit", info.Limit))
	s.jsonResponse(w, http.StatusTooManyRequests, response)
}
