// Package server provides the HTTP API for the resume parser.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/jonathan/resume-parser/internal/config"
	"github.com/jonathan/resume-parser/internal/logger"
	"github.com/jonathan/resume-parser/internal/server/middleware"
	"github.com/jonathan/resume-parser/internal/server/ratelimit"
	"github.com/jonathan/resume-parser/internal/types"
)

// ServiceName is reported by the health and index endpoints
const ServiceName = "resume-parser-api"

// shutdownGrace bounds how long in-flight requests may run after a stop signal
const shutdownGrace = 30 * time.Second

// Parser turns a resume file on disk into a Record
type Parser interface {
	Parse(ctx context.Context, path string) (*types.Record, error)
	Extensions() []string
}

// Server represents the HTTP server
type Server struct {
	httpServer  *http.Server
	parser      Parser
	rateLimiter *ratelimit.Limiter
	logger      zerolog.Logger
	version     string
	maxUpload   int64
	tempDir     string
}

// Config holds server configuration
type Config struct {
	Addr          string
	Version       string
	MaxUploadSize int64  // bytes accepted in the file part
	TempDir       string // where uploads are staged, "" = os.TempDir
	RateLimit     config.RateLimitConfig
	ParseTimeout  time.Duration // bounds the whole request, 0 = no bound
}

// ConfigFrom derives server settings from the loaded configuration
func ConfigFrom(cfg *config.Config, version string) Config {
	return Config{
		Addr:          cfg.Server.Addr(),
		Version:       version,
		MaxUploadSize: cfg.Files.MaxSize,
		RateLimit:     cfg.RateLimit,
		ParseTimeout:  cfg.Timeouts.Parse.Std() + 2*cfg.Timeouts.Extraction.Std(),
	}
}

// New creates a new server instance
func New(cfg Config, parser Parser) *Server {
	s := &Server{
		parser:      parser,
		rateLimiter: ratelimit.NewLimiter(ratelimit.FromSettings(cfg.RateLimit)),
		logger:      logger.For("server"),
		version:     cfg.Version,
		maxUpload:   cfg.MaxUploadSize,
		tempDir:     cfg.TempDir,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /parse-resume", s.handleParseResume)
	mux.HandleFunc("POST /parse-resume/stream", s.handleParseResumeStream)

	var handler http.Handler = mux
	if cfg.ParseTimeout > 0 {
		handler = withTimeout(cfg.ParseTimeout, handler)
	}
	handler = s.withRateLimit(handler)
	handler = withCORS(handler)
	handler = middleware.Logging(s.logger)(handler)
	handler = middleware.RequestID(handler)

	writeTimeout := 5 * time.Minute
	if cfg.ParseTimeout > 0 {
		writeTimeout = cfg.ParseTimeout + 10*time.Second
	}
	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       time.Minute,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Handler returns the fully wrapped HTTP handler
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start serves until SIGINT or SIGTERM, then shuts down gracefully
func (s *Server) Start() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return s.Run(ctx)
}

// Run serves until ctx is done, then drains in-flight requests
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.httpServer.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	defer s.rateLimiter.Stop()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", ln.Addr().String()).Str("version", s.version).Msg("server starting")
		errCh <- s.httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.logger.Info().Msg("server stopped")
	return nil
}

// withTimeout bounds the request context
func withTimeout(d time.Duration, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), d)
		defer cancel()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// withCORS adds CORS headers
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+middleware.RequestIDHeader)

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withRateLimit adds rate limiting middleware
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, info := s.rateLimiter.Allow(clientID(r), r.URL.Path, r.Method)
		setRateLimitHeaders(w, info)
		if !allowed {
			s.rateLimitResponse(w, r, info)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientID is the peer IP taken from RemoteAddr
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

func (s *Server) rateLimitResponse(w http.ResponseWriter, r *http.Request, info ratelimit.Info) {
	resp := ErrorResponse{
		Success: false,
		Error:   KindRateLimited,
		Message: "Rate limit exceeded. Please try again later.",
		Details: map[string]any{"limit": info.Limit},
	}
	if info.RetryAfter > 0 {
		secs := int(info.RetryAfter.Seconds()) + 1
		resp.Details["retry_after"] = secs
		w.Header().Set("Retry-After", strconv.Itoa(secs))
	}

	logger.Ctx(r.Context()).Warn().
		Str("client", clientID(r)).
		Int("limit", info.Limit).
		Msg("rate limit exceeded")

	s.jsonResponse(w, r, http.StatusTooManyRequests, resp)
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, r *http.Request, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Ctx(r.Context()).Error().Err(err).Msg("failed to encode JSON response")
	}
}

// Close releases background resources when the server is used only through Handler
func (s *Server) Close() {
	s.rateLimiter.Stop()
}
