package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/jonathan/resume-builder/internal/llm"
	"github.com/jonathan/resume-builder/internal/pipeline"
	"github.com/jonathan/resume-builder/internal/server/middleware"
	"github.com/jonathan/resume-builder/internal/server/ratelimit"
)

// Defaults for zero Config fields.
const (
	DefaultMaxConcurrentGenerations = 4
	DefaultQueueTimeout             = 10 * time.Second
	shutdownTimeout                 = 30 * time.Second
)

// Server represents the HTTP server
type Server struct {
	httpServer        *http.Server
	handler           http.Handler
	pipeline          *pipeline.Pipeline
	client            llm.Client
	rateLimiter       *ratelimit.Limiter
	gate              *semaphore.Weighted
	queueTimeout      time.Duration
	generationTimeout time.Duration
	logger            *slog.Logger
}

// Config holds server configuration
type Config struct {
	Port int
	// MaxConcurrentGenerations caps model calls in flight across all requests.
	MaxConcurrentGenerations int
	// QueueTimeout is how long a request waits for a generation slot before a 503.
	QueueTimeout time.Duration
	// GenerationTimeout bounds one pipeline run; zero means no limit.
	GenerationTimeout time.Duration
	// RateLimit defaults to ratelimit.LoadConfig().
	RateLimit *ratelimit.Config
	Logger    *slog.Logger
}

// New creates a new server instance around p. client, which may be nil, is
// closed when the server stops.
func New(cfg Config, p *pipeline.Pipeline, client llm.Client) *Server {
	if cfg.MaxConcurrentGenerations <= 0 {
		cfg.MaxConcurrentGenerations = DefaultMaxConcurrentGenerations
	}
	if cfg.QueueTimeout <= 0 {
		cfg.QueueTimeout = DefaultQueueTimeout
	}
	if cfg.RateLimit == nil {
		cfg.RateLimit = ratelimit.LoadConfig()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	s := &Server{
		pipeline:          p,
		client:            client,
		rateLimiter:       ratelimit.NewLimiter(cfg.RateLimit),
		gate:              semaphore.NewWeighted(int64(cfg.MaxConcurrentGenerations)),
		queueTimeout:      cfg.QueueTimeout,
		generationTimeout: cfg.GenerationTimeout,
		logger:            cfg.Logger,
	}

	mux := http.NewServeMux()
	// HTML form flow
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /generate", s.handleGenerate)
	mux.HandleFunc("POST /resume.pdf", s.handleResumePDF)

	// JSON API
	mux.HandleFunc("POST /api/generate", s.handleAPIGenerate)
	mux.HandleFunc("POST /api/generate/stream", s.handleAPIGenerateStream)
	mux.HandleFunc("POST /api/score", s.handleAPIScore)
	mux.HandleFunc("POST /api/pdf", s.handleAPIPDF)
	mux.HandleFunc("GET /health", s.handleHealth)

	s.handler = middleware.RequestID(middleware.Logging(s.logger)(s.withCORS(s.withRateLimit(mux))))

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      max(2*cfg.GenerationTimeout, 120*time.Second),
		IdleTimeout:       60 * time.Second,
	}

	return s
}

// Handler returns the routed handler with all middleware applied.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start listens until ctx is done or the process gets SIGINT/SIGTERM, then
// shuts down gracefully and releases the server's resources.
func (s *Server) Start(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", slog.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			s.Close()
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err := s.httpServer.Shutdown(shutdownCtx)
	s.Close()
	if err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.logger.Info("server stopped")
	return nil
}

// Close stops the rate limiter and closes the text generation client.
func (s *Server) Close() {
	s.rateLimiter.Stop()
	if s.client != nil {
		if err := s.client.Close(); err != nil {
			s.logger.Warn("failed to close text generation client", slog.Any("error", err))
		}
	}
}

// runPipeline waits for a generation slot, then runs the pipeline.
func (s *Server) runPipeline(ctx context.Context, req pipelineRequest) (*pipeline.Result, error) {
	waitCtx, cancelWait := context.WithTimeout(ctx, s.queueTimeout)
	err := s.gate.Acquire(waitCtx, 1)
	cancelWait()
	if err != nil {
		s.logger.WarnContext(ctx, "no generation slot available", slog.Duration("waited", s.queueTimeout))
		return nil, &ErrBusy{}
	}
	defer s.gate.Release(1)

	if s.generationTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.generationTimeout)
		defer cancel()
	}
	return s.pipeline.Run(ctx, req.submission, req.onProgress), nil
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+middleware.RequestIDHeader)
		w.Header().Set("Access-Control-Expose-Headers", "Content-Disposition, "+middleware.RequestIDHeader)

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
		allowed, info := s.rateLimiter.Allow(extractClientID(r), r.URL.Path, r.Method)
		setRateLimitHeaders(w, info)
		if !allowed {
			s.rateLimitResponse(w, r, info)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("error encoding JSON response", slog.Any("error", err))
	}
}

// errorResponse writes an error JSON response with the status HTTPStatus picks for err.
func (s *Server) errorResponse(w http.ResponseWriter, r *http.Request, err error) {
	status := HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.ErrorContext(r.Context(), "request failed", slog.Any("error", err))
	}
	body := map[string]any{"error": http.StatusText(status)}
	if status < http.StatusInternalServerError {
		body["error"] = err.Error()
		body["details"] = errorMessages(err)
	}
	if status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "5")
		body["error"] = err.Error()
	}
	s.jsonResponse(w, status, body)
}

// extractClientID extracts the client identifier from the request.
// This uses the IP address from RemoteAddr; X-Forwarded-For is not trusted.
func extractClientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(info.ResetTime.Unix(), 10))
	}
}

// rateLimitResponse writes a 429 Too Many Requests response with rate limit information.
func (s *Server) rateLimitResponse(w http.ResponseWriter, r *http.Request, info ratelimit.Info) {
	response := map[string]any{
		"error":     "rate_limit_exceeded",
		"message":   "Rate limit exceeded. Please try again later.",
		"limit":     info.Limit,
		"remaining": info.Remaining,
		"reset_at":  info.ResetTime.Format(time.RFC3339),
	}

	if info.RetryAfter > 0 {
		seconds := int(info.RetryAfter.Round(time.Second).Seconds())
		response["retry_after"] = seconds
		w.Header().Set("Retry-After", strconv.Itoa(seconds))
	}

	s.logger.WarnContext(r.Context(), "rate limit exceeded",
		slog.String("client", extractClientID(r)),
		slog.String("path", r.URL.Path),
		slog.Int("limit", info.Limit))

	s.jsonResponse(w, http.StatusTooManyRequests, response)
}
