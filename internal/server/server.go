// Package server receives Telegram webhook updates over HTTP and exposes
// health and quality endpoints.
package server

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/phuslu/log"

	"github.com/growly/resume-bot/internal/observability"
	"github.com/growly/resume-bot/internal/types"
)

// DefaultWebhookPath is used when the webhook URL has no path.
const DefaultWebhookPath = "/webhook"

// maxUpdateBytes caps a webhook body; updates carry file references, not files.
const maxUpdateBytes = 1 << 20

// SecretTokenHeader carries the secret registered with setWebhook.
const SecretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"

// queueWait is how long a webhook request waits for room in the update queue.
const queueWait = 5 * time.Second

// Store is the persistence the HTTP endpoints read from. It may be nil.
type Store interface {
	Ping(ctx context.Context) error
	GetQualityMetrics(ctx context.Context) (types.QualityMetrics, error)
}

// Config holds server configuration
type Config struct {
	Port int
	// WebhookPath receives updates; empty disables the webhook route.
	WebhookPath string
	// WebhookSecret must match SecretTokenHeader on every webhook request.
	// Empty accepts any request.
	WebhookSecret string
	Store         Store
	Logger        *log.Logger
	// Metrics, when set, is served on /metrics and records every request.
	Metrics *observability.Metrics
	// ShutdownTimeout bounds graceful shutdown once the context is done.
	ShutdownTimeout time.Duration
}

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	store      Store
	updates    chan tgbotapi.Update
	secret     []byte
	logger     *log.Logger
	metrics    *observability.Metrics
	shutdown   time.Duration
}

// New creates a new server instance. Decoded updates are published on
// Updates() for the bot to consume.
func New(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = observability.NopLogger()
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}

	s := &Server{
		store:    cfg.Store,
		updates:  make(chan tgbotapi.Update, 100),
		secret:   []byte(cfg.WebhookSecret),
		logger:   cfg.Logger,
		metrics:  cfg.Metrics,
		shutdown: cfg.ShutdownTimeout,
	}

	mux := http.NewServeMux()
	if cfg.WebhookPath != "" {
		mux.HandleFunc("POST "+cfg.WebhookPath, s.handleWebhook)
	}
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /stats", s.handleStats)
	if cfg.Metrics != nil {
		mux.Handle("GET /metrics", cfg.Metrics.Handler())
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.withLogging(mux),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Updates returns the channel webhook updates are delivered on. It is closed
// after a clean shutdown.
func (s *Server) Updates() <-chan tgbotapi.Update {
	return s.updates
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start listens until ctx is done, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.httpServer.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", ln.Addr().String()).Msg("server starting")
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdown)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	close(s.updates)
	s.logger.Info().Msg("server stopped")
	return nil
}

// handleWebhook decodes one update and queues it. Telegram retries any
// non-2xx response, so a full queue answers 503.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if len(s.secret) > 0 && subtle.ConstantTimeCompare([]byte(r.Header.Get(SecretTokenHeader)), s.secret) != 1 {
		s.logger.Warn().Str("remote_addr", r.RemoteAddr).Msg("rejected webhook request with bad secret token")
		s.errorResponse(w, http.StatusUnauthorized, "invalid secret token")
		return
	}

	var update tgbotapi.Update
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxUpdateBytes)).Decode(&update); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid update")
		return
	}

	select {
	case s.updates <- update:
		w.WriteHeader(http.StatusOK)
	case <-r.Context().Done():
		s.errorResponse(w, http.StatusServiceUnavailable, "request cancelled")
	case <-time.After(queueWait):
		s.errorResponse(w, http.StatusServiceUnavailable, "update queue is full")
	}
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.store != nil {
		if err := s.store.Ping(r.Context()); err != nil {
			s.logger.Error().Err(err).Msg("health check failed")
			s.jsonResponse(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "database": "down"})
			return
		}
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleStats returns the rating quality metrics.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.errorResponse(w, http.StatusServiceUnavailable, "database is not configured")
		return
	}

	metrics, err := s.store.GetQualityMetrics(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to load quality metrics")
		s.errorResponse(w, http.StatusInternalServerError, "failed to load quality metrics")
		return
	}
	s.jsonResponse(w, http.StatusOK, metrics)
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// routeLabel is the matched mux pattern without its method, so metric labels
// stay bounded. Unmatched requests share one label.
func routeLabel(r *http.Request) string {
	if r.Pattern == "" {
		return "unmatched"
	}
	if _, path, ok := strings.Cut(r.Pattern, " "); ok {
		return path
	}
	return r.Pattern
}

// withLogging adds request logging and metrics
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		elapsed := time.Since(start)
		s.metrics.HTTPRequest(r.Method, routeLabel(r), rec.status, elapsed)
		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", elapsed).
			Msg("request completed")
	})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Warn().Err(err).Msg("failed to encode JSON response")
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}
