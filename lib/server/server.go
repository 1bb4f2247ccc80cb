// Package server exposes the HTTP surface of the bot: the Telegram webhook and a health check.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/onkernel/finbot/lib/logger"
	mw "github.com/onkernel/finbot/lib/middleware"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// maxUpdateBytes caps the size of a webhook request body.
const maxUpdateBytes = 1 << 20

// Config holds configuration for the HTTP server
type Config struct {
	// Mode is reported by /healthz ("polling" or "webhook")
	Mode string

	// WebhookSecret enables POST /telegram/{secret} when non-empty
	WebhookSecret string

	// UpdateBuffer is the capacity of the updates channel
	UpdateBuffer int

	// Check reports readiness; nil means always ready
	Check func(ctx context.Context) error

	// TracerProvider enables a span per webhook request when set
	TracerProvider trace.TracerProvider
}

// Server routes HTTP requests and queues webhook updates for the bot.
type Server struct {
	config  Config
	router  chi.Router
	updates chan tgbotapi.Update
	logger  *slog.Logger

	mu     sync.RWMutex
	closed bool
}

// New creates the server and its router.
func New(cfg Config, log *slog.Logger, meter metric.Meter) (*Server, error) {
	if log == nil {
		log = slog.Default()
	}
	if cfg.UpdateBuffer < 1 {
		cfg.UpdateBuffer = 100
	}

	s := &Server{
		config:  cfg,
		updates: make(chan tgbotapi.Update, cfg.UpdateBuffer),
		logger:  log,
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	if cfg.TracerProvider != nil {
		r.Use(mw.Tracing("finbot", r, cfg.TracerProvider))
	}
	r.Use(mw.InjectLogger(log))
	r.Use(mw.AccessLogger(log))
	if meter != nil {
		httpMetrics, err := mw.NewHTTPMetrics(meter)
		if err != nil {
			return nil, err
		}
		r.Use(httpMetrics.Middleware)
	}
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	if cfg.WebhookSecret != "" {
		r.With(mw.VerifySecret(cfg.WebhookSecret, "secret")).
			Post("/telegram/{secret}", s.handleUpdate)
	}

	s.router = r
	return s, nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Updates returns the channel webhook updates are delivered on.
func (s *Server) Updates() <-chan tgbotapi.Update {
	return s.updates
}

// Close stops accepting updates and closes the updates channel.
func (s *Server) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.updates)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	var update tgbotapi.Update
	body := http.MaxBytesReader(w, r.Body, maxUpdateBytes)
	if err := json.NewDecoder(body).Decode(&update); err != nil {
		log.WarnContext(r.Context(), "invalid update payload", "error", err)
		http.Error(w, "Invalid update", http.StatusBadRequest)
		return
	}

	trace.SpanFromContext(r.Context()).SetAttributes(attribute.Int("update_id", update.UpdateID))

	// the send never blocks; Telegram redelivers updates answered with 503
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		http.Error(w, "Shutting down", http.StatusServiceUnavailable)
		return
	}

	select {
	case s.updates <- update:
		w.WriteHeader(http.StatusOK)
	default:
		log.WarnContext(r.Context(), "update dropped, queue full", "update_id", update.UpdateID)
		http.Error(w, "Busy", http.StatusServiceUnavailable)
	}
}

type healthResponse struct {
	Status string `json:"status"`
	Mode   string `json:"mode,omitempty"`
	Error  string `json:"error,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", Mode: s.config.Mode}
	code := http.StatusOK

	if s.config.Check != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		if err := s.config.Check(ctx); err != nil {
			logger.FromContext(r.Context()).WarnContext(r.Context(), "health check failed", "error", err)
			resp.Status = "unavailable"
			resp.Error = err.Error()
			code = http.StatusServiceUnavailable
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(resp)
}
