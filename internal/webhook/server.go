package webhook

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/zeebo/blake3"

	"github.com/mattjoyce/xihi/internal/events"
	"github.com/mattjoyce/xihi/internal/metrics"
)

// Server represents the webhook HTTP server.
type Server struct {
	config     Config
	dispatcher EventDispatcher
	logger     *slog.Logger
	server     *http.Server
}

// New creates a new webhook server instance.
func New(config Config, dispatcher EventDispatcher, logger *slog.Logger) *Server {
	if config.MaxBodySize <= 0 {
		config.MaxBodySize = DefaultMaxBodySize
	}
	if config.SignatureHeader == "" {
		config.SignatureHeader = DefaultSignatureHeader
	}
	if config.EventHeader == "" {
		config.EventHeader = DefaultEventHeader
	}
	if config.DeliveryHeader == "" {
		config.DeliveryHeader = DefaultDeliveryHeader
	}
	if config.Algorithm == "" {
		config.Algorithm = SHA1
	}
	if config.ShutdownTimeout <= 0 {
		config.ShutdownTimeout = DefaultShutdownTimeout
	}

	return &Server{
		config:     config,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// Start starts the webhook HTTP server (blocking).
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:              s.config.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	s.logger.Info("webhook server starting",
		"listen", s.config.Listen,
		"path", s.config.Path,
		"max_body_size", s.config.MaxBodySize,
	)

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("webhook server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("webhook server shutdown failed: %w", err)
		}
		return ctx.Err()
	case err := <-errCh:
		return fmt.Errorf("webhook server error: %w", err)
	}
}

// Handler returns the router. Every path reaches handleWebhook, whose gate
// answers 404 for anything but the configured path.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)

	// The configured path is matched literally by checkRequest, never as a
	// chi pattern, so "{", "}" and "*" in it carry no routing meaning.
	r.HandleFunc("/*", s.handleWebhook)

	return r
}

// loggingMiddleware logs HTTP requests (excludes payloads).
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		metrics.RequestsTotal.WithLabelValues(strconv.Itoa(ww.Status())).Inc()
		s.logger.Debug("webhook request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
			"remote_addr", r.RemoteAddr,
		)
	})
}

// handleWebhook runs gate, body collection, verification and dispatch in order.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if status := s.checkRequest(r); status != 0 {
		if status == http.StatusForbidden {
			s.logger.Warn("webhook headers missing",
				"path", r.URL.Path,
				"remote_addr", r.RemoteAddr,
				"request_id", middleware.GetReqID(r.Context()),
			)
		}
		s.respondError(w, status)
		return
	}

	body, err := readBody(r.Body, r.ContentLength, s.config.MaxBodySize)
	if errors.Is(err, ErrPayloadTooLarge) {
		s.logger.Warn("webhook payload too large",
			"path", r.URL.Path,
			"content_length", r.ContentLength,
			"limit", s.config.MaxBodySize,
			"remote_addr", r.RemoteAddr,
		)
		w.Header().Set("Connection", "close")
		s.respondError(w, http.StatusRequestEntityTooLarge)
		return
	}
	if err != nil {
		s.logger.Warn("webhook body read failed", "path", r.URL.Path, "error", err)
		s.respondError(w, http.StatusBadRequest)
		return
	}

	signature := r.Header.Get(s.config.SignatureHeader)
	if err := VerifySignature(s.config.Algorithm, s.config.Secret, body, signature); err != nil {
		s.logger.Warn("webhook signature verification failed",
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
			"request_id", middleware.GetReqID(r.Context()),
			"error", err,
		)
		s.respondError(w, http.StatusForbidden)
		return
	}

	eventName := r.Header.Get(s.config.EventHeader)
	var payload any
	if err := json.Unmarshal(body, &payload); err != nil {
		s.logger.Warn("webhook payload is not valid JSON",
			"path", r.URL.Path,
			"event", eventName,
			"error", err,
		)
		s.respondError(w, http.StatusBadRequest)
		return
	}

	deliveryID := r.Header.Get(s.config.DeliveryHeader)
	if deliveryID == "" {
		deliveryID = uuid.NewString()
	}

	w.WriteHeader(http.StatusNoContent)
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
	metrics.BodyBytes.Observe(float64(len(body)))

	digest := blake3.Sum256(body)
	n := s.dispatcher.Dispatch(events.Event{
		Name:       eventName,
		DeliveryID: deliveryID,
		Payload:    payload,
		Raw:        body,
		ReceivedAt: time.Now().UTC(),
	})

	s.logger.Info("webhook event dispatched",
		"event", eventName,
		"delivery_id", deliveryID,
		"subscribers", n,
		"bytes", len(body),
		"payload_digest", hex.EncodeToString(digest[:16]),
	)
}

// respondError sends a short plain-text reason. 403 carries no body so the
// response does not say which check failed.
func (s *Server) respondError(w http.ResponseWriter, status int) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	if status == http.StatusForbidden {
		return
	}
	fmt.Fprintf(w, "%d %s", status, http.StatusText(status))
}
