// Relayfin - Media Server Telemetry Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/relayfin

// Package source receives push notifications from the Jellyfin webhook
// plugin over HTTP and fires them into the relay's subscribed handlers.
package source

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/relayfin/internal/logging"
	"github.com/tomtom215/relayfin/internal/metrics"
	"github.com/tomtom215/relayfin/internal/models"
	"github.com/tomtom215/relayfin/internal/relay"
)

// maxWebhookBody caps a webhook POST body at 1 MiB.
const maxWebhookBody = 1 << 20

// Config holds the webhook listener settings.
type Config struct {
	// Host is the bind address. Empty binds all interfaces.
	Host string

	// Port is the listen port. Default: 8096.
	Port int

	// WebhookSecret enables HMAC-SHA256 verification of webhook bodies
	// via the X-Webhook-Signature header when non-empty.
	WebhookSecret string

	// ShutdownTimeout bounds graceful server shutdown. Default: 5s.
	ShutdownTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.Port == 0 {
		c.Port = 8096
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = 5 * time.Second
	}
	return c
}

// Listener is the HTTP webhook endpoint. It implements relay.Source:
// the relay subscribes its handlers, and each accepted webhook POST is
// translated into the matching handler call.
type Listener struct {
	cfg Config

	mu         sync.RWMutex
	handlers   relay.Handlers
	subscribed bool
}

// NewListener creates a webhook listener. It serves nothing until
// Serve is called and fires no handlers until the relay subscribes.
func NewListener(cfg Config) *Listener {
	return &Listener{cfg: cfg.withDefaults()}
}

// Subscribe implements relay.Source.
func (l *Listener) Subscribe(h relay.Handlers) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.subscribed {
		return errors.New("source: already subscribed")
	}
	l.handlers = h
	l.subscribed = true
	return nil
}

// Unsubscribe implements relay.Source. Safe to call when never subscribed.
func (l *Listener) Unsubscribe() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.handlers = relay.Handlers{}
	l.subscribed = false
}

// Router builds the HTTP handler: the webhook endpoint plus health and
// Prometheus metrics.
func (l *Listener) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)

	r.Post("/webhook", l.handleWebhook)
	r.Get("/healthz", l.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	return r
}

// Serve runs the HTTP server until ctx is cancelled, then shuts it
// down gracefully. Suitable for running under a supervision tree.
func (l *Listener) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", l.cfg.Host, l.cfg.Port),
		Handler:           l.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", srv.Addr).Msg("Webhook listener serving")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), l.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Warn().Err(err).Msg("Webhook listener shutdown incomplete, closing")
		return srv.Close()
	}
	logging.Info().Msg("Webhook listener stopped")
	return nil
}

func (l *Listener) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	//nolint:errcheck // HTTP response write errors are not recoverable
	w.Write([]byte(`{"status":"ok"}`))
}

// handleWebhook accepts one Jellyfin webhook notification.
func (l *Listener) handleWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		metrics.EventsRejected.WithLabelValues("body_read").Inc()
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	if l.cfg.WebhookSecret != "" {
		signature := r.Header.Get("X-Webhook-Signature")
		if signature == "" {
			metrics.EventsRejected.WithLabelValues("missing_signature").Inc()
			http.Error(w, "X-Webhook-Signature header required", http.StatusUnauthorized)
			return
		}
		if !verifySignature(body, signature, l.cfg.WebhookSecret) {
			metrics.EventsRejected.WithLabelValues("invalid_signature").Inc()
			logging.Warn().Str("remote", r.RemoteAddr).Msg("Webhook signature verification failed")
			http.Error(w, "signature verification failed", http.StatusUnauthorized)
			return
		}
	}

	var payload models.WebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		metrics.EventsRejected.WithLabelValues("invalid_json").Inc()
		logging.Warn().Err(err).Msg("Webhook payload parse failed")
		http.Error(w, "failed to parse webhook JSON", http.StatusBadRequest)
		return
	}

	l.dispatch(&payload)

	w.WriteHeader(http.StatusNoContent)
}

// dispatch translates a payload into the matching subscribed handler
// call. Unknown notification types are logged and dropped.
func (l *Listener) dispatch(p *models.WebhookPayload) {
	l.mu.RLock()
	h := l.handlers
	subscribed := l.subscribed
	l.mu.RUnlock()

	if !subscribed {
		metrics.EventsRejected.WithLabelValues("no_subscriber").Inc()
		return
	}

	switch p.NotificationType {
	case models.NotificationPlaybackStart:
		h.PlaybackStart(playbackEvent(p))
	case models.NotificationPlaybackStop:
		h.PlaybackStop(playbackEvent(p))
	case models.NotificationPlaybackProgress:
		h.PlaybackProgress(playbackEvent(p))
	case models.NotificationSessionStarted:
		h.SessionStarted(sessionEvent(p))
	case models.NotificationSessionEnded:
		h.SessionEnded(sessionEvent(p))
	case models.NotificationItemDownloaded:
		h.ItemDownloaded(playbackEvent(p))
	default:
		metrics.EventsRejected.WithLabelValues("unknown_type").Inc()
		logging.Warn().Str("type", p.NotificationType).Msg("Unknown webhook notification type")
	}
}

func playbackEvent(p *models.WebhookPayload) models.PlaybackEvent {
	return models.PlaybackEvent{
		EventID:    uuid.NewString(),
		Client:     p.ClientName,
		DeviceID:   p.DeviceID,
		DeviceName: p.DeviceName,
		Users:      p.Usernames(),
		Item:       p.Item(),
		IsPaused:   p.IsPaused,
	}
}

func sessionEvent(p *models.WebhookPayload) models.SessionEvent {
	e := models.SessionEvent{
		EventID:    uuid.NewString(),
		Client:     p.ClientName,
		DeviceName: p.DeviceName,
	}
	if names := p.Usernames(); len(names) > 0 {
		e.User = names[0]
	}
	return e
}

// verifySignature checks the HMAC-SHA256 hex signature of a webhook body.
func verifySignature(body []byte, signature, secret string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(signature), []byte(expected))
}
