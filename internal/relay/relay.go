// Relayfin - Media Server Telemetry Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/relayfin

// Package relay wires upstream media server events through the normalizer
// to the configured sinks. It owns the tracker's lifetime, the delivery
// worker pool, and the subscribe/unsubscribe lifecycle against the event
// source.
package relay

import (
	"context"
	"sync"
	"time"

	"github.com/tomtom215/relayfin/internal/logging"
	"github.com/tomtom215/relayfin/internal/metrics"
	"github.com/tomtom215/relayfin/internal/models"
	"github.com/tomtom215/relayfin/internal/normalizer"
	"github.com/tomtom215/relayfin/internal/sink"
)

// Handlers carries the relay's callbacks for the six upstream event kinds.
// The source invokes them from its own goroutines; every handler contains
// its failures and never panics into the caller.
type Handlers struct {
	PlaybackStart    func(models.PlaybackEvent)
	PlaybackStop     func(models.PlaybackEvent)
	PlaybackProgress func(models.PlaybackEvent)
	SessionStarted   func(models.SessionEvent)
	SessionEnded     func(models.SessionEvent)
	ItemDownloaded   func(models.PlaybackEvent)
}

// Source is the upstream event emitter the relay subscribes to.
type Source interface {
	// Subscribe registers the handlers for all event kinds.
	Subscribe(Handlers) error
	// Unsubscribe deregisters previously subscribed handlers. Must be
	// tolerant of never having been subscribed.
	Unsubscribe()
}

// Config holds relay tuning knobs.
type Config struct {
	// Workers is the delivery worker pool size. Default: 4.
	Workers int

	// QueueSize bounds the delivery queue. A full queue sheds records
	// instead of blocking the event source. Default: 256.
	QueueSize int

	// DeliveryTimeout bounds one fan-out delivery. Default: 10s.
	DeliveryTimeout time.Duration
}

// DefaultConfig returns production-ready relay defaults.
func DefaultConfig() Config {
	return Config{
		Workers:         4,
		QueueSize:       256,
		DeliveryTimeout: 10 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Workers <= 0 {
		c.Workers = d.Workers
	}
	if c.QueueSize <= 0 {
		c.QueueSize = d.QueueSize
	}
	if c.DeliveryTimeout <= 0 {
		c.DeliveryTimeout = d.DeliveryTimeout
	}
	return c
}

// Relay is the top-level pipeline component. Lifecycle is a two-state
// machine: Stopped -> Running -> Stopped. Start and Stop are safe to call
// from any goroutine and Stop is idempotent.
type Relay struct {
	cfg    Config
	source Source
	norm   *normalizer.Normalizer
	out    sink.Sink

	mu      sync.RWMutex
	running bool
	queue   chan *models.Record
	wg      sync.WaitGroup
}

// New creates a relay in the Stopped state.
func New(cfg Config, source Source, norm *normalizer.Normalizer, out sink.Sink) *Relay {
	return &Relay{
		cfg:    cfg.withDefaults(),
		source: source,
		norm:   norm,
		out:    out,
	}
}

// Running reports whether the relay is in the Running state.
func (r *Relay) Running() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.running
}

// Start subscribes to the event source and starts the delivery workers.
// A subscription failure is logged and leaves the relay Stopped; the error
// is returned for the caller's supervision but must not crash the host.
func (r *Relay) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return nil
	}

	r.queue = make(chan *models.Record, r.cfg.QueueSize)
	for i := 0; i < r.cfg.Workers; i++ {
		r.wg.Add(1)
		go r.worker(r.queue)
	}

	if err := r.source.Subscribe(r.handlers()); err != nil {
		// Stay Stopped: tear the workers back down.
		close(r.queue)
		r.queue = nil
		r.wg.Wait()
		logging.Error().Err(err).Msg("Event source subscription failed, relay stays stopped")
		return err
	}

	r.running = true
	logging.Info().
		Int("workers", r.cfg.Workers).
		Int("queue_size", r.cfg.QueueSize).
		Dur("delivery_timeout", r.cfg.DeliveryTimeout).
		Msg("Relay started")
	return nil
}

// Stop unsubscribes from the event source and drains the delivery queue.
// Idempotent: stopping a stopped relay, including one whose Start failed,
// is a no-op. Never panics into the caller.
func (r *Relay) Stop() {
	defer func() {
		if p := recover(); p != nil {
			logging.Error().Interface("panic", p).Msg("Panic during relay stop")
		}
	}()

	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.running = false
	r.source.Unsubscribe()
	close(r.queue)
	r.queue = nil
	r.mu.Unlock()

	r.wg.Wait()
	logging.Info().Msg("Relay stopped")
}

// handlers builds the callback set registered with the source.
func (r *Relay) handlers() Handlers {
	return Handlers{
		PlaybackStart:    r.handlePlaybackStart,
		PlaybackStop:     r.handlePlaybackStop,
		PlaybackProgress: r.handlePlaybackProgress,
		SessionStarted:   r.handleSessionStarted,
		SessionEnded:     r.handleSessionEnded,
		ItemDownloaded:   r.handleItemDownloaded,
	}
}

func (r *Relay) handlePlaybackStart(e models.PlaybackEvent) {
	defer r.contain("playback_start")
	metrics.EventsReceived.WithLabelValues("playback_start").Inc()
	logging.Info().Str("event_id", e.EventID).Str("device", e.DeviceName).Msg("Playback start event")
	r.enqueue(r.norm.PlaybackStart(e))
}

func (r *Relay) handlePlaybackStop(e models.PlaybackEvent) {
	defer r.contain("playback_stop")
	metrics.EventsReceived.WithLabelValues("playback_stop").Inc()
	logging.Info().Str("event_id", e.EventID).Str("device", e.DeviceName).Msg("Playback stop event")
	r.enqueue(r.norm.PlaybackStop(e))
}

func (r *Relay) handlePlaybackProgress(e models.PlaybackEvent) {
	defer r.contain("playback_progress")
	metrics.EventsReceived.WithLabelValues("playback_progress").Inc()
	rec := r.norm.PlaybackProgress(e)
	if rec == nil {
		return
	}
	logging.Info().
		Str("event_id", e.EventID).
		Str("device", e.DeviceName).
		Str("action", string(rec.Action)).
		Msg("Playback pause state changed")
	r.enqueue(rec)
}

func (r *Relay) handleSessionStarted(e models.SessionEvent) {
	defer r.contain("session_started")
	metrics.EventsReceived.WithLabelValues("session_started").Inc()
	logging.Info().Str("event_id", e.EventID).Str("client", e.Client).Msg("Session started event")
	r.enqueue(r.norm.SessionStarted(e))
}

func (r *Relay) handleSessionEnded(e models.SessionEvent) {
	defer r.contain("session_ended")
	metrics.EventsReceived.WithLabelValues("session_ended").Inc()
	logging.Info().Str("event_id", e.EventID).Str("client", e.Client).Msg("Session ended event")
	r.enqueue(r.norm.SessionEnded(e))
}

func (r *Relay) handleItemDownloaded(e models.PlaybackEvent) {
	defer r.contain("item_downloaded")
	metrics.EventsReceived.WithLabelValues("item_downloaded").Inc()
	logging.Info().Str("event_id", e.EventID).Str("item", e.Item.Name).Msg("Item downloaded event")
	r.enqueue(r.norm.ItemDownloaded(e))
}

// contain is the handler failure boundary. Nothing thrown inside
// normalization or enqueueing may escape to the event source.
func (r *Relay) contain(event string) {
	if p := recover(); p != nil {
		metrics.HandlerPanics.Inc()
		logging.Error().
			Str("event", event).
			Interface("panic", p).
			Msg("Panic contained at handler boundary")
	}
}

// enqueue hands a record to the delivery workers without blocking the
// event source. A full queue sheds the record; shedding is counted and
// logged, never propagated.
func (r *Relay) enqueue(rec *models.Record) {
	if rec == nil {
		return
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if !r.running || r.queue == nil {
		return
	}

	select {
	case r.queue <- rec:
		metrics.DeliveryQueueDepth.Set(float64(len(r.queue)))
	default:
		metrics.DeliveriesShed.Inc()
		logging.Warn().
			Str("kind", string(rec.Kind)).
			Str("action", string(rec.Action)).
			Msg("Delivery queue full, record shed")
	}
}

// worker drains the delivery queue. Per-sink failures are logged and
// counted by the fan-out sink; the worker only observes the aggregate.
func (r *Relay) worker(queue <-chan *models.Record) {
	defer r.wg.Done()
	for rec := range queue {
		metrics.DeliveryQueueDepth.Set(float64(len(queue)))

		ctx, cancel := context.WithTimeout(context.Background(), r.cfg.DeliveryTimeout)
		err := r.out.Deliver(ctx, rec)
		cancel()

		if err != nil {
			logging.Debug().
				Err(err).
				Str("kind", string(rec.Kind)).
				Str("action", string(rec.Action)).
				Msg("Record delivery completed with errors")
			continue
		}
		logging.Debug().
			Str("kind", string(rec.Kind)).
			Str("action", string(rec.Action)).
			Msg("Record delivered")
	}
}
