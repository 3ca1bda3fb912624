// Relayfin - Media Server Telemetry Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/relayfin

package sink

import (
	"context"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/relayfin/internal/models"
)

// CircuitBreakerConfig configures the per-sink circuit breaker.
type CircuitBreakerConfig struct {
	// Name identifies the breaker in state-change logs.
	Name string

	// MaxRequests is the number of probe requests allowed in half-open state.
	MaxRequests uint32

	// Interval is the cyclic period for clearing counts in closed state.
	Interval time.Duration

	// Timeout is how long the breaker stays open before probing.
	Timeout time.Duration

	// FailureThreshold is the consecutive-failure count that trips the breaker.
	FailureThreshold uint32
}

// DefaultCircuitBreakerConfig returns production-ready breaker settings.
func DefaultCircuitBreakerConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:             name,
		MaxRequests:      1,
		Interval:         60 * time.Second,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
	}
}

// BreakerSink wraps a sink with a circuit breaker so a dead target sheds
// deliveries quickly instead of tying up workers on timeouts. Shed
// deliveries surface as DeliveryErrors wrapping gobreaker.ErrOpenState.
type BreakerSink struct {
	inner Sink
	cb    *gobreaker.CircuitBreaker[any]
}

// NewBreakerSink wraps the inner sink with a circuit breaker.
func NewBreakerSink(inner Sink, cfg CircuitBreakerConfig, onStateChange func(name string, from, to gobreaker.State)) *BreakerSink {
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: onStateChange,
	}
	return &BreakerSink{
		inner: inner,
		cb:    gobreaker.NewCircuitBreaker[any](settings),
	}
}

// Name implements Sink.
func (s *BreakerSink) Name() string {
	return s.inner.Name()
}

// State returns the breaker state as a string for monitoring.
func (s *BreakerSink) State() string {
	return s.cb.State().String()
}

// Deliver implements Sink.
func (s *BreakerSink) Deliver(ctx context.Context, rec *models.Record) error {
	_, err := s.cb.Execute(func() (any, error) {
		return nil, s.inner.Deliver(ctx, rec)
	})
	if err == nil {
		return nil
	}
	// ErrOpenState and ErrTooManyRequests come from the breaker itself;
	// wrap them so the relay logs them with the same context as transport
	// failures.
	if _, ok := err.(*DeliveryError); ok {
		return err
	}
	return &DeliveryError{
		Sink:    s.inner.Name(),
		Target:  "circuit-breaker",
		Payload: string(rec.Kind) + "/" + string(rec.Action),
		Err:     err,
	}
}
