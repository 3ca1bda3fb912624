// Relayfin - Media Server Telemetry Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/relayfin

package sink

import (
	"context"
	"errors"
	"testing"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/relayfin/internal/models"
)

type stubSink struct {
	name  string
	err   error
	calls int
}

func (s *stubSink) Name() string { return s.name }

func (s *stubSink) Deliver(context.Context, *models.Record) error {
	s.calls++
	return s.err
}

func TestBreakerSinkPassesThrough(t *testing.T) {
	inner := &stubSink{name: "influx"}
	s := NewBreakerSink(inner, DefaultCircuitBreakerConfig("influx"), nil)

	if err := s.Deliver(context.Background(), playbackRecord()); err != nil {
		t.Fatalf("Deliver returned error: %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("inner calls = %d, want 1", inner.calls)
	}
	if s.State() != "closed" {
		t.Errorf("State = %q, want closed", s.State())
	}
}

func TestBreakerSinkOpensAfterFailures(t *testing.T) {
	failure := &DeliveryError{Sink: "influx", Target: "http://x", Err: errors.New("down")}
	inner := &stubSink{name: "influx", err: failure}
	cfg := CircuitBreakerConfig{
		Name:             "influx",
		MaxRequests:      1,
		Interval:         time.Second,
		Timeout:          time.Minute,
		FailureThreshold: 2,
	}
	s := NewBreakerSink(inner, cfg, nil)

	// Two failures trip the breaker.
	for i := 0; i < 2; i++ {
		if err := s.Deliver(context.Background(), playbackRecord()); err == nil {
			t.Fatal("expected delivery error")
		}
	}
	if s.State() != "open" {
		t.Fatalf("State = %q, want open", s.State())
	}

	// Third call is shed without reaching the inner sink.
	before := inner.calls
	err := s.Deliver(context.Background(), playbackRecord())
	if inner.calls != before {
		t.Error("open breaker should not call inner sink")
	}
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("error = %v, want ErrOpenState", err)
	}
	var derr *DeliveryError
	if !errors.As(err, &derr) {
		t.Errorf("shed error should be a *DeliveryError, got %T", err)
	}
}

func TestBreakerSinkStateChangeCallback(t *testing.T) {
	var transitions []string
	onChange := func(name string, from, to gobreaker.State) {
		transitions = append(transitions, from.String()+"->"+to.String())
	}

	inner := &stubSink{name: "postgres", err: errors.New("down")}
	cfg := CircuitBreakerConfig{
		Name:             "postgres",
		MaxRequests:      1,
		Interval:         time.Second,
		Timeout:          time.Minute,
		FailureThreshold: 1,
	}
	s := NewBreakerSink(inner, cfg, onChange)

	_ = s.Deliver(context.Background(), playbackRecord())

	if len(transitions) != 1 || transitions[0] != "closed->open" {
		t.Errorf("transitions = %v, want [closed->open]", transitions)
	}
}
