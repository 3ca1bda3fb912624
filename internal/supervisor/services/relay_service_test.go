// Relayfin - Media Server Telemetry Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/relayfin

package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type fakeRelay struct {
	startErr error
	started  atomic.Int32
	stopped  atomic.Int32
}

func (f *fakeRelay) Start() error {
	f.started.Add(1)
	return f.startErr
}

func (f *fakeRelay) Stop() {
	f.stopped.Add(1)
}

func TestRelayServiceStartsAndStops(t *testing.T) {
	relay := &fakeRelay{}
	svc := NewRelayService(relay)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	// Wait for Start before canceling.
	deadline := time.After(time.Second)
	for relay.started.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("relay never started")
		case <-time.After(time.Millisecond):
		}
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve returned %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Serve did not return after cancel")
	}

	if relay.stopped.Load() != 1 {
		t.Errorf("Stop called %d times, want 1", relay.stopped.Load())
	}
}

func TestRelayServiceStartFailure(t *testing.T) {
	relay := &fakeRelay{startErr: errors.New("source unavailable")}
	svc := NewRelayService(relay)

	err := svc.Serve(context.Background())
	if err == nil {
		t.Fatal("Serve should propagate start failure")
	}
	if relay.stopped.Load() != 0 {
		t.Error("Stop should not run when Start fails")
	}
}

func TestRelayServiceString(t *testing.T) {
	if got := NewRelayService(&fakeRelay{}).String(); got != "relay" {
		t.Errorf("String = %q", got)
	}
}
