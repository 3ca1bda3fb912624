// Relayfin - Media Server Telemetry Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/relayfin

package sink

import (
	"context"
	"errors"
	"testing"
)

func TestMultiSinkDeliversToAll(t *testing.T) {
	a := &stubSink{name: "influx"}
	b := &stubSink{name: "postgres"}
	m := NewMultiSink(a, b)

	if err := m.Deliver(context.Background(), playbackRecord()); err != nil {
		t.Fatalf("Deliver returned error: %v", err)
	}
	if a.calls != 1 || b.calls != 1 {
		t.Errorf("calls = %d/%d, want 1/1", a.calls, b.calls)
	}
}

func TestMultiSinkIsolatesFailures(t *testing.T) {
	failure := &DeliveryError{Sink: "influx", Target: "http://x", Err: errors.New("down")}
	a := &stubSink{name: "influx", err: failure}
	b := &stubSink{name: "postgres"}
	m := NewMultiSink(a, b)

	err := m.Deliver(context.Background(), playbackRecord())
	if err == nil {
		t.Fatal("expected joined error")
	}
	// The healthy sink still received the record.
	if b.calls != 1 {
		t.Errorf("postgres calls = %d, want 1 despite influx failure", b.calls)
	}
	var derr *DeliveryError
	if !errors.As(err, &derr) {
		t.Errorf("joined error should unwrap to *DeliveryError, got %v", err)
	}
}

func TestMultiSinkEmpty(t *testing.T) {
	m := NewMultiSink()
	if m.Len() != 0 {
		t.Errorf("Len = %d, want 0", m.Len())
	}
	if err := m.Deliver(context.Background(), playbackRecord()); err != nil {
		t.Errorf("empty multi sink should not error: %v", err)
	}
}
