// Relayfin - Media Server Telemetry Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/relayfin

package services

import (
	"context"
	"testing"
	"time"
)

type fakeServer struct {
	err error
}

func (f *fakeServer) Serve(ctx context.Context) error {
	<-ctx.Done()
	if f.err != nil {
		return f.err
	}
	return ctx.Err()
}

func TestListenerServicePassesThrough(t *testing.T) {
	svc := NewListenerService(&fakeServer{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()
	cancel()

	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("Serve returned %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestListenerServiceString(t *testing.T) {
	if got := NewListenerService(&fakeServer{}).String(); got != "webhook-listener" {
		t.Errorf("String = %q", got)
	}
}
