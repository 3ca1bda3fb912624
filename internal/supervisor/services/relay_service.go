// Relayfin - Media Server Telemetry Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/relayfin

package services

import (
	"context"
	"fmt"
)

// RelayManager matches the relay's lifecycle methods.
//
// Satisfied by *relay.Relay. The interface keeps this wrapper testable
// without a real pipeline behind it.
type RelayManager interface {
	Start() error
	Stop()
}

// RelayService runs a start/stop managed relay as a supervised service.
//
// Start failures are returned to suture, which restarts the service with
// backoff. On context cancellation the relay is stopped and drained
// before the service returns.
type RelayService struct {
	relay RelayManager
	name  string
}

// NewRelayService wraps a relay manager as a suture.Service.
func NewRelayService(relay RelayManager) *RelayService {
	return &RelayService{
		relay: relay,
		name:  "relay",
	}
}

// Serve implements suture.Service.
func (s *RelayService) Serve(ctx context.Context) error {
	if err := s.relay.Start(); err != nil {
		return fmt.Errorf("relay start failed: %w", err)
	}

	<-ctx.Done()
	s.relay.Stop()
	return ctx.Err()
}

// String implements fmt.Stringer for supervisor logging.
func (s *RelayService) String() string {
	return s.name
}
