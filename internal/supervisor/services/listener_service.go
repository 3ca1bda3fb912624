// Relayfin - Media Server Telemetry Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/relayfin

package services

import (
	"context"
)

// Server matches a context-driven serve loop.
//
// Satisfied by *source.Listener: Serve blocks until the context is
// canceled, then shuts the HTTP server down gracefully.
type Server interface {
	Serve(ctx context.Context) error
}

// ListenerService runs the webhook listener as a supervised service.
type ListenerService struct {
	server Server
	name   string
}

// NewListenerService wraps a server as a suture.Service.
func NewListenerService(server Server) *ListenerService {
	return &ListenerService{
		server: server,
		name:   "webhook-listener",
	}
}

// Serve implements suture.Service.
func (s *ListenerService) Serve(ctx context.Context) error {
	return s.server.Serve(ctx)
}

// String implements fmt.Stringer for supervisor logging.
func (s *ListenerService) String() string {
	return s.name
}
