// Relayfin - Media Server Telemetry Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/relayfin

// Package sink delivers normalized records to external stores. Sinks
// serialize and transmit one record per call and isolate their failures:
// a delivery error is reported to the caller for logging, never retried
// here and never allowed to corrupt in-process state.
package sink

import (
	"context"

	"github.com/tomtom215/relayfin/internal/models"
)

// Sink is the delivery target abstraction. Implementations must be safe
// for concurrent Deliver calls; the relay's worker pool invokes them from
// multiple goroutines.
type Sink interface {
	// Name identifies the sink in logs and metrics.
	Name() string

	// Deliver serializes and transmits one record. The context carries the
	// per-delivery timeout; implementations must respect it.
	Deliver(ctx context.Context, rec *models.Record) error
}
