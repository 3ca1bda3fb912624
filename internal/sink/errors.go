// Relayfin - Media Server Telemetry Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/relayfin

package sink

import "fmt"

// DeliveryError wraps a failed sink transmission with enough context to
// diagnose it from logs: which sink, which target, and what was sent.
type DeliveryError struct {
	// Sink is the sink name ("influx", "postgres").
	Sink string
	// Target is the endpoint or table written to.
	Target string
	// Payload is the serialized record or a short description of it.
	Payload string
	// Err is the underlying transport or server error.
	Err error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("%s delivery to %s failed: %v (payload: %s)", e.Sink, e.Target, e.Err, e.Payload)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}
