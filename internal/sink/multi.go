// Relayfin - Media Server Telemetry Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/relayfin

package sink

import (
	"context"
	"errors"
	"time"

	"github.com/tomtom215/relayfin/internal/logging"
	"github.com/tomtom215/relayfin/internal/metrics"
	"github.com/tomtom215/relayfin/internal/models"
)

// MultiSink fans one record out to every configured sink. Each sink's
// failure is isolated: it is logged and counted, and the remaining sinks
// still receive the record. The joined error is returned so the caller can
// count the delivery as failed; it carries no control-flow meaning beyond
// that.
type MultiSink struct {
	sinks []Sink
}

// NewMultiSink creates a fan-out sink over the given sinks.
func NewMultiSink(sinks ...Sink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

// Name implements Sink.
func (s *MultiSink) Name() string {
	return "multi"
}

// Len returns the number of configured sinks.
func (s *MultiSink) Len() int {
	return len(s.sinks)
}

// Deliver implements Sink.
func (s *MultiSink) Deliver(ctx context.Context, rec *models.Record) error {
	var errs []error
	for _, target := range s.sinks {
		start := time.Now()
		err := target.Deliver(ctx, rec)
		metrics.DeliveryDuration.WithLabelValues(target.Name()).Observe(time.Since(start).Seconds())

		if err != nil {
			metrics.DeliveriesTotal.WithLabelValues(target.Name(), "error").Inc()
			logging.Error().
				Err(err).
				Str("sink", target.Name()).
				Str("kind", string(rec.Kind)).
				Str("action", string(rec.Action)).
				Str("user", rec.User).
				Msg("Delivery failed")
			errs = append(errs, err)
			continue
		}
		metrics.DeliveriesTotal.WithLabelValues(target.Name(), "ok").Inc()
	}
	return errors.Join(errs...)
}
