// Relayfin - Media Server Telemetry Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/relayfin

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus instrumentation for the relay pipeline:
// - Webhook ingestion volume
// - Normalization output by record kind/action
// - Sink delivery throughput, latency and failures
// - Delivery queue pressure and load shedding
// - Pause-state tracking

var (
	// Ingestion Metrics
	EventsReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relayfin_events_received_total",
			Help: "Total upstream events received, by event kind",
		},
		[]string{"event"},
	)

	EventsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relayfin_events_rejected_total",
			Help: "Total webhook requests rejected before dispatch",
		},
		[]string{"reason"}, // "missing_signature", "invalid_signature", "invalid_json", "unknown_type", ...
	)

	// Normalization Metrics
	RecordsNormalized = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relayfin_records_normalized_total",
			Help: "Total records produced by the normalizer, by kind and action",
		},
		[]string{"kind", "action"},
	)

	SizeLookupFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "relayfin_size_lookup_failures_total",
			Help: "Total item size lookups that failed and degraded to zero",
		},
	)

	// Tracker Metrics
	PausedDevices = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "relayfin_paused_devices",
			Help: "Current number of devices tracked as paused",
		},
	)

	// Delivery Metrics
	DeliveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relayfin_deliveries_total",
			Help: "Total sink deliveries, by sink and outcome",
		},
		[]string{"sink", "status"}, // status: "ok", "error"
	)

	DeliveryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "relayfin_delivery_duration_seconds",
			Help:    "Sink delivery duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"sink"},
	)

	DeliveryQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "relayfin_delivery_queue_depth",
			Help: "Current number of records waiting for delivery",
		},
	)

	DeliveriesShed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "relayfin_deliveries_shed_total",
			Help: "Total records dropped because the delivery queue was full",
		},
	)

	// Containment Metrics
	HandlerPanics = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "relayfin_handler_panics_total",
			Help: "Total panics recovered at the event handler boundary",
		},
	)
)
