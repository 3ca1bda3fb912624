// Relayfin - Media Server Telemetry Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/relayfin

// Relayfin receives playback and session notifications from the Jellyfin
// webhook plugin, normalizes them into telemetry records, and delivers
// each record to the configured sinks: an InfluxDB line-protocol HTTP
// endpoint, a PostgreSQL database, or both.
//
// # Quick Start
//
// Configure at least one sink and point the Jellyfin webhook plugin at
// http://relayfin:8096/webhook with a generic JSON template.
//
// Docker (InfluxDB sink):
//
//	docker run -d \
//	  -e INFLUX_ENABLED=true \
//	  -e INFLUX_WRITE_URL=http://influx:8086/write?db=jellyfin \
//	  -p 8096:8096 \
//	  ghcr.io/tomtom215/relayfin
//
// Docker (PostgreSQL sink):
//
//	docker run -d \
//	  -e POSTGRES_ENABLED=true \
//	  -e POSTGRES_DSN=postgres://relay:secret@db:5432/jellyfin \
//	  -p 8096:8096 \
//	  ghcr.io/tomtom215/relayfin
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/relayfin/internal/config"
	"github.com/tomtom215/relayfin/internal/logging"
	"github.com/tomtom215/relayfin/internal/normalizer"
	"github.com/tomtom215/relayfin/internal/relay"
	"github.com/tomtom215/relayfin/internal/sink"
	"github.com/tomtom215/relayfin/internal/source"
	"github.com/tomtom215/relayfin/internal/supervisor"
	"github.com/tomtom215/relayfin/internal/supervisor/services"
	"github.com/tomtom215/relayfin/internal/tracker"
)

func main() {
	// Load configuration first to get logging settings
	cfg, err := config.Load()
	if err != nil {
		// Use default logger for config errors (config not yet available)
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().Msg("Starting Relayfin")

	// Echo the active configuration with secrets masked.
	if data, err := json.Marshal(cfg.Redacted()); err == nil {
		logging.Info().RawJSON("config", data).Msg("Configuration loaded")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out := buildSinks(ctx, cfg)

	norm := normalizer.New(tracker.New(), nil)
	listener := source.NewListener(source.Config{
		Host:            cfg.Source.Host,
		Port:            cfg.Source.Port,
		WebhookSecret:   cfg.Source.WebhookSecret,
		ShutdownTimeout: cfg.Source.ShutdownTimeout,
	})
	rel := relay.New(relay.Config{
		Workers:         cfg.Relay.Workers,
		QueueSize:       cfg.Relay.QueueSize,
		DeliveryTimeout: cfg.Relay.DeliveryTimeout,
	}, listener, norm, out)

	// Bridge zerolog to slog for sutureslog.
	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddPipelineService(services.NewRelayService(rel))
	tree.AddHTTPService(services.NewListenerService(listener))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		reportUnstopped(tree)
		logging.Fatal().Err(err).Msg("Supervisor tree failed")
	}

	reportUnstopped(tree)
	logging.Info().Msg("Relayfin stopped")
}

// buildSinks assembles the configured delivery fan-out. Each enabled sink
// is wrapped in its own circuit breaker so a dead destination sheds load
// instead of tying up delivery workers.
func buildSinks(ctx context.Context, cfg *config.Config) sink.Sink {
	var sinks []sink.Sink

	onBreakerChange := func(name string, from, to gobreaker.State) {
		logging.Warn().
			Str("sink", name).
			Str("from", from.String()).
			Str("to", to.String()).
			Msg("Sink circuit breaker state changed")
	}

	if cfg.Influx.Enabled {
		line := sink.NewLineSink(sink.LineSinkConfig{
			WriteURL: cfg.Influx.WriteURL,
			Timeout:  cfg.Influx.Timeout,
		})
		sinks = append(sinks, sink.NewBreakerSink(line, sink.DefaultCircuitBreakerConfig("influx"), onBreakerChange))
		logging.Info().Str("write_url", cfg.Influx.WriteURL).Msg("InfluxDB sink enabled")
	}

	if cfg.Postgres.Enabled {
		pool, err := sink.Connect(ctx, cfg.Postgres.DSN)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
		}
		pg := sink.NewPostgresSink(pool)
		sinks = append(sinks, sink.NewBreakerSink(pg, sink.DefaultCircuitBreakerConfig("postgres"), onBreakerChange))
		logging.Info().Msg("PostgreSQL sink enabled")
	}

	return sink.NewMultiSink(sinks...)
}

// reportUnstopped logs services that did not stop within the shutdown
// timeout.
func reportUnstopped(tree *supervisor.Tree) {
	report, err := tree.UnstoppedServiceReport()
	if err != nil || len(report) == 0 {
		return
	}
	for _, svc := range report {
		logging.Warn().Str("service", svc.Name).Msg("Service did not stop within timeout")
	}
}
