// Relayfin - Media Server Telemetry Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/relayfin

package sink

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tomtom215/relayfin/internal/models"
)

// Insert statements per record kind. Table names match the record kind
// literals; "user" needs quoting as a reserved word.
const (
	insertPlaybackSQL  = `INSERT INTO playback (client, device, media_type, item_name, "user", series_name, item_size, action) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	insertWebAccessSQL = `INSERT INTO webaccess (client, device, media_type, item_name, "user", series_name, item_size, action) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	insertSessionSQL   = `INSERT INTO session (client, device, "user", action) VALUES ($1, $2, $3, $4)`
)

// Execer is the slice of pgxpool.Pool the sink needs. Tests substitute a
// fake; production passes the shared pool from Connect.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Connect opens the shared connection pool used by the Postgres sink. The
// pool is lifecycle-managed by the caller (created at startup, closed at
// shutdown); Deliver never opens connections of its own.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("pgxpool: %w", err)
	}
	return pool, nil
}

// PostgresSink writes one parameterized INSERT per record into a table
// named after the record kind. Safe for concurrent Deliver calls; the
// pool serializes access to connections.
type PostgresSink struct {
	db Execer
}

// NewPostgresSink creates a Postgres sink backed by the given pool.
func NewPostgresSink(db Execer) *PostgresSink {
	return &PostgresSink{db: db}
}

// Name implements Sink.
func (s *PostgresSink) Name() string {
	return "postgres"
}

// Deliver implements Sink.
func (s *PostgresSink) Deliver(ctx context.Context, rec *models.Record) error {
	var err error
	switch rec.Kind {
	case models.KindSession:
		_, err = s.db.Exec(ctx, insertSessionSQL,
			rec.Client, rec.Device, rec.User, string(rec.Action))
	case models.KindPlayback:
		_, err = s.db.Exec(ctx, insertPlaybackSQL,
			rec.Client, rec.Device, rec.MediaType, rec.ItemName,
			rec.User, rec.SeriesName, rec.ItemSizeBytes, string(rec.Action))
	case models.KindWebAccess:
		_, err = s.db.Exec(ctx, insertWebAccessSQL,
			rec.Client, rec.Device, rec.MediaType, rec.ItemName,
			rec.User, rec.SeriesName, rec.ItemSizeBytes, string(rec.Action))
	default:
		err = fmt.Errorf("unknown record kind %q", rec.Kind)
	}

	if err != nil {
		return &DeliveryError{
			Sink:    s.Name(),
			Target:  string(rec.Kind),
			Payload: fmt.Sprintf("%s/%s for %s", rec.Kind, rec.Action, rec.User),
			Err:     err,
		}
	}
	return nil
}
