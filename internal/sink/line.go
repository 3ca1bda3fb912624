// Relayfin - Media Server Telemetry Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/relayfin

package sink

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tomtom215/relayfin/internal/models"
)

// DefaultLineTimeout bounds one line-protocol write when no timeout is
// configured.
const DefaultLineTimeout = 10 * time.Second

// LineSinkConfig configures the line-protocol HTTP sink.
type LineSinkConfig struct {
	// WriteURL is the full write endpoint, e.g.
	// http://influx:8086/write?db=jellyfin
	WriteURL string

	// Timeout bounds one HTTP round trip. Default: DefaultLineTimeout.
	Timeout time.Duration

	// Client overrides the HTTP client, used by tests.
	Client *http.Client
}

// LineSink serializes records into line protocol and POSTs them to a
// time-series write endpoint, one line per record. Non-2xx responses are
// delivery failures; they are reported, never retried.
type LineSink struct {
	url    string
	client *http.Client
}

// NewLineSink creates a line-protocol sink.
func NewLineSink(cfg LineSinkConfig) *LineSink {
	client := cfg.Client
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultLineTimeout
		}
		client = &http.Client{Timeout: timeout}
	}
	return &LineSink{url: cfg.WriteURL, client: client}
}

// Name implements Sink.
func (s *LineSink) Name() string {
	return "influx"
}

// Deliver implements Sink.
func (s *LineSink) Deliver(ctx context.Context, rec *models.Record) error {
	line := EncodeLine(rec)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, strings.NewReader(line))
	if err != nil {
		return &DeliveryError{Sink: s.Name(), Target: s.url, Payload: line, Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return &DeliveryError{Sink: s.Name(), Target: s.url, Payload: line, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Read a bounded excerpt of the response for the log line.
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &DeliveryError{
			Sink:    s.Name(),
			Target:  s.url,
			Payload: line,
			Err:     fmt.Errorf("unexpected status %s: %s", resp.Status, string(body)),
		}
	}
	return nil
}

// EncodeLine serializes a record into one line-protocol line:
//
//	<measurement>,<tag>=<val>,... <field>=<val>,...
//
// The measurement is the record kind. Populated string fields become tags;
// item_size is an integer field and action a quoted string field. Session
// records carry no item tags.
func EncodeLine(rec *models.Record) string {
	var b strings.Builder
	b.WriteString(string(rec.Kind))

	writeTag(&b, "client", rec.Client)
	writeTag(&b, "device", rec.Device)
	if rec.HasItem() {
		writeTag(&b, "media_type", rec.MediaType)
		writeTag(&b, "item_name", rec.ItemName)
	}
	writeTag(&b, "user", rec.User)
	if rec.HasItem() {
		writeTag(&b, "series_name", rec.SeriesName)
	}

	b.WriteByte(' ')
	if rec.HasItem() {
		b.WriteString("item_size=")
		b.WriteString(strconv.FormatUint(rec.ItemSizeBytes, 10))
		b.WriteByte(',')
	}
	b.WriteString(`action="`)
	b.WriteString(string(rec.Action))
	b.WriteByte('"')

	return b.String()
}

func writeTag(b *strings.Builder, key, value string) {
	if value == "" {
		return
	}
	b.WriteByte(',')
	b.WriteString(key)
	b.WriteByte('=')
	b.WriteString(escapeLineValue(value))
}

// escapeLineValue escapes a tag value for line protocol. The replacements
// run in this order: space, '=', ','. Escaping is one-directional and not
// idempotent.
func escapeLineValue(value string) string {
	value = strings.ReplaceAll(value, " ", `\ `)
	value = strings.ReplaceAll(value, "=", `\=`)
	value = strings.ReplaceAll(value, ",", `\,`)
	return value
}
