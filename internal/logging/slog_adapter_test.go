// Relayfin - Media Server Telemetry Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/relayfin

package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestSlogHandlerWritesToZerolog(t *testing.T) {
	var buf bytes.Buffer
	handler := NewSlogHandlerWithLogger(NewTestLogger(&buf))
	logger := slog.New(handler)

	logger.Info("started", slog.String("service", "relay"))

	out := buf.String()
	if !strings.Contains(out, `"service":"relay"`) {
		t.Errorf("slog attr not forwarded: %s", out)
	}
	if !strings.Contains(out, "started") {
		t.Errorf("slog message not forwarded: %s", out)
	}
}

func TestSlogHandlerWithAttrs(t *testing.T) {
	var buf bytes.Buffer
	handler := NewSlogHandlerWithLogger(NewTestLogger(&buf))
	logger := slog.New(handler).With(slog.String("fixed", "value"))

	logger.Warn("warned")

	out := buf.String()
	if !strings.Contains(out, `"fixed":"value"`) {
		t.Errorf("pre-configured attr missing: %s", out)
	}
	if !strings.Contains(out, `"level":"warn"`) {
		t.Errorf("level not mapped: %s", out)
	}
}

func TestSlogHandlerWithGroup(t *testing.T) {
	var buf bytes.Buffer
	handler := NewSlogHandlerWithLogger(NewTestLogger(&buf))
	logger := slog.New(handler).WithGroup("svc")

	logger.Info("grouped", slog.String("name", "relay"))

	if !strings.Contains(buf.String(), `"svc.name":"relay"`) {
		t.Errorf("group prefix missing: %s", buf.String())
	}
}

func TestSlogHandlerEnabled(t *testing.T) {
	var buf bytes.Buffer
	zl := NewTestLogger(&buf).Level(parseLevel("warn"))
	handler := NewSlogHandlerWithLogger(zl)

	if handler.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("debug should be disabled at warn level")
	}
	if !handler.Enabled(context.Background(), slog.LevelError) {
		t.Error("error should be enabled at warn level")
	}
}
