// Relayfin - Media Server Telemetry Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/relayfin

package tracker

import (
	"sync"

	"github.com/tomtom215/relayfin/internal/metrics"
	"github.com/tomtom215/relayfin/internal/models"
)

// Tracker maintains the per-device "currently paused" flag and turns the
// raw progress stream into paused/resumed edges. Repeated progress
// callbacks that do not cross an edge produce nothing, which is how the
// relay deduplicates the server's periodic progress reports.
//
// The check-and-set is atomic under one mutex so concurrent progress
// callbacks for the same device cannot both observe "not paused" and
// double-emit a paused action.
//
// Entries are only cleared by start/stop/resume. A device that vanishes
// without a stop event keeps its entry for the process lifetime; upstream
// emits no device-removal event to key eviction on, so the map is bounded
// by device-id cardinality.
type Tracker struct {
	mu     sync.Mutex
	paused map[string]bool
}

// New creates an empty tracker.
func New() *Tracker {
	return &Tracker{paused: make(map[string]bool)}
}

// OnProgress records a progress callback for the device and reports whether
// it crossed a pause/resume edge. The returned action is only valid when
// ok is true.
func (t *Tracker) OnProgress(deviceID string, isPaused bool) (models.Action, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	was := t.paused[deviceID]
	switch {
	case isPaused && !was:
		t.paused[deviceID] = true
		metrics.PausedDevices.Set(float64(len(t.paused)))
		return models.ActionPaused, true
	case !isPaused && was:
		delete(t.paused, deviceID)
		metrics.PausedDevices.Set(float64(len(t.paused)))
		return models.ActionResumed, true
	default:
		return "", false
	}
}

// OnStart clears any stale paused flag so a fresh playback session starts
// from a clean state. Idempotent; unknown devices are not an error.
func (t *Tracker) OnStart(deviceID string) {
	t.clear(deviceID)
}

// OnStop clears the paused flag for the device. Idempotent.
func (t *Tracker) OnStop(deviceID string) {
	t.clear(deviceID)
}

func (t *Tracker) clear(deviceID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.paused, deviceID)
	metrics.PausedDevices.Set(float64(len(t.paused)))
}

// PausedCount returns the number of devices currently tracked as paused.
func (t *Tracker) PausedCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.paused)
}
