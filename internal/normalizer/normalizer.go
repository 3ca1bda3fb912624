// Relayfin - Media Server Telemetry Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/relayfin

// Package normalizer maps upstream media server events onto the normalized
// record schema. Each upstream event kind produces at most one record;
// playback progress is gated by the pause/resume tracker so only edge
// transitions emit.
package normalizer

import (
	"os"

	"github.com/tomtom215/relayfin/internal/logging"
	"github.com/tomtom215/relayfin/internal/metrics"
	"github.com/tomtom215/relayfin/internal/models"
	"github.com/tomtom215/relayfin/internal/tracker"
)

// FileSizer resolves the on-disk size of a media item. The lookup runs at
// event time; a failure degrades the record to size 0 and is never fatal.
type FileSizer interface {
	Size(path string) (uint64, error)
}

// OSFileSizer resolves sizes with os.Stat.
type OSFileSizer struct{}

// Size returns the file size in bytes.
func (OSFileSizer) Size(path string) (uint64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	size := info.Size()
	if size < 0 {
		return 0, nil
	}
	return uint64(size), nil
}

// Normalizer converts upstream events into records. It owns no delivery
// concerns; records go wherever the caller sends them.
type Normalizer struct {
	tracker *tracker.Tracker
	sizer   FileSizer
}

// New creates a normalizer. A nil sizer falls back to OSFileSizer.
func New(tr *tracker.Tracker, sizer FileSizer) *Normalizer {
	if sizer == nil {
		sizer = OSFileSizer{}
	}
	return &Normalizer{tracker: tr, sizer: sizer}
}

// PlaybackStart normalizes a playback-start event. Any stale paused flag
// for the device is cleared first so the new session starts clean.
func (n *Normalizer) PlaybackStart(e models.PlaybackEvent) *models.Record {
	n.tracker.OnStart(e.DeviceID)
	return n.playbackRecord(e, models.KindPlayback, models.ActionStarted)
}

// PlaybackStop normalizes a playback-stop event and clears the paused flag.
func (n *Normalizer) PlaybackStop(e models.PlaybackEvent) *models.Record {
	n.tracker.OnStop(e.DeviceID)
	return n.playbackRecord(e, models.KindPlayback, models.ActionStopped)
}

// PlaybackProgress normalizes a progress callback. It returns a record only
// when the callback crosses a pause or resume edge for the device; repeated
// callbacks on the same side of the edge return nil.
func (n *Normalizer) PlaybackProgress(e models.PlaybackEvent) *models.Record {
	action, ok := n.tracker.OnProgress(e.DeviceID, e.IsPaused)
	if !ok {
		return nil
	}
	return n.playbackRecord(e, models.KindPlayback, action)
}

// ItemDownloaded normalizes an item-downloaded event.
func (n *Normalizer) ItemDownloaded(e models.PlaybackEvent) *models.Record {
	return n.playbackRecord(e, models.KindWebAccess, models.ActionDownloaded)
}

// SessionStarted normalizes a session-started event. Session records carry
// no item fields.
func (n *Normalizer) SessionStarted(e models.SessionEvent) *models.Record {
	return sessionRecord(e, models.ActionStarted)
}

// SessionEnded normalizes a session-ended event.
func (n *Normalizer) SessionEnded(e models.SessionEvent) *models.Record {
	return sessionRecord(e, models.ActionEnded)
}

func (n *Normalizer) playbackRecord(e models.PlaybackEvent, kind models.RecordKind, action models.Action) *models.Record {
	rec := &models.Record{
		Kind:          kind,
		Action:        action,
		Client:        e.Client,
		Device:        e.DeviceName,
		User:          e.FirstUser(),
		MediaType:     e.Item.Type,
		ItemName:      e.Item.Name,
		SeriesName:    seriesName(e.Item),
		ItemSizeBytes: n.itemSize(e),
	}
	metrics.RecordsNormalized.WithLabelValues(string(kind), string(action)).Inc()
	return rec
}

func sessionRecord(e models.SessionEvent, action models.Action) *models.Record {
	rec := &models.Record{
		Kind:   models.KindSession,
		Action: action,
		Client: e.Client,
		Device: e.DeviceName,
		User:   e.User,
	}
	metrics.RecordsNormalized.WithLabelValues(string(models.KindSession), string(action)).Inc()
	return rec
}

// seriesName applies the series derivation rule: episodes report their
// parent series, everything else reports its own name.
func seriesName(item models.Item) string {
	if item.IsEpisode() && item.SeriesName != "" {
		return item.SeriesName
	}
	return item.Name
}

// itemSize resolves the item's on-disk size. A failed lookup is a
// diagnostic, not an error: the record is emitted with size 0.
func (n *Normalizer) itemSize(e models.PlaybackEvent) uint64 {
	if e.Item.Path == "" {
		return 0
	}
	size, err := n.sizer.Size(e.Item.Path)
	if err != nil {
		metrics.SizeLookupFailures.Inc()
		logging.Warn().
			Err(err).
			Str("event_id", e.EventID).
			Str("path", e.Item.Path).
			Str("item", e.Item.Name).
			Msg("Item size lookup failed, recording size 0")
		return 0
	}
	return size
}
