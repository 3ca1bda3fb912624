// Relayfin - Media Server Telemetry Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/relayfin

package models

// RecordKind identifies the measurement/table a record is written to.
type RecordKind string

// Record kinds. The literal values are the line-protocol measurement names
// and the relational table names.
const (
	// KindPlayback covers playback start/stop/pause/resume events.
	KindPlayback RecordKind = "playback"
	// KindSession covers session started/ended events.
	KindSession RecordKind = "session"
	// KindWebAccess covers item-downloaded events.
	KindWebAccess RecordKind = "webaccess"
)

// Action describes what happened, carried as a quoted field value.
type Action string

// Action values.
const (
	ActionStarted    Action = "started"
	ActionStopped    Action = "stopped"
	ActionPaused     Action = "paused"
	ActionResumed    Action = "resumed"
	ActionEnded      Action = "ended"
	ActionDownloaded Action = "downloaded"
)

// Record is the normalized unit of telemetry produced by the normalizer and
// consumed exactly once by each configured sink.
//
// All string fields hold raw, unescaped values; escaping is the sink's job
// since every wire format has its own rules. A Record is immutable once
// constructed and carries no identity beyond the event that produced it.
type Record struct {
	Kind   RecordKind `json:"kind"`
	Action Action     `json:"action"`

	Client string `json:"client"`
	Device string `json:"device,omitempty"`
	User   string `json:"user"`

	// Item fields, absent for session records.
	MediaType  string `json:"media_type,omitempty"`
	ItemName   string `json:"item_name,omitempty"`
	SeriesName string `json:"series_name,omitempty"`

	// ItemSizeBytes is the on-disk size of the item at event time.
	// Zero when the lookup failed or the record has no item.
	ItemSizeBytes uint64 `json:"item_size,omitempty"`
}

// HasItem reports whether the record carries item fields.
// Session records carry only client/device/user.
func (r *Record) HasItem() bool {
	return r.Kind != KindSession
}
