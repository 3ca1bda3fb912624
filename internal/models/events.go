// Relayfin - Media Server Telemetry Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/relayfin

package models

// Item type tags as reported by the media server. These match the concrete
// item type names the server uses, which is also what lands in the
// media_type column/tag.
const (
	ItemTypeMovie   = "Movie"
	ItemTypeEpisode = "Episode"
	ItemTypeAudio   = "Audio"
)

// Item describes the media item attached to a playback or download event.
type Item struct {
	// Name is the item's own title (episode title for episodes).
	Name string
	// Type is the concrete item type name, e.g. "Episode" or "Movie".
	Type string
	// Path is the item's on-disk path, used for the size lookup.
	Path string
	// SeriesName is the parent series title. Only set for episodes.
	SeriesName string
}

// IsEpisode reports whether the item is a TV episode. Episodes report their
// parent series as series_name instead of their own title.
func (i Item) IsEpisode() bool {
	return i.Type == ItemTypeEpisode
}

// PlaybackEvent is an upstream playback or item-downloaded event.
type PlaybackEvent struct {
	// EventID correlates log lines for one inbound event.
	EventID string

	Client     string
	DeviceID   string
	DeviceName string

	// Users lists the usernames associated with the event. Non-empty by the
	// upstream contract; only the first user is attributed (multi-user
	// events are not fanned out).
	Users []string

	Item Item

	// IsPaused is only meaningful for progress events.
	IsPaused bool
}

// FirstUser returns the first associated username, or "" when the upstream
// event arrived without users.
func (e PlaybackEvent) FirstUser() string {
	if len(e.Users) == 0 {
		return ""
	}
	return e.Users[0]
}

// SessionEvent is an upstream session lifecycle event. Sessions carry no
// item; device may be empty for session-only clients.
type SessionEvent struct {
	// EventID correlates log lines for one inbound event.
	EventID string

	Client     string
	DeviceName string
	User       string
}
