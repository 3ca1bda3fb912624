// Relayfin - Media Server Telemetry Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/relayfin

package models

// ============================================================================
// Jellyfin Webhook Notification Models
// ============================================================================
// These structures represent push notifications from the Jellyfin webhook
// plugin, configured with a generic JSON template. Field names follow
// Jellyfin's PascalCase JSON convention.

// Webhook notification types mapped onto the six upstream event kinds.
const (
	NotificationPlaybackStart    = "PlaybackStart"
	NotificationPlaybackStop     = "PlaybackStop"
	NotificationPlaybackProgress = "PlaybackProgress"
	NotificationSessionStarted   = "SessionStarted"
	NotificationSessionEnded     = "SessionEnded"
	NotificationItemDownloaded   = "ItemDownloaded"
)

// WebhookPayload is the decoded body of one webhook POST.
type WebhookPayload struct {
	NotificationType string `json:"NotificationType"` // One of the Notification* constants

	// Client/device identification
	ClientName string `json:"ClientName"`
	DeviceID   string `json:"DeviceId"`
	DeviceName string `json:"DeviceName"`

	// Users associated with the event. NotificationUsername is the legacy
	// single-user form some templates emit instead of Users.
	Users                []WebhookUser `json:"Users,omitempty"`
	NotificationUsername string        `json:"NotificationUsername,omitempty"`

	// Item metadata, absent for session notifications
	Name       string `json:"Name,omitempty"`       // Item title
	ItemType   string `json:"ItemType,omitempty"`   // "Movie", "Episode", ...
	ItemPath   string `json:"Path,omitempty"`       // On-disk path
	SeriesName string `json:"SeriesName,omitempty"` // Parent series, episodes only

	// Playback state, progress notifications only
	IsPaused bool `json:"IsPaused,omitempty"`
}

// WebhookUser is one user entry in a webhook payload.
type WebhookUser struct {
	Username string `json:"Username"`
	UserID   string `json:"UserId,omitempty"`
}

// Usernames collapses the payload's user information into an ordered list,
// falling back to NotificationUsername for single-user templates.
func (p *WebhookPayload) Usernames() []string {
	if len(p.Users) > 0 {
		names := make([]string, 0, len(p.Users))
		for _, u := range p.Users {
			if u.Username != "" {
				names = append(names, u.Username)
			}
		}
		if len(names) > 0 {
			return names
		}
	}
	if p.NotificationUsername != "" {
		return []string{p.NotificationUsername}
	}
	return nil
}

// Item builds the event item from the payload's metadata fields.
func (p *WebhookPayload) Item() Item {
	return Item{
		Name:       p.Name,
		Type:       p.ItemType,
		Path:       p.ItemPath,
		SeriesName: p.SeriesName,
	}
}
