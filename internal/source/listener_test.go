// Relayfin - Media Server Telemetry Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/relayfin

package source

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/tomtom215/relayfin/internal/models"
	"github.com/tomtom215/relayfin/internal/relay"
)

// eventCollector records handler invocations for assertions.
type eventCollector struct {
	mu       sync.Mutex
	playback []models.PlaybackEvent
	sessions []models.SessionEvent
	kinds    []string
}

func (c *eventCollector) handlers() relay.Handlers {
	record := func(kind string, e models.PlaybackEvent) {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.kinds = append(c.kinds, kind)
		c.playback = append(c.playback, e)
	}
	recordSession := func(kind string, e models.SessionEvent) {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.kinds = append(c.kinds, kind)
		c.sessions = append(c.sessions, e)
	}
	return relay.Handlers{
		PlaybackStart:    func(e models.PlaybackEvent) { record("playback_start", e) },
		PlaybackStop:     func(e models.PlaybackEvent) { record("playback_stop", e) },
		PlaybackProgress: func(e models.PlaybackEvent) { record("playback_progress", e) },
		SessionStarted:   func(e models.SessionEvent) { recordSession("session_started", e) },
		SessionEnded:     func(e models.SessionEvent) { recordSession("session_ended", e) },
		ItemDownloaded:   func(e models.PlaybackEvent) { record("item_downloaded", e) },
	}
}

func signBody(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func postWebhook(t *testing.T, router http.Handler, body []byte, signature string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if signature != "" {
		req.Header.Set("X-Webhook-Signature", signature)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

const playbackStartBody = `{
	"NotificationType": "PlaybackStart",
	"ClientName": "Jellyfin Web",
	"DeviceId": "dev-1",
	"DeviceName": "Living Room TV",
	"Users": [{"Username": "alice", "UserId": "u-1"}],
	"Name": "S01E01",
	"ItemType": "Episode",
	"Path": "/media/show/s01e01.mkv",
	"SeriesName": "Show X"
}`

func TestWebhookDispatchesPlaybackStart(t *testing.T) {
	c := &eventCollector{}
	l := NewListener(Config{})
	if err := l.Subscribe(c.handlers()); err != nil {
		t.Fatalf("Subscribe returned error: %v", err)
	}

	w := postWebhook(t, l.Router(), []byte(playbackStartBody), "")
	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", w.Code)
	}

	if len(c.playback) != 1 {
		t.Fatalf("playback events = %d, want 1", len(c.playback))
	}
	e := c.playback[0]
	if e.EventID == "" {
		t.Error("event should carry a generated event ID")
	}
	if e.Client != "Jellyfin Web" || e.DeviceID != "dev-1" || e.DeviceName != "Living Room TV" {
		t.Errorf("event device fields = %+v", e)
	}
	if len(e.Users) != 1 || e.Users[0] != "alice" {
		t.Errorf("users = %v, want [alice]", e.Users)
	}
	if e.Item.Name != "S01E01" || e.Item.SeriesName != "Show X" || !e.Item.IsEpisode() {
		t.Errorf("item = %+v", e.Item)
	}
}

func TestWebhookDispatchTable(t *testing.T) {
	tests := []struct {
		notificationType string
		wantKind         string
	}{
		{"PlaybackStart", "playback_start"},
		{"PlaybackStop", "playback_stop"},
		{"PlaybackProgress", "playback_progress"},
		{"SessionStarted", "session_started"},
		{"SessionEnded", "session_ended"},
		{"ItemDownloaded", "item_downloaded"},
	}
	for _, tt := range tests {
		t.Run(tt.notificationType, func(t *testing.T) {
			c := &eventCollector{}
			l := NewListener(Config{})
			if err := l.Subscribe(c.handlers()); err != nil {
				t.Fatalf("Subscribe returned error: %v", err)
			}

			body := []byte(`{"NotificationType": "` + tt.notificationType + `", "ClientName": "c", "NotificationUsername": "alice"}`)
			w := postWebhook(t, l.Router(), body, "")
			if w.Code != http.StatusNoContent {
				t.Fatalf("status = %d, want 204", w.Code)
			}
			if len(c.kinds) != 1 || c.kinds[0] != tt.wantKind {
				t.Errorf("dispatched = %v, want [%s]", c.kinds, tt.wantKind)
			}
		})
	}
}

func TestWebhookSessionUsernameFallback(t *testing.T) {
	c := &eventCollector{}
	l := NewListener(Config{})
	if err := l.Subscribe(c.handlers()); err != nil {
		t.Fatalf("Subscribe returned error: %v", err)
	}

	body := []byte(`{"NotificationType": "SessionStarted", "ClientName": "DLNA", "NotificationUsername": "bob"}`)
	postWebhook(t, l.Router(), body, "")

	if len(c.sessions) != 1 {
		t.Fatalf("session events = %d, want 1", len(c.sessions))
	}
	if c.sessions[0].User != "bob" {
		t.Errorf("user = %q, want bob", c.sessions[0].User)
	}
}

func TestWebhookUnknownTypeDropped(t *testing.T) {
	c := &eventCollector{}
	l := NewListener(Config{})
	if err := l.Subscribe(c.handlers()); err != nil {
		t.Fatalf("Subscribe returned error: %v", err)
	}

	body := []byte(`{"NotificationType": "UserLockedOut"}`)
	w := postWebhook(t, l.Router(), body, "")
	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", w.Code)
	}
	if len(c.kinds) != 0 {
		t.Errorf("dispatched = %v, want none", c.kinds)
	}
}

func TestWebhookInvalidJSON(t *testing.T) {
	l := NewListener(Config{})
	w := postWebhook(t, l.Router(), []byte(`{not json`), "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestWebhookWithoutSubscriber(t *testing.T) {
	l := NewListener(Config{})
	w := postWebhook(t, l.Router(), []byte(playbackStartBody), "")
	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204 even without a subscriber", w.Code)
	}
}

func TestWebhookSignatureVerification(t *testing.T) {
	const secret = "test-webhook-secret-0123456789abcdef"
	body := []byte(playbackStartBody)

	t.Run("missing signature", func(t *testing.T) {
		l := NewListener(Config{WebhookSecret: secret})
		w := postWebhook(t, l.Router(), body, "")
		if w.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", w.Code)
		}
	})

	t.Run("invalid signature", func(t *testing.T) {
		l := NewListener(Config{WebhookSecret: secret})
		w := postWebhook(t, l.Router(), body, "deadbeef")
		if w.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", w.Code)
		}
	})

	t.Run("valid signature", func(t *testing.T) {
		c := &eventCollector{}
		l := NewListener(Config{WebhookSecret: secret})
		if err := l.Subscribe(c.handlers()); err != nil {
			t.Fatalf("Subscribe returned error: %v", err)
		}
		w := postWebhook(t, l.Router(), body, signBody(body, secret))
		if w.Code != http.StatusNoContent {
			t.Errorf("status = %d, want 204", w.Code)
		}
		if len(c.playback) != 1 {
			t.Errorf("playback events = %d, want 1", len(c.playback))
		}
	})
}

func TestSubscribeTwiceFails(t *testing.T) {
	c := &eventCollector{}
	l := NewListener(Config{})
	if err := l.Subscribe(c.handlers()); err != nil {
		t.Fatalf("first Subscribe returned error: %v", err)
	}
	if err := l.Subscribe(c.handlers()); err == nil {
		t.Error("second Subscribe should fail")
	}

	// Unsubscribe makes subscription possible again.
	l.Unsubscribe()
	if err := l.Subscribe(c.handlers()); err != nil {
		t.Errorf("Subscribe after Unsubscribe returned error: %v", err)
	}
}

func TestHealthEndpoint(t *testing.T) {
	l := NewListener(Config{})
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	l.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
	if got := w.Body.String(); got != `{"status":"ok"}` {
		t.Errorf("body = %s", got)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	l := NewListener(Config{})
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	l.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}
