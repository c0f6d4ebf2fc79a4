package alert

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/futusense/futusense/internal/core"
)

func sampleEvent() Event {
	return Event{
		Kind:       KindBandChange,
		Symbol:     core.SymbolRef{ID: "cu", Name: "沪铜"},
		Date:       "2026-08-27",
		From:       "neutral",
		To:         "bull",
		Index:      0.23,
		Confidence: 0.7,
		At:         time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC),
	}
}

func TestWebhookSend(t *testing.T) {
	var got Event
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		json.NewDecoder(r.Body).Decode(&got)
	}))
	defer srv.Close()

	wh := NewWebhook(srv.URL, map[string]string{"Authorization": "Bearer token"})
	if err := wh.Send(sampleEvent()); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if auth != "Bearer token" {
		t.Errorf("Authorization = %q", auth)
	}
	if got.Kind != KindBandChange || got.Symbol.ID != "cu" || got.To != "bull" {
		t.Errorf("event = %+v", got)
	}
}

func TestWebhookSendServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	if err := NewWebhook(srv.URL, nil).Send(sampleEvent()); err == nil {
		t.Fatal("expected error on 500")
	}
}

func TestFormatEvent(t *testing.T) {
	msg := formatEvent(sampleEvent())
	for _, want := range []string{"沪铜", "2026-08-27", "Sentiment band", "neutral → bull", "0.23"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message %q missing %q", msg, want)
		}
	}

	ev := sampleEvent()
	ev.Kind = KindDirectionChange
	ev.From, ev.To = "long", "short"
	msg = formatEvent(ev)
	if !strings.Contains(msg, "Plan direction") || !strings.Contains(msg, "long → short") {
		t.Errorf("message = %q", msg)
	}
}
