package notifier

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/torrkit/seedsweep/internal/core"
)

func TestWebhook_PostsSummary(t *testing.T) {
	var got Payload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %q", ct)
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &got); err != nil {
			t.Errorf("body is not valid JSON: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	w := NewWebhook(Config{URL: srv.URL})
	err := w.Notify(context.Background(), Payload{
		Event:     EventSweepCompleted,
		Timestamp: time.Now(),
		Summary: &core.RunSummary{
			RunID:        "run-1",
			Mode:         core.ModeExecute,
			SnapshotSize: 12,
			Removed:      3,
		},
	})
	if err != nil {
		t.Fatalf("Notify: %v", err)
	}

	if got.Event != EventSweepCompleted {
		t.Errorf("event = %q", got.Event)
	}
	if got.Summary == nil || got.Summary.Removed != 3 {
		t.Errorf("summary = %+v", got.Summary)
	}
	if got.Hostname == "" {
		t.Error("hostname should be filled in")
	}
}

func TestWebhook_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	w := NewWebhook(Config{URL: srv.URL})
	if err := w.Notify(context.Background(), Payload{Event: EventSweepFailed}); err == nil {
		t.Fatal("expected error for 403 response")
	}
}

func TestWebhook_UnreachableEndpoint(t *testing.T) {
	w := NewWebhook(Config{URL: "http://127.0.0.1:1", Timeout: 200 * time.Millisecond})
	if err := w.Notify(context.Background(), Payload{Event: EventSweepCompleted}); err == nil {
		t.Fatal("expected connection error")
	}
}

func TestNoop(t *testing.T) {
	if err := (Noop{}).Notify(context.Background(), Payload{}); err != nil {
		t.Fatalf("noop returned %v", err)
	}
}
