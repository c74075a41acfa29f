// internal/notify/notify_test.go
package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/user/relayagent/internal/types"
)

func TestNotifyPostsJSON(t *testing.T) {
	var got types.Notification
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("unexpected content type %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
	}))
	defer srv.Close()

	w := NewWebhook(srv.URL)
	w.Notify(context.Background(), types.Notification{
		Sender:      "system:tool",
		Type:        "string",
		Message:     "Executing lookup",
		PhoneNumber: "+15550001111",
	})

	if got.Sender != "system:tool" || got.PhoneNumber != "+15550001111" {
		t.Errorf("unexpected payload %+v", got)
	}
}

func TestNotifyEmptyURLIsNoop(t *testing.T) {
	w := NewWebhook("")
	// Must not panic or block.
	w.Notify(context.Background(), types.Notification{Sender: "begin"})
}

func TestNotifyFailureIsSwallowed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	w := NewWebhook(srv.URL)
	// A rejecting sink must not propagate anywhere.
	w.Notify(context.Background(), types.Notification{Sender: "system:tool"})
}

func TestNotifySurvivesCancelledContext(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Delivery detaches from the caller's cancellation so a cancelled turn
	// still reports its final events.
	w := NewWebhook(srv.URL)
	w.Notify(ctx, types.Notification{Sender: "system:tool"})

	if hits.Load() != 1 {
		t.Errorf("expected delivery despite cancelled context, got %d hits", hits.Load())
	}
}
