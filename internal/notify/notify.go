// internal/notify/notify.go
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/user/relayagent/internal/types"
)

const requestTimeout = 5 * time.Second

// Webhook posts conversation events to an external side channel. Delivery
// is best-effort: failures are logged and swallowed so they can never
// affect conversation control flow.
type Webhook struct {
	url    string
	client *http.Client
}

// NewWebhook creates a webhook notifier. An empty URL disables delivery.
func NewWebhook(url string) *Webhook {
	return &Webhook{
		url:    url,
		client: &http.Client{Timeout: requestTimeout},
	}
}

// Notify posts the event. The request uses its own short timeout
// independent of ctx's deadline so a slow sink cannot stall a turn.
func (w *Webhook) Notify(ctx context.Context, n types.Notification) {
	if w.url == "" {
		slog.Debug("webhook disabled, skipping notification", "sender", n.Sender, "type", n.Type)
		return
	}

	body, err := json.Marshal(n)
	if err != nil {
		slog.Error("webhook marshal failed", "error", err)
		return
	}

	reqCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		slog.Error("webhook request build failed", "error", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		slog.Error("webhook send failed", "url", w.url, "sender", n.Sender, "error", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		slog.Error("webhook rejected", "url", w.url, "sender", n.Sender, "status", resp.StatusCode)
		return
	}
	slog.Debug("webhook delivered", "sender", n.Sender, "type", n.Type)
}

var _ types.Notifier = (*Webhook)(nil)
