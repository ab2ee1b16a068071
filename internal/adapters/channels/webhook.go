package channels

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/jsamuelsen/app-context/internal/adapters/clients"
	"github.com/jsamuelsen/app-context/internal/domain"
	"github.com/jsamuelsen/app-context/internal/platform/logging"
)

// Webhook events.
const (
	EventResolved = "context.resolved"
	EventReset    = "context.reset"
)

// WebhookPayload is the JSON body posted to the collector.
type WebhookPayload struct {
	Event   string         `json:"event"`
	Context domain.Mapping `json:"context"`
}

// Webhook posts every mapping to a collector. Failures are logged and
// dropped so that a collector outage never fails a build.
type Webhook struct {
	url    string
	client *clients.Client
}

// NewWebhook returns a webhook channel posting to url through client.
func NewWebhook(url string, client *clients.Client) *Webhook {
	return &Webhook{url: url, client: client}
}

// Name implements ports.ContextChannel.
func (*Webhook) Name() string { return NameWebhook }

// Send implements ports.ContextChannel.
func (w *Webhook) Send(ctx context.Context, m domain.Mapping) {
	logger := logging.FromContext(ctx).With(slog.String("channel", NameWebhook))

	payload := WebhookPayload{Event: EventResolved, Context: m}
	if len(m) == 0 {
		payload = WebhookPayload{Event: EventReset, Context: domain.NewMapping()}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		logger.WarnContext(ctx, "context not serializable", slog.Any("error", err))
		return
	}

	resp, err := w.client.PostJSON(ctx, w.url, body)
	if err != nil {
		logger.WarnContext(ctx, "context delivery failed", slog.Any("error", err))
		return
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusBadRequest {
		logger.WarnContext(ctx, "collector rejected context", slog.Int("status", resp.StatusCode))
	}
}

// Check reports the collector unavailable while the circuit is open.
func (w *Webhook) Check(context.Context) error {
	if w.client.State() == clients.StateOpen {
		return domain.NewUnavailableError("webhook collector", "circuit breaker open")
	}

	return nil
}
