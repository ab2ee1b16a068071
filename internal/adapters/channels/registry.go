// Package channels implements the sinks that receive resolved context.
package channels

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/jsamuelsen/app-context/internal/adapters/clients"
	"github.com/jsamuelsen/app-context/internal/domain"
	"github.com/jsamuelsen/app-context/internal/platform/config"
	"github.com/jsamuelsen/app-context/internal/ports"
)

// Channel names accepted under app_context.channels.
const (
	NameLog     = "log"
	NameSpan    = "span"
	NameWebhook = "webhook"
)

// Deps carries what the channels need besides their own settings.
type Deps struct {
	Client config.ClientConfig
	Logger *slog.Logger
}

// Registered is the result of FromConfig.
type Registered struct {
	Channels []ports.ContextChannel

	// Checkers gate readiness on the channels' downstreams.
	Checkers []ports.HealthChecker
}

// FromConfig returns the enabled channels in name order. Disabled entries
// are skipped; unknown names are an error whether enabled or not.
func FromConfig(cfg map[string]config.ChannelConfig, deps Deps) (*Registered, error) {
	names := make([]string, 0, len(cfg))
	for name := range cfg {
		names = append(names, name)
	}
	sort.Strings(names)

	out := &Registered{}

	for _, name := range names {
		ch := cfg[name]

		switch name {
		case NameLog, NameSpan, NameWebhook:
		default:
			return nil, domain.NewUnknownChannelError(name)
		}

		if !ch.Enabled {
			continue
		}

		switch name {
		case NameLog:
			out.Channels = append(out.Channels, NewLog())
		case NameSpan:
			out.Channels = append(out.Channels, NewSpan())
		case NameWebhook:
			hook, err := newWebhookFromConfig(ch, deps)
			if err != nil {
				return nil, err
			}
			out.Channels = append(out.Channels, hook)
			out.Checkers = append(out.Checkers, webhookChecker{hook})
		}
	}

	return out, nil
}

func newWebhookFromConfig(ch config.ChannelConfig, deps Deps) (*Webhook, error) {
	if ch.URL == "" {
		return nil, domain.NewValidationError("app_context.channels.webhook.url", "is required")
	}

	timeout := ch.Timeout
	if timeout <= 0 {
		timeout = deps.Client.Timeout
	}

	client, err := clients.New(clients.Config{
		Name:      NameWebhook,
		Timeout:   timeout,
		Retry:     deps.Client.Retry,
		Circuit:   deps.Client.CircuitBreaker,
		Transport: deps.Client.Transport,
		Logger:    deps.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating webhook client: %w", err)
	}

	return NewWebhook(ch.URL, client), nil
}

// webhookChecker names the readiness check after the collector rather
// than the channel.
type webhookChecker struct{ *Webhook }

func (webhookChecker) Name() string { return "webhook-collector" }
