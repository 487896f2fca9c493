package application

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"brandwisp-store-sync/internal/domain"
)

// WebhookHandler processes the webhook topics it claims
type WebhookHandler interface {
	CanHandle(topic string) bool
	Handle(ctx context.Context, event *domain.WebhookEvent) error
}

// WebhookDispatcher routes a verified webhook to the first handler claiming its topic
type WebhookDispatcher struct {
	handlers []WebhookHandler
	logger   zerolog.Logger
}

func NewWebhookDispatcher(logger zerolog.Logger) *WebhookDispatcher {
	return &WebhookDispatcher{logger: logger}
}

// RegisterHandler adds a handler
func (d *WebhookDispatcher) RegisterHandler(h WebhookHandler) {
	d.handlers = append(d.handlers, h)
}

func (d *WebhookDispatcher) handlerFor(topic string) WebhookHandler {
	for _, h := range d.handlers {
		if h.CanHandle(topic) {
			return h
		}
	}
	return nil
}

// CanHandle reports whether any handler claims topic
func (d *WebhookDispatcher) CanHandle(topic string) bool {
	return d.handlerFor(topic) != nil
}

// Dispatch runs the handler of event's topic. Unknown topics are a no-op.
// A panicking handler is reported as an error.
func (d *WebhookDispatcher) Dispatch(ctx context.Context, event *domain.WebhookEvent) (err error) {
	h := d.handlerFor(event.Topic)
	if h == nil {
		d.logger.Debug().Str("topic", event.Topic).Str("shop", event.Shop).Msg("No handler for webhook topic")
		return nil
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("webhook handler for %s panicked: %v", event.Topic, r)
		}
	}()
	return h.Handle(ctx, event)
}
