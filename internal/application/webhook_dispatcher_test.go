package application

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"brandwisp-store-sync/internal/domain"
)

type topicHandler struct {
	topic   string
	handled int
	panics  bool
}

func (h *topicHandler) CanHandle(topic string) bool { return topic == h.topic }

func (h *topicHandler) Handle(context.Context, *domain.WebhookEvent) error {
	if h.panics {
		panic("nil map")
	}
	h.handled++
	return nil
}

func TestDispatcher_RoutesByTopic(t *testing.T) {
	products := &topicHandler{topic: domain.TopicProductsUpdate}
	d := NewWebhookDispatcher(zerolog.Nop())
	d.RegisterHandler(products)

	assert.True(t, d.CanHandle(domain.TopicProductsUpdate))
	assert.False(t, d.CanHandle("carts/update"))

	assert.NoError(t, d.Dispatch(context.Background(), &domain.WebhookEvent{Topic: domain.TopicProductsUpdate}))
	assert.NoError(t, d.Dispatch(context.Background(), &domain.WebhookEvent{Topic: "carts/update"}))
	assert.Equal(t, 1, products.handled)
}

func TestDispatcher_RecoversPanic(t *testing.T) {
	d := NewWebhookDispatcher(zerolog.Nop())
	d.RegisterHandler(&topicHandler{topic: domain.TopicOrdersCreate, panics: true})

	err := d.Dispatch(context.Background(), &domain.WebhookEvent{Topic: domain.TopicOrdersCreate})
	assert.ErrorContains(t, err, "panicked")
}
