package webhook_handlers

import (
	"context"
	"encoding/json"
	"fmt"

	goshopify "github.com/bold-commerce/go-shopify/v4"
	"github.com/rs/zerolog"

	"brandwisp-store-sync/internal/domain"
)

// OrderApplier records purchase events for an order received by webhook
type OrderApplier interface {
	ApplyOrder(ctx context.Context, shop string, order *goshopify.Order) error
}

// OrderHandler handles order-related webhook events
type OrderHandler struct {
	applier OrderApplier
	logger  zerolog.Logger
}

// NewOrderHandler creates a new order webhook handler
func NewOrderHandler(applier OrderApplier, logger zerolog.Logger) *OrderHandler {
	return &OrderHandler{
		applier: applier,
		logger:  logger,
	}
}

// CanHandle returns true if this handler can process the given topic
func (h *OrderHandler) CanHandle(topic string) bool {
	return topic == domain.TopicOrdersCreate ||
		topic == domain.TopicOrdersUpdated
}

// Handle processes an order webhook event
func (h *OrderHandler) Handle(ctx context.Context, event *domain.WebhookEvent) error {
	var order goshopify.Order
	if err := json.Unmarshal(event.Payload, &order); err != nil {
		return fmt.Errorf("failed to parse order webhook payload: %w", err)
	}

	h.logger.Debug().
		Str("topic", event.Topic).
		Str("shop", event.Shop).
		Uint64("orderId", order.Id).
		Int("lineItems", len(order.LineItems)).
		Msg("Processing order webhook event")

	return h.applier.ApplyOrder(ctx, event.Shop, &order)
}
