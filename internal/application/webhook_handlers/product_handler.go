package webhook_handlers

import (
	"context"
	"encoding/json"
	"fmt"

	goshopify "github.com/bold-commerce/go-shopify/v4"
	"github.com/rs/zerolog"

	"brandwisp-store-sync/internal/domain"
)

// ProductApplier persists a product received by webhook
type ProductApplier interface {
	ApplyProduct(ctx context.Context, shop string, product *goshopify.Product) error
}

// ProductHandler handles product-related webhook events
type ProductHandler struct {
	applier ProductApplier
	logger  zerolog.Logger
}

// NewProductHandler creates a new product webhook handler
func NewProductHandler(applier ProductApplier, logger zerolog.Logger) *ProductHandler {
	return &ProductHandler{
		applier: applier,
		logger:  logger,
	}
}

// CanHandle returns true if this handler can process the given topic
func (h *ProductHandler) CanHandle(topic string) bool {
	return topic == domain.TopicProductsCreate ||
		topic == domain.TopicProductsUpdate
}

// Handle processes a product webhook event
func (h *ProductHandler) Handle(ctx context.Context, event *domain.WebhookEvent) error {
	var product goshopify.Product
	if err := json.Unmarshal(event.Payload, &product); err != nil {
		return fmt.Errorf("failed to parse product webhook payload: %w", err)
	}

	h.logger.Debug().
		Str("topic", event.Topic).
		Str("shop", event.Shop).
		Uint64("productId", product.Id).
		Str("title", product.Title).
		Msg("Processing product webhook event")

	return h.applier.ApplyProduct(ctx, event.Shop, &product)
}
