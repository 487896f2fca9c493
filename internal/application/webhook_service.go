package application

import (
	"context"
	"fmt"
	"time"

	goshopify "github.com/bold-commerce/go-shopify/v4"
	"github.com/rs/zerolog"

	"brandwisp-store-sync/internal/domain"
	"brandwisp-store-sync/internal/ports"
	"brandwisp-store-sync/internal/transform"
)

// WebhookService applies verified webhook payloads through the same transform
// and persistence path as the scheduled sync.
type WebhookService struct {
	registry  ports.StoreRegistry
	products  ports.ProductStore
	sink      ports.AnalyticsSink
	publisher ports.ConnectionPublisher
	metrics   ports.Metrics
	now       func() time.Time
	logger    zerolog.Logger
}

// NewWebhookService creates a new webhook service
func NewWebhookService(
	registry ports.StoreRegistry,
	products ports.ProductStore,
	sink ports.AnalyticsSink,
	publisher ports.ConnectionPublisher,
	metrics ports.Metrics,
	logger zerolog.Logger,
) *WebhookService {
	return &WebhookService{
		registry:  registry,
		products:  products,
		sink:      sink,
		publisher: publisher,
		metrics:   metricsOrNop(metrics),
		now:       time.Now,
		logger:    logger.With().Str("component", "webhooks").Logger(),
	}
}

func (s *WebhookService) resolve(ctx context.Context, shop string) (*domain.StoreConnection, error) {
	conn, err := s.registry.GetByDomain(ctx, shop)
	if err != nil {
		return nil, fmt.Errorf("failed to get store connection: %w", err)
	}
	if conn == nil {
		return nil, &domain.StoreNotConnectedError{StoreID: shop, Reason: "unknown shop domain"}
	}
	return conn, nil
}

// ApplyProduct upserts the product and emits one update event
func (s *WebhookService) ApplyProduct(ctx context.Context, shop string, native *goshopify.Product) error {
	conn, err := s.resolve(ctx, shop)
	if err != nil {
		return err
	}

	product, err := transform.Product(native, conn.ID)
	if err != nil {
		return fmt.Errorf("failed to transform product: %w", err)
	}
	if missing := transform.UnpricedVariants(native); missing > 0 {
		s.logger.Warn().
			Str("storeId", conn.ID).
			Str("productId", product.ID).
			Int("variants", missing).
			Msg("Variants without a price were saved with price 0")
	}
	if err := s.products.SaveProduct(ctx, product); err != nil {
		return domain.NewPersistenceError("save product "+product.ID, err)
	}

	event := transform.UpdateEvent(product, s.now())
	if err := s.sink.InsertProductEvents(ctx, []domain.AnalyticsEvent{event}); err != nil {
		return domain.NewPersistenceError("insert update event", err)
	}
	s.metrics.AddEvents(domain.EventTypeUpdate, 1)

	s.logger.Info().
		Str("storeId", conn.ID).
		Str("shop", shop).
		Str("productId", product.ID).
		Msg("Product webhook applied")
	return nil
}

// ApplyOrder emits one purchase event per line item
func (s *WebhookService) ApplyOrder(ctx context.Context, shop string, native *goshopify.Order) error {
	conn, err := s.resolve(ctx, shop)
	if err != nil {
		return err
	}

	order, err := transform.Order(native, conn.ID)
	if err != nil {
		return fmt.Errorf("failed to transform order: %w", err)
	}

	events := transform.PurchaseEvents(order, transform.WebhookSource(order))
	if err := s.sink.InsertProductEvents(ctx, events); err != nil {
		return domain.NewPersistenceError("insert purchase events", err)
	}
	s.metrics.AddEvents(domain.EventTypePurchase, len(events))

	s.logger.Info().
		Str("storeId", conn.ID).
		Str("shop", shop).
		Str("orderId", order.ID).
		Int("purchaseEvents", len(events)).
		Msg("Order webhook applied")
	return nil
}

// Uninstall marks the shop's connection disconnected and its webhooks inactive
func (s *WebhookService) Uninstall(ctx context.Context, shop string) error {
	conn, err := s.resolve(ctx, shop)
	if err != nil {
		return err
	}
	if err := s.registry.SetStatus(ctx, conn.ID, domain.StatusDisconnected); err != nil {
		return domain.NewPersistenceError("disconnect store", err)
	}

	if s.publisher != nil {
		s.publisher.Publish(&domain.ConnectionEvent{
			StoreID:    conn.ID,
			Provider:   conn.Provider,
			Status:     domain.StatusDisconnected,
			OccurredAt: s.now(),
		})
	}

	s.logger.Info().
		Str("storeId", conn.ID).
		Str("shop", shop).
		Msg("App uninstalled, store disconnected")
	return nil
}
