package webhook_handlers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"brandwisp-store-sync/internal/domain"
)

// Uninstaller disconnects a shop after the app was removed
type Uninstaller interface {
	Uninstall(ctx context.Context, shop string) error
}

// AppUninstalledHandler handles app uninstalled webhook events
type AppUninstalledHandler struct {
	uninstaller Uninstaller
	logger      zerolog.Logger
}

// NewAppUninstalledHandler creates a new app uninstalled webhook handler
func NewAppUninstalledHandler(uninstaller Uninstaller, logger zerolog.Logger) *AppUninstalledHandler {
	return &AppUninstalledHandler{
		uninstaller: uninstaller,
		logger:      logger,
	}
}

// CanHandle returns true if this handler can process the given topic
func (h *AppUninstalledHandler) CanHandle(topic string) bool {
	return topic == domain.TopicAppUninstalled
}

// Handle processes an app uninstalled webhook event
func (h *AppUninstalledHandler) Handle(ctx context.Context, event *domain.WebhookEvent) error {
	var shopData struct {
		Domain          string `json:"domain"`
		MyshopifyDomain string `json:"myshopify_domain"`
	}
	if err := json.Unmarshal(event.Payload, &shopData); err != nil {
		return fmt.Errorf("failed to parse app uninstalled webhook payload: %w", err)
	}

	// the header is authoritative; the payload only fills in for a missing header
	shopDomain := event.Shop
	if shopDomain == "" {
		shopDomain = shopData.MyshopifyDomain
	}
	if shopDomain == "" {
		shopDomain = shopData.Domain
	}
	if shopDomain == "" {
		return fmt.Errorf("app uninstalled webhook without shop domain")
	}

	h.logger.Info().
		Str("topic", event.Topic).
		Str("shop", shopDomain).
		Msg("Processing app uninstalled webhook event")

	return h.uninstaller.Uninstall(ctx, shopDomain)
}
