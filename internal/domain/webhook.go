package domain

import "time"

// Webhook topics handled by this service
const (
	TopicProductsCreate = "products/create"
	TopicProductsUpdate = "products/update"
	TopicOrdersCreate   = "orders/create"
	TopicOrdersUpdated  = "orders/updated"
	TopicAppUninstalled = "app/uninstalled"
)

// DefaultWebhookTopics are registered on every new connection
var DefaultWebhookTopics = []string{
	TopicProductsCreate,
	TopicProductsUpdate,
	TopicOrdersCreate,
	TopicOrdersUpdated,
	TopicAppUninstalled,
}

// WebhookEvent is a verified inbound webhook call
type WebhookEvent struct {
	ID         string    `json:"id"`
	Topic      string    `json:"topic"`
	Shop       string    `json:"shop"`
	WebhookID  string    `json:"webhook_id,omitempty"`
	Payload    []byte    `json:"payload"`
	Verified   bool      `json:"verified"`
	ReceivedAt time.Time `json:"received_at"`
}
