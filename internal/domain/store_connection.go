package domain

import "time"

// Provider identifies the commerce platform behind a StoreConnection
type Provider string

const (
	ProviderShopify     Provider = "shopify"
	ProviderWooCommerce Provider = "woocommerce"
	ProviderBigCommerce Provider = "bigcommerce"
)

// ConnectionStatus is the lifecycle state of a StoreConnection
type ConnectionStatus string

const (
	StatusConnected    ConnectionStatus = "connected"
	StatusDisconnected ConnectionStatus = "disconnected"
	StatusPending      ConnectionStatus = "pending"
)

// WebhookSubscription is a webhook registered on the platform for a store
type WebhookSubscription struct {
	PlatformID string    `json:"platform_id,omitempty" bson:"platform_id,omitempty"`
	Topic      string    `json:"topic" bson:"topic"`
	Address    string    `json:"address" bson:"address"`
	Format     string    `json:"format" bson:"format"`
	Status     string    `json:"status" bson:"status"` // active, inactive
	CreatedAt  time.Time `json:"created_at" bson:"created_at"`
}

const (
	WebhookStatusActive   = "active"
	WebhookStatusInactive = "inactive"
)

// StoreConnection is a tenant's credentialed link to one platform account.
// AccessToken is always plaintext in the domain; repositories encrypt it at rest.
type StoreConnection struct {
	ID          string                `json:"id"`
	UserID      string                `json:"user_id"`
	Provider    Provider              `json:"provider"`
	Status      ConnectionStatus      `json:"status"`
	StoreName   string                `json:"store_name"`
	StoreDomain string                `json:"store_domain"`
	AccessToken string                `json:"-"`
	Scope       string                `json:"scope"`
	Metadata    map[string]any        `json:"metadata,omitempty"`
	LastSyncAt  *time.Time            `json:"last_sync_at,omitempty"`
	Webhooks    []WebhookSubscription `json:"webhooks,omitempty"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
}

// IsConnected reports whether the connection can be synced
func (c *StoreConnection) IsConnected() bool {
	return c != nil && c.Status == StatusConnected && c.AccessToken != ""
}
