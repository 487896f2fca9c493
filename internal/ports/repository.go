package ports

import (
	"context"
	"time"

	"brandwisp-store-sync/internal/domain"
)

// StoreRegistry defines the interface for StoreConnection persistence.
// Lookups return (nil, nil) when no record matches.
type StoreRegistry interface {
	GetByID(ctx context.Context, id string) (*domain.StoreConnection, error)
	GetByDomain(ctx context.Context, storeDomain string) (*domain.StoreConnection, error)
	ListConnected(ctx context.Context, provider domain.Provider) ([]*domain.StoreConnection, error)
	FindConnected(ctx context.Context, userID string, provider domain.Provider, storeDomain string) (*domain.StoreConnection, error)
	// FindByOwner matches any status and returns the most recently updated record
	FindByOwner(ctx context.Context, userID string, provider domain.Provider, storeDomain string) (*domain.StoreConnection, error)

	Create(ctx context.Context, conn *domain.StoreConnection) error
	Update(ctx context.Context, conn *domain.StoreConnection) error
	UpdateLastSync(ctx context.Context, id string, at time.Time) error
	SetStatus(ctx context.Context, id string, status domain.ConnectionStatus) error
	AddWebhook(ctx context.Context, id string, sub domain.WebhookSubscription) error
}

// ProductStore defines the interface for canonical product persistence
type ProductStore interface {
	// SaveProduct upserts a product keyed by store id and product id
	SaveProduct(ctx context.Context, product *domain.Product) error
}

// WebhookLogRepository stores verified inbound webhook calls
type WebhookLogRepository interface {
	LogWebhook(ctx context.Context, event *domain.WebhookEvent) error
}

// SessionRepository stores pending OAuth installs
type SessionRepository interface {
	CreateSession(ctx context.Context, session *domain.Session) error
	// ConsumeSession returns and deletes the session; (nil, nil) when absent or expired
	ConsumeSession(ctx context.Context, state string) (*domain.Session, error)
}
