package ports

import (
	"context"
	"time"

	"brandwisp-store-sync/internal/domain"
)

// EncryptionService encrypts secrets stored at rest
type EncryptionService interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// SyncLocker grants a per-store lease so two syncs of one store never overlap.
// Acquire fails with domain.ErrSyncInProgress when the lease is held.
type SyncLocker interface {
	Acquire(ctx context.Context, storeID string, ttl time.Duration) (release func(context.Context) error, err error)
}

// ConnectionPublisher announces StoreConnection status transitions
type ConnectionPublisher interface {
	Publish(event *domain.ConnectionEvent)
}

// Metrics records sync and webhook outcomes
type Metrics interface {
	ObserveStoreSync(provider domain.Provider, trigger domain.SyncTrigger, status domain.SyncStatus, d time.Duration)
	ObserveRun(provider domain.Provider, summary *domain.RunSummary)
	AddEvents(eventType domain.EventType, n int)
	ObserveWebhook(topic string, code int)
}
