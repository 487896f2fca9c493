package ports

import (
	"context"

	"brandwisp-store-sync/internal/domain"
)

// AnalyticsSink is the append-only analytics store.
// Inserting an event id that already exists is a no-op, not an error.
type AnalyticsSink interface {
	InsertProductEvents(ctx context.Context, events []domain.AnalyticsEvent) error
	InsertSyncLog(ctx context.Context, log *domain.SyncLog) error
	Close() error
}
