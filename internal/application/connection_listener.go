package application

import (
	"context"

	"github.com/rs/zerolog"

	"brandwisp-store-sync/internal/domain"
)

// ConnectionSyncer runs the first sync of a store that just connected
type ConnectionSyncer interface {
	SyncConnectedStore(ctx context.Context, storeID string)
}

// ListenForConnections syncs every store announced as connected on events.
// It returns when ctx is cancelled or events is closed.
func ListenForConnections(ctx context.Context, events <-chan *domain.ConnectionEvent, syncer ConnectionSyncer, logger zerolog.Logger) {
	logger = logger.With().Str("component", "connection-listener").Logger()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if event.Status != domain.StatusConnected {
				continue
			}
			logger.Info().Str("storeId", event.StoreID).Str("provider", string(event.Provider)).Msg("Store connected, starting initial sync")
			syncer.SyncConnectedStore(ctx, event.StoreID)
		}
	}
}
