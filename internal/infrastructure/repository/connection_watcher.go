package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"brandwisp-store-sync/internal/domain"
	"brandwisp-store-sync/internal/ports"
)

// ConnectionWatcher tails the store_connections change stream and publishes a
// connection event whenever a record becomes connected. It covers connections
// written by other services; the OAuth callback of this service publishes directly.
type ConnectionWatcher struct {
	collection *mongo.Collection
	publisher  ports.ConnectionPublisher
	logger     zerolog.Logger
}

func NewConnectionWatcher(db *mongo.Database, publisher ports.ConnectionPublisher, logger zerolog.Logger) *ConnectionWatcher {
	return &ConnectionWatcher{
		collection: db.Collection(StoreConnectionsCollection),
		publisher:  publisher,
		logger:     logger.With().Str("component", "connection_watcher").Logger(),
	}
}

// connectedPipeline matches inserts and replacements of connected records and
// updates that set status to connected.
func connectedPipeline() mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"fullDocument.status": string(domain.StatusConnected),
			"$or": bson.A{
				bson.M{"operationType": bson.M{"$in": bson.A{"insert", "replace"}}},
				bson.M{
					"operationType": "update",
					"updateDescription.updatedFields.status": string(domain.StatusConnected),
				},
			},
		}}},
	}
}

type changeEvent struct {
	FullDocument struct {
		ID       string `bson:"_id"`
		Provider string `bson:"provider"`
		Status   string `bson:"status"`
	} `bson:"fullDocument"`
}

// Run blocks until ctx is cancelled or the stream fails
func (w *ConnectionWatcher) Run(ctx context.Context) error {
	opts := options.ChangeStream().SetFullDocument(options.UpdateLookup)
	stream, err := w.collection.Watch(ctx, connectedPipeline(), opts)
	if err != nil {
		return fmt.Errorf("failed to watch store connections: %w", err)
	}
	defer stream.Close(context.Background())

	w.logger.Info().Msg("Watching store connections")
	for stream.Next(ctx) {
		var ev changeEvent
		if err := stream.Decode(&ev); err != nil {
			w.logger.Error().Err(err).Msg("Failed to decode change event")
			continue
		}
		w.publisher.Publish(&domain.ConnectionEvent{
			StoreID:    ev.FullDocument.ID,
			Provider:   domain.Provider(ev.FullDocument.Provider),
			Status:     domain.ConnectionStatus(ev.FullDocument.Status),
			OccurredAt: time.Now(),
		})
	}

	if err := stream.Err(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("change stream failed: %w", err)
	}
	return nil
}
