package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"brandwisp-store-sync/internal/domain"
	"brandwisp-store-sync/internal/infrastructure/repository/entity"
	"brandwisp-store-sync/internal/ports"
)

const (
	ProductsCollection      = "products"
	WebhookEventsCollection = "webhook_events"
)

// MongoRepository implements ProductStore and WebhookLogRepository using MongoDB
type MongoRepository struct {
	productsCollection *mongo.Collection
	webhooksCollection *mongo.Collection
	now                func() time.Time
}

var (
	_ ports.ProductStore         = (*MongoRepository)(nil)
	_ ports.WebhookLogRepository = (*MongoRepository)(nil)
)

// NewMongoRepository creates a new MongoDB repository
func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{
		productsCollection: db.Collection(ProductsCollection),
		webhooksCollection: db.Collection(WebhookEventsCollection),
		now:                time.Now,
	}
}

// EnsureIndexes creates the product lookup index
func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.productsCollection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "storeId", Value: 1}, {Key: "updatedAt", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("failed to create product indexes: %w", err)
	}
	return nil
}

// SaveProduct upserts a product keyed by (storeId, productId).
// The first write sets createdAt; every write refreshes updatedAt and syncedAt.
func (r *MongoRepository) SaveProduct(ctx context.Context, product *domain.Product) error {
	now := r.now()
	doc := entity.MongoProductDocFromDomain(product, now)

	opts := options.Update().SetUpsert(true)
	filter := bson.M{"_id": entity.ProductDocID(product.StoreID, product.ID)}
	update := bson.M{
		"$set":         doc,
		"$setOnInsert": bson.M{"createdAt": now},
	}

	if _, err := r.productsCollection.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("failed to save product: %w", err)
	}
	product.SyncedAt = now
	return nil
}

// LogWebhook logs a webhook event
func (r *MongoRepository) LogWebhook(ctx context.Context, event *domain.WebhookEvent) error {
	doc := entity.MongoWebhookDocFromDomain(event)
	if doc.ID.IsZero() {
		doc.ID = primitive.NewObjectID()
	}
	doc.CreatedAt = r.now()

	if _, err := r.webhooksCollection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to log webhook: %w", err)
	}
	event.ID = doc.ID.Hex()
	return nil
}
