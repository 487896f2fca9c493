package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"brandwisp-store-sync/internal/domain"
	"brandwisp-store-sync/internal/infrastructure/repository/entity"
	"brandwisp-store-sync/internal/ports"
)

const StoreConnectionsCollection = "store_connections"

// TokenCipher seals access tokens before they reach the database
type TokenCipher interface {
	EncryptToken(token string) (string, error)
	DecryptToken(encryptedToken string) (string, error)
}

// MongoStoreRegistry implements StoreRegistry using MongoDB
type MongoStoreRegistry struct {
	collection *mongo.Collection
	tokens     TokenCipher
	logger     zerolog.Logger
}

var _ ports.StoreRegistry = (*MongoStoreRegistry)(nil)

// NewMongoStoreRegistry creates a new MongoDB store registry
func NewMongoStoreRegistry(db *mongo.Database, tokens TokenCipher, logger zerolog.Logger) *MongoStoreRegistry {
	return &MongoStoreRegistry{
		collection: db.Collection(StoreConnectionsCollection),
		tokens:     tokens,
		logger:     logger.With().Str("component", "store_registry").Logger(),
	}
}

// EnsureIndexes creates the lookup indexes. Uniqueness of a connected
// (user, provider, domain) is enforced by the connection service, not here.
func (r *MongoStoreRegistry) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "provider", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "storeDomain", Value: 1}, {Key: "updatedAt", Value: -1}}},
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "provider", Value: 1}, {Key: "storeDomain", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create store connection indexes: %w", err)
	}
	return nil
}

func (r *MongoStoreRegistry) toDomain(doc *entity.MongoStoreConnectionDoc) (*domain.StoreConnection, error) {
	token := ""
	if doc.AccessToken != "" {
		var err error
		token, err = r.tokens.DecryptToken(doc.AccessToken)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt access token of %s: %w", doc.ID, err)
		}
	}
	return doc.ToDomain(token), nil
}

func (r *MongoStoreRegistry) toDoc(conn *domain.StoreConnection) (*entity.MongoStoreConnectionDoc, error) {
	sealed := ""
	if conn.AccessToken != "" {
		var err error
		sealed, err = r.tokens.EncryptToken(conn.AccessToken)
		if err != nil {
			return nil, fmt.Errorf("failed to encrypt access token: %w", err)
		}
	}
	return entity.MongoStoreConnectionDocFromDomain(conn, sealed), nil
}

func (r *MongoStoreRegistry) findOne(ctx context.Context, filter bson.M, opts ...*options.FindOneOptions) (*domain.StoreConnection, error) {
	var doc entity.MongoStoreConnectionDoc
	err := r.collection.FindOne(ctx, filter, opts...).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get store connection: %w", err)
	}
	return r.toDomain(&doc)
}

// GetByID retrieves a store connection by id
func (r *MongoStoreRegistry) GetByID(ctx context.Context, id string) (*domain.StoreConnection, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

// GetByDomain retrieves the connection of a shop domain, preferring the most
// recently updated connected record over disconnected ones.
func (r *MongoStoreRegistry) GetByDomain(ctx context.Context, storeDomain string) (*domain.StoreConnection, error) {
	newest := options.FindOne().SetSort(bson.D{{Key: "updatedAt", Value: -1}})

	conn, err := r.findOne(ctx, bson.M{"storeDomain": storeDomain, "status": string(domain.StatusConnected)}, newest)
	if err != nil || conn != nil {
		return conn, err
	}
	return r.findOne(ctx, bson.M{"storeDomain": storeDomain}, newest)
}

// FindConnected retrieves the connected record of a user for a provider and domain
func (r *MongoStoreRegistry) FindConnected(ctx context.Context, userID string, provider domain.Provider, storeDomain string) (*domain.StoreConnection, error) {
	return r.findOne(ctx, bson.M{
		"userId":      userID,
		"provider":    string(provider),
		"storeDomain": storeDomain,
		"status":      string(domain.StatusConnected),
	})
}

// FindByOwner retrieves a user's newest record of a provider and domain, whatever its status
func (r *MongoStoreRegistry) FindByOwner(ctx context.Context, userID string, provider domain.Provider, storeDomain string) (*domain.StoreConnection, error) {
	return r.findOne(ctx, bson.M{
		"userId":      userID,
		"provider":    string(provider),
		"storeDomain": storeDomain,
	}, options.FindOne().SetSort(bson.D{{Key: "updatedAt", Value: -1}}))
}

// ListConnected retrieves every connected store of a provider
func (r *MongoStoreRegistry) ListConnected(ctx context.Context, provider domain.Provider) ([]*domain.StoreConnection, error) {
	filter := bson.M{
		"provider": string(provider),
		"status":   string(domain.StatusConnected),
	}
	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list store connections: %w", err)
	}
	defer cursor.Close(ctx)

	var conns []*domain.StoreConnection
	for cursor.Next(ctx) {
		var doc entity.MongoStoreConnectionDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode store connection: %w", err)
		}
		conn, err := r.toDomain(&doc)
		if err != nil {
			// an unreadable token only takes this store out of the run
			r.logger.Error().Err(err).Str("storeId", doc.ID).Msg("Skipping store connection")
			continue
		}
		conns = append(conns, conn)
	}

	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}

	return conns, nil
}

// Create inserts a new store connection, assigning an id when it has none
func (r *MongoStoreRegistry) Create(ctx context.Context, conn *domain.StoreConnection) error {
	if conn.ID == "" {
		conn.ID = uuid.NewString()
	}
	now := time.Now()
	if conn.CreatedAt.IsZero() {
		conn.CreatedAt = now
	}
	conn.UpdatedAt = now

	doc, err := r.toDoc(conn)
	if err != nil {
		return err
	}
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to create store connection: %w", err)
	}
	return nil
}

// Update replaces the mutable fields of an existing connection
func (r *MongoStoreRegistry) Update(ctx context.Context, conn *domain.StoreConnection) error {
	conn.UpdatedAt = time.Now()
	doc, err := r.toDoc(conn)
	if err != nil {
		return err
	}

	update := bson.M{"$set": bson.M{
		"userId":      doc.UserID,
		"provider":    doc.Provider,
		"status":      doc.Status,
		"storeName":   doc.StoreName,
		"storeDomain": doc.StoreDomain,
		"accessToken": doc.AccessToken,
		"scope":       doc.Scope,
		"metadata":    doc.Metadata,
		"webhooks":    doc.Webhooks,
		"updatedAt":   doc.UpdatedAt,
	}}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": conn.ID}, update)
	if err != nil {
		return fmt.Errorf("failed to update store connection: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("failed to update store connection: %s not found", conn.ID)
	}
	return nil
}

// UpdateLastSync records a successful sync
func (r *MongoStoreRegistry) UpdateLastSync(ctx context.Context, id string, at time.Time) error {
	update := bson.M{"$set": bson.M{"lastSyncAt": at, "updatedAt": time.Now()}}
	if _, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update); err != nil {
		return fmt.Errorf("failed to update last sync: %w", err)
	}
	return nil
}

// SetStatus changes the connection status. Leaving the connected state also
// marks every webhook subscription inactive.
func (r *MongoStoreRegistry) SetStatus(ctx context.Context, id string, status domain.ConnectionStatus) error {
	set := bson.M{"status": string(status), "updatedAt": time.Now()}
	if status != domain.StatusConnected {
		set["webhooks.$[].status"] = domain.WebhookStatusInactive
	}
	if _, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set}); err != nil {
		return fmt.Errorf("failed to set store connection status: %w", err)
	}
	return nil
}

// AddWebhook appends a registered webhook subscription
func (r *MongoStoreRegistry) AddWebhook(ctx context.Context, id string, sub domain.WebhookSubscription) error {
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now()
	}
	update := bson.M{
		"$push": bson.M{"webhooks": sub},
		"$set":  bson.M{"updatedAt": time.Now()},
	}
	if _, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update); err != nil {
		return fmt.Errorf("failed to add webhook: %w", err)
	}
	return nil
}
