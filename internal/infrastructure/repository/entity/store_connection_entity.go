package entity

import (
	"time"

	"brandwisp-store-sync/internal/domain"
)

// MongoStoreConnectionDoc represents a store connection in MongoDB.
// AccessToken holds the encrypted token, never plaintext.
type MongoStoreConnectionDoc struct {
	ID          string                       `bson:"_id"`
	UserID      string                       `bson:"userId"`
	Provider    string                       `bson:"provider"`
	Status      string                       `bson:"status"`
	StoreName   string                       `bson:"storeName"`
	StoreDomain string                       `bson:"storeDomain"`
	AccessToken string                       `bson:"accessToken"`
	Scope       string                       `bson:"scope"`
	Metadata    map[string]interface{}       `bson:"metadata,omitempty"`
	LastSyncAt  *time.Time                   `bson:"lastSyncAt,omitempty"`
	Webhooks    []domain.WebhookSubscription `bson:"webhooks"`
	CreatedAt   time.Time                    `bson:"createdAt"`
	UpdatedAt   time.Time                    `bson:"updatedAt"`
}

// ToDomain converts the MongoDB document to a domain entity with the given plaintext token
func (d *MongoStoreConnectionDoc) ToDomain(accessToken string) *domain.StoreConnection {
	return &domain.StoreConnection{
		ID:          d.ID,
		UserID:      d.UserID,
		Provider:    domain.Provider(d.Provider),
		Status:      domain.ConnectionStatus(d.Status),
		StoreName:   d.StoreName,
		StoreDomain: d.StoreDomain,
		AccessToken: accessToken,
		Scope:       d.Scope,
		Metadata:    d.Metadata,
		LastSyncAt:  d.LastSyncAt,
		Webhooks:    d.Webhooks,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

// MongoStoreConnectionDocFromDomain converts a domain entity to a MongoDB document
func MongoStoreConnectionDocFromDomain(conn *domain.StoreConnection, encryptedToken string) *MongoStoreConnectionDoc {
	webhooks := conn.Webhooks
	if webhooks == nil {
		webhooks = []domain.WebhookSubscription{}
	}
	return &MongoStoreConnectionDoc{
		ID:          conn.ID,
		UserID:      conn.UserID,
		Provider:    string(conn.Provider),
		Status:      string(conn.Status),
		StoreName:   conn.StoreName,
		StoreDomain: conn.StoreDomain,
		AccessToken: encryptedToken,
		Scope:       conn.Scope,
		Metadata:    conn.Metadata,
		LastSyncAt:  conn.LastSyncAt,
		Webhooks:    webhooks,
		CreatedAt:   conn.CreatedAt,
		UpdatedAt:   conn.UpdatedAt,
	}
}
