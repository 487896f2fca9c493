package entity

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"brandwisp-store-sync/internal/domain"
)

// MongoWebhookDoc represents a received webhook in MongoDB
type MongoWebhookDoc struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	Topic      string             `bson:"topic"`
	Shop       string             `bson:"shop"`
	WebhookID  string             `bson:"webhookId,omitempty"`
	Payload    string             `bson:"payload"`
	Verified   bool               `bson:"verified"`
	ReceivedAt time.Time          `bson:"receivedAt"`
	CreatedAt  time.Time          `bson:"createdAt"`
}

// MongoWebhookDocFromDomain converts a domain webhook event to a MongoDB document
func MongoWebhookDocFromDomain(event *domain.WebhookEvent) *MongoWebhookDoc {
	doc := &MongoWebhookDoc{
		Topic:      event.Topic,
		Shop:       event.Shop,
		WebhookID:  event.WebhookID,
		Payload:    string(event.Payload),
		Verified:   event.Verified,
		ReceivedAt: event.ReceivedAt,
	}
	if event.ID != "" {
		if objID, err := primitive.ObjectIDFromHex(event.ID); err == nil {
			doc.ID = objID
		}
	}
	return doc
}
