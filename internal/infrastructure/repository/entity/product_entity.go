package entity

import (
	"time"

	"brandwisp-store-sync/internal/domain"
)

// ProductDocID is the document key of a product: one document per (store, product)
func ProductDocID(storeID, productID string) string {
	return storeID + ":" + productID
}

// MongoProductDoc is the $set part of a product upsert.
// createdAt is written separately with $setOnInsert.
type MongoProductDoc struct {
	StoreID         string                  `bson:"storeId"`
	ProductID       string                  `bson:"productId"`
	Title           string                  `bson:"title"`
	Description     string                  `bson:"description"`
	Vendor          string                  `bson:"vendor"`
	ProductType     string                  `bson:"productType"`
	Status          string                  `bson:"status"`
	Handle          string                  `bson:"handle,omitempty"`
	Tags            []string                `bson:"tags"`
	Images          []domain.ProductImage   `bson:"images"`
	Variants        []domain.ProductVariant `bson:"variants"`
	SourceCreatedAt time.Time               `bson:"sourceCreatedAt"`
	SourceUpdatedAt time.Time               `bson:"sourceUpdatedAt"`
	UpdatedAt       time.Time               `bson:"updatedAt"`
	SyncedAt        time.Time               `bson:"syncedAt"`
}

// MongoProductDocFromDomain converts a domain product, stamping updatedAt and syncedAt with now
func MongoProductDocFromDomain(p *domain.Product, now time.Time) *MongoProductDoc {
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	images := p.Images
	if images == nil {
		images = []domain.ProductImage{}
	}
	variants := p.Variants
	if variants == nil {
		variants = []domain.ProductVariant{}
	}
	return &MongoProductDoc{
		StoreID:         p.StoreID,
		ProductID:       p.ID,
		Title:           p.Title,
		Description:     p.Description,
		Vendor:          p.Vendor,
		ProductType:     p.ProductType,
		Status:          p.Status,
		Handle:          p.Handle,
		Tags:            tags,
		Images:          images,
		Variants:        variants,
		SourceCreatedAt: p.CreatedAt,
		SourceUpdatedAt: p.UpdatedAt,
		UpdatedAt:       now,
		SyncedAt:        now,
	}
}
