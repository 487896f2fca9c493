package domain

import "time"

// ProductImage is one image of a canonical product, in source order
type ProductImage struct {
	ID       string `json:"id" bson:"id"`
	Src      string `json:"src" bson:"src"`
	Alt      string `json:"alt,omitempty" bson:"alt,omitempty"`
	Width    int    `json:"width" bson:"width"`
	Height   int    `json:"height" bson:"height"`
	Position int    `json:"position" bson:"position"`
}

// ProductVariant is one variant of a canonical product.
// CompareAtPrice is nil when the platform did not send one.
type ProductVariant struct {
	ID                string   `json:"id" bson:"id"`
	Title             string   `json:"title" bson:"title"`
	Price             float64  `json:"price" bson:"price"`
	CompareAtPrice    *float64 `json:"compare_at_price,omitempty" bson:"compare_at_price,omitempty"`
	SKU               string   `json:"sku,omitempty" bson:"sku,omitempty"`
	InventoryQuantity int      `json:"inventory_quantity" bson:"inventory_quantity"`
}

// Product is the canonical, post-transform product owned by a single store
type Product struct {
	ID          string           `json:"id"`
	StoreID     string           `json:"store_id"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Vendor      string           `json:"vendor"`
	ProductType string           `json:"product_type"`
	Status      string           `json:"status"`
	Handle      string           `json:"handle,omitempty"`
	Tags        []string         `json:"tags"`
	Images      []ProductImage   `json:"images"`
	Variants    []ProductVariant `json:"variants"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
	SyncedAt    time.Time        `json:"synced_at"`
}
