package transform

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	goshopify "github.com/bold-commerce/go-shopify/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brandwisp-store-sync/internal/domain"
)

func TestSplitTags(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"empty", "", []string{}},
		{"whitespace only", "  ,  , ", []string{}},
		{"trims and keeps duplicates", "a, b ,b", []string{"a", "b", "b"}},
		{"keeps source order", "zeta,alpha", []string{"zeta", "alpha"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitTags(tt.in))
		})
	}
}

func TestSplitTagsRoundTrip(t *testing.T) {
	tags := []string{"summer", "sale", "sale", "new arrival"}
	assert.Equal(t, tags, SplitTags(strings.Join(tags, ",")))
}

func TestProduct(t *testing.T) {
	payload := `{
		"id": 111,
		"title": "Tee",
		"body_html": "<p>Soft</p>",
		"vendor": "Acme",
		"product_type": "Shirts",
		"status": "active",
		"tags": "a, b ,b",
		"images": [{"id": 9, "src": "https://cdn/x.png", "alt": null, "width": 10, "height": 20, "position": 1}],
		"variants": [
			{"id": 1, "title": "S", "price": "19.99", "compare_at_price": null, "sku": "TEE-S", "inventory_quantity": 3},
			{"id": 2, "title": "M", "price": "0.00", "compare_at_price": "25.00", "inventory_quantity": 0}
		],
		"created_at": "2024-01-02T10:00:00Z",
		"updated_at": "2024-01-03T10:00:00Z"
	}`
	var sp goshopify.Product
	require.NoError(t, json.Unmarshal([]byte(payload), &sp))

	p, err := Product(&sp, "store-1")
	require.NoError(t, err)

	assert.Equal(t, "111", p.ID)
	assert.Equal(t, "store-1", p.StoreID)
	assert.Equal(t, "<p>Soft</p>", p.Description)
	assert.Equal(t, []string{"a", "b", "b"}, p.Tags)
	require.Len(t, p.Images, 1)
	assert.Equal(t, "9", p.Images[0].ID)
	assert.Empty(t, p.Images[0].Alt)

	require.Len(t, p.Variants, 2)
	assert.InDelta(t, 19.99, p.Variants[0].Price, 1e-9)
	assert.Nil(t, p.Variants[0].CompareAtPrice)
	assert.Equal(t, "TEE-S", p.Variants[0].SKU)
	assert.Equal(t, 0.0, p.Variants[1].Price)
	require.NotNil(t, p.Variants[1].CompareAtPrice)
	assert.Equal(t, 25.0, *p.Variants[1].CompareAtPrice)
	assert.Equal(t, time.Date(2024, 1, 3, 10, 0, 0, 0, time.UTC), p.UpdatedAt.UTC())
}

func TestProductWithoutPrice(t *testing.T) {
	var sp goshopify.Product
	require.NoError(t, json.Unmarshal([]byte(`{
		"id": 1,
		"variants": [
			{"id": 2, "price": null},
			{"id": 3, "price": "4.50"},
			{"id": 4}
		]
	}`), &sp))

	p, err := Product(&sp, "s")
	require.NoError(t, err)
	require.Len(t, p.Variants, 3)
	assert.Equal(t, 0.0, p.Variants[0].Price)
	assert.Equal(t, 4.5, p.Variants[1].Price)
	assert.Equal(t, 0.0, p.Variants[2].Price)
	assert.Equal(t, 2, UnpricedVariants(&sp))
	assert.Equal(t, 0, UnpricedVariants(nil))
}

func TestDecodeRejectsBadPrice(t *testing.T) {
	var sp goshopify.Product
	err := json.Unmarshal([]byte(`{"id":1,"variants":[{"id":2,"price":"abc"}]}`), &sp)
	assert.Error(t, err)
}

func TestProductRequiresID(t *testing.T) {
	_, err := Product(&goshopify.Product{}, "s")
	assert.Error(t, err)
	_, err = Product(nil, "s")
	assert.Error(t, err)
}

func TestOrderAndPurchaseEvents(t *testing.T) {
	payload := `{
		"id": 5001,
		"name": "#1001",
		"currency": "EUR",
		"checkout_token": "chk",
		"financial_status": "paid",
		"customer": {"id": 77},
		"shipping_address": {"country_code": "FR", "country": "France"},
		"line_items": [
			{"id": 1, "product_id": 111, "variant_id": 222, "title": "Tee", "quantity": 2, "price": "19.99", "total_discount": "0.00"},
			{"id": 2, "product_id": null, "variant_id": null, "title": "Gift wrap", "quantity": 1, "price": "3.00"}
		],
		"created_at": "2024-02-01T09:00:00Z",
		"updated_at": "2024-02-01T09:30:00Z"
	}`
	var so goshopify.Order
	require.NoError(t, json.Unmarshal([]byte(payload), &so))

	order, err := Order(&so, "store-1")
	require.NoError(t, err)
	require.Len(t, order.LineItems, 2)
	assert.Nil(t, order.LineItems[1].ProductID)
	assert.Nil(t, order.LineItems[1].VariantID)
	assert.Nil(t, order.LineItems[1].TotalDiscount)

	events := PurchaseEvents(order, SyncSource())
	require.Len(t, events, 2)

	first := events[0]
	assert.Equal(t, "purchase_store-1_5001_1", first.EventID)
	assert.Equal(t, domain.EventTypePurchase, first.EventType)
	assert.Equal(t, "111", first.ProductID)
	require.NotNil(t, first.VariantID)
	assert.Equal(t, "222", *first.VariantID)
	assert.Equal(t, 2, *first.Quantity)
	assert.InDelta(t, 19.99, *first.Price, 1e-9)
	require.NotNil(t, first.DiscountAmount)
	assert.Equal(t, 0.0, *first.DiscountAmount)
	assert.Equal(t, "EUR", *first.Currency)
	assert.Equal(t, "FR", *first.Country)
	assert.Equal(t, "77", *first.UserID)
	assert.Equal(t, "chk", *first.SessionID)
	assert.Equal(t, "paid", first.Metadata["financial_status"])
	assert.Equal(t, *so.CreatedAt, first.Timestamp)

	second := events[1]
	assert.Nil(t, second.VariantID)
	assert.Nil(t, second.DiscountAmount)
}

func TestPurchaseEventIDs(t *testing.T) {
	order := &domain.Order{
		ID:        "9",
		StoreID:   "s",
		UpdatedAt: time.UnixMilli(1700000000000),
		LineItems: []domain.OrderLineItem{{ID: "3"}},
	}

	syncA := PurchaseEvents(order, SyncSource())
	syncB := PurchaseEvents(order, SyncSource())
	assert.Equal(t, syncA[0].EventID, syncB[0].EventID)

	hook := PurchaseEvents(order, WebhookSource(order))
	assert.Equal(t, "webhook_purchase_s_9_3_1700000000000", hook[0].EventID)
	assert.NotEqual(t, syncA[0].EventID, hook[0].EventID)

	order.UpdatedAt = order.UpdatedAt.Add(time.Minute)
	assert.NotEqual(t, hook[0].EventID, PurchaseEvents(order, WebhookSource(order))[0].EventID)
}

func TestSyncAndUpdateEvents(t *testing.T) {
	at := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	p := &domain.Product{ID: "111", StoreID: "s", Title: "Tee", UpdatedAt: at.Add(-time.Hour)}

	sync := SyncEvent(p, "run-1", at)
	assert.Equal(t, "sync_s_111_run-1", sync.EventID)
	assert.Equal(t, domain.EventTypeSync, sync.EventType)
	assert.Equal(t, "111", sync.ProductID)
	assert.Equal(t, at, sync.Timestamp)
	assert.Equal(t, "run-1", sync.Metadata["sync_run_id"])

	update := UpdateEvent(p, at)
	assert.Equal(t, domain.EventTypeUpdate, update.EventType)
	assert.Equal(t, update.EventID, UpdateEvent(p, at.Add(time.Minute)).EventID)
}
