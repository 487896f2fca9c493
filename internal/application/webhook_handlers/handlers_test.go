package webhook_handlers

import (
	"context"
	"errors"
	"testing"

	goshopify "github.com/bold-commerce/go-shopify/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brandwisp-store-sync/internal/domain"
)

type recordingApplier struct {
	shop        string
	product     *goshopify.Product
	order       *goshopify.Order
	uninstalled string
	err         error
}

func (r *recordingApplier) ApplyProduct(_ context.Context, shop string, p *goshopify.Product) error {
	r.shop, r.product = shop, p
	return r.err
}

func (r *recordingApplier) ApplyOrder(_ context.Context, shop string, o *goshopify.Order) error {
	r.shop, r.order = shop, o
	return r.err
}

func (r *recordingApplier) Uninstall(_ context.Context, shop string) error {
	r.uninstalled = shop
	return r.err
}

func TestProductHandler(t *testing.T) {
	applier := &recordingApplier{}
	h := NewProductHandler(applier, zerolog.Nop())

	assert.True(t, h.CanHandle("products/create"))
	assert.True(t, h.CanHandle("products/update"))
	assert.False(t, h.CanHandle("products/delete"))
	assert.False(t, h.CanHandle("carts/update"))

	err := h.Handle(context.Background(), &domain.WebhookEvent{
		Topic:   "products/update",
		Shop:    "demo.myshopify.com",
		Payload: []byte(`{"id":111,"title":"Tee","tags":"a, b"}`),
	})
	require.NoError(t, err)
	assert.Equal(t, "demo.myshopify.com", applier.shop)
	require.NotNil(t, applier.product)
	assert.Equal(t, uint64(111), applier.product.Id)
	assert.Equal(t, "Tee", applier.product.Title)
}

func TestProductHandler_BadPayload(t *testing.T) {
	h := NewProductHandler(&recordingApplier{}, zerolog.Nop())
	err := h.Handle(context.Background(), &domain.WebhookEvent{Topic: "products/create", Payload: []byte("{")})
	assert.Error(t, err)
}

func TestOrderHandler_PropagatesError(t *testing.T) {
	applier := &recordingApplier{err: errors.New("boom")}
	h := NewOrderHandler(applier, zerolog.Nop())

	assert.True(t, h.CanHandle("orders/create"))
	assert.True(t, h.CanHandle("orders/updated"))
	assert.False(t, h.CanHandle("orders/paid"))

	err := h.Handle(context.Background(), &domain.WebhookEvent{
		Topic:   "orders/create",
		Shop:    "demo.myshopify.com",
		Payload: []byte(`{"id":9001,"line_items":[{"id":1,"product_id":111,"quantity":2,"price":"5.00"}]}`),
	})
	assert.EqualError(t, err, "boom")
	require.NotNil(t, applier.order)
	assert.Equal(t, uint64(9001), applier.order.Id)
	assert.Len(t, applier.order.LineItems, 1)
}

func TestAppUninstalledHandler_ShopFallback(t *testing.T) {
	applier := &recordingApplier{}
	h := NewAppUninstalledHandler(applier, zerolog.Nop())

	require.NoError(t, h.Handle(context.Background(), &domain.WebhookEvent{
		Topic:   "app/uninstalled",
		Payload: []byte(`{"myshopify_domain":"demo.myshopify.com"}`),
	}))
	assert.Equal(t, "demo.myshopify.com", applier.uninstalled)

	err := h.Handle(context.Background(), &domain.WebhookEvent{Topic: "app/uninstalled", Payload: []byte(`{}`)})
	assert.Error(t, err)
}
