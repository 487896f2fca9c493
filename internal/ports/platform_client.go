package ports

import (
	"context"

	"brandwisp-store-sync/internal/domain"
)

// PlatformClient is the capability a commerce platform must provide to be synced.
// Implementations resolve the StoreConnection themselves and fail with
// *domain.StoreNotConnectedError when it is missing or has no token.
type PlatformClient interface {
	Provider() domain.Provider
	FetchProducts(ctx context.Context, storeID string, limit int) ([]*domain.Product, error)
	FetchOrders(ctx context.Context, storeID string, limit int, status string) ([]*domain.Order, error)
}

// ShopInfo is the subset of platform shop data stored on a connection
type ShopInfo struct {
	Name     string
	Domain   string
	Currency string
	Country  string
	Plan     string
}

// InstallClient performs the OAuth and webhook registration calls of a platform
type InstallClient interface {
	AuthorizeURL(shop string, scopes []string, redirectURI string, state string) string
	VerifyCallback(query map[string][]string) (bool, error)
	ExchangeToken(ctx context.Context, shop string, code string) (token string, scope string, err error)
	GetShop(ctx context.Context, shop string, accessToken string) (*ShopInfo, error)
	CreateWebhook(ctx context.Context, shop string, accessToken string, topic string, address string) (*domain.WebhookSubscription, error)
}
