package shopify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	goshopify "github.com/bold-commerce/go-shopify/v4"
	"github.com/rs/zerolog"

	"brandwisp-store-sync/internal/domain"
	"brandwisp-store-sync/internal/ports"
	"brandwisp-store-sync/internal/transform"
)

const (
	DefaultAPIVersion = "2024-01"
	DefaultTimeout    = 30 * time.Second
	MaxPageLimit      = 250
)

// RequestOptions describes one Admin API call
type RequestOptions struct {
	Method string
	Query  url.Values
	Body   any
}

// Options configures a Client
type Options struct {
	APIVersion string
	// BaseURL replaces https://{shop} when set
	BaseURL    string
	HTTPClient *http.Client
}

// Client is the Shopify REST Admin API adapter used by the sync pipeline
type Client struct {
	registry   ports.StoreRegistry
	httpClient *http.Client
	apiVersion string
	logger     zerolog.Logger
}

var _ ports.PlatformClient = (*Client)(nil)

// NewClient creates a new Shopify client adapter
func NewClient(registry ports.StoreRegistry, opts Options, logger zerolog.Logger) *Client {
	return &Client{
		registry:   registry,
		httpClient: httpClientFor(opts),
		apiVersion: apiVersionFor(opts),
		logger:     logger.With().Str("component", "shopify_client").Logger(),
	}
}

func apiVersionFor(opts Options) string {
	if opts.APIVersion == "" {
		return DefaultAPIVersion
	}
	return opts.APIVersion
}

// httpClientFor returns the client go-shopify sends through. A BaseURL
// is applied by rewriting every request onto that host.
func httpClientFor(opts Options) *http.Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	if opts.BaseURL == "" {
		return httpClient
	}
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil || base.Host == "" {
		return httpClient
	}
	next := httpClient.Transport
	if next == nil {
		next = http.DefaultTransport
	}
	rewritten := *httpClient
	rewritten.Transport = &hostRewriter{base: base, next: next}
	return &rewritten
}

type hostRewriter struct {
	base *url.URL
	next http.RoundTripper
}

func (h *hostRewriter) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.URL.Scheme = h.base.Scheme
	req.URL.Host = h.base.Host
	req.Host = h.base.Host
	return h.next.RoundTrip(req)
}

func newAPIClient(app goshopify.App, shop, accessToken, version string, httpClient *http.Client) (*goshopify.Client, error) {
	client, err := goshopify.NewClient(app, shop, accessToken,
		goshopify.WithVersion(version),
		goshopify.WithHTTPClient(httpClient),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	return client, nil
}

func (c *Client) Provider() domain.Provider {
	return domain.ProviderShopify
}

// upstreamError turns go-shopify's response errors into *domain.UpstreamAPIError.
// Transport failures are wrapped unchanged.
func (c *Client) upstreamError(storeDomain, endpoint string, err error) error {
	var (
		status    int
		rateErr   goshopify.RateLimitError
		respErr   goshopify.ResponseError
		decodeErr goshopify.ResponseDecodingError
	)
	switch {
	case errors.As(err, &rateErr):
		status = rateErr.Status
	case errors.As(err, &respErr):
		status = respErr.Status
	case errors.As(err, &decodeErr):
		status = decodeErr.Status
	default:
		return fmt.Errorf("failed to call %s: %w", endpoint, err)
	}

	c.logger.Warn().
		Str("shop", storeDomain).
		Str("endpoint", endpoint).
		Int("status", status).
		Msg("Shopify API returned an error status")
	return &domain.UpstreamAPIError{
		StatusCode: status,
		Status:     http.StatusText(status),
		Endpoint:   endpoint,
	}
}

// Request performs an authenticated Admin API call and returns the raw response body.
// Non-2xx responses fail with *domain.UpstreamAPIError. There is no retry here.
func (c *Client) Request(ctx context.Context, storeDomain, accessToken, endpoint string, opts RequestOptions) ([]byte, error) {
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}

	client, err := newAPIClient(goshopify.App{}, storeDomain, accessToken, c.apiVersion, c.httpClient)
	if err != nil {
		return nil, err
	}

	relPath := strings.TrimLeft(endpoint, "/")
	if len(opts.Query) > 0 {
		relPath += "?" + opts.Query.Encode()
	}

	var raw json.RawMessage
	if err := client.CreateAndDo(ctx, method, relPath, opts.Body, nil, &raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, c.upstreamError(storeDomain, endpoint, err)
	}
	return raw, nil
}

// connection resolves the store and checks it can be called
func (c *Client) connection(ctx context.Context, storeID string) (*domain.StoreConnection, error) {
	conn, err := c.registry.GetByID(ctx, storeID)
	if err != nil {
		return nil, fmt.Errorf("failed to get store connection: %w", err)
	}
	if conn == nil {
		return nil, &domain.StoreNotConnectedError{StoreID: storeID, Reason: "no connection record"}
	}
	if conn.AccessToken == "" {
		return nil, &domain.StoreNotConnectedError{StoreID: storeID, Reason: "missing access token"}
	}
	return conn, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return 50
	}
	if limit > MaxPageLimit {
		return MaxPageLimit
	}
	return limit
}

// FetchProducts returns up to limit canonical products of the store
func (c *Client) FetchProducts(ctx context.Context, storeID string, limit int) ([]*domain.Product, error) {
	conn, err := c.connection(ctx, storeID)
	if err != nil {
		return nil, err
	}
	client, err := newAPIClient(goshopify.App{}, conn.StoreDomain, conn.AccessToken, c.apiVersion, c.httpClient)
	if err != nil {
		return nil, err
	}

	native, err := client.Product.List(ctx, goshopify.ListOptions{Limit: clampLimit(limit)})
	if err != nil {
		return nil, c.upstreamError(conn.StoreDomain, "products.json", err)
	}

	products := make([]*domain.Product, 0, len(native))
	for i := range native {
		p, err := transform.Product(&native[i], storeID)
		if err != nil {
			return nil, fmt.Errorf("failed to transform product %d: %w", native[i].Id, err)
		}
		if missing := transform.UnpricedVariants(&native[i]); missing > 0 {
			c.logger.Warn().
				Str("store_id", storeID).
				Str("product_id", p.ID).
				Int("variants", missing).
				Msg("Variants without a price were synced with price 0")
		}
		products = append(products, p)
	}
	return products, nil
}

// FetchOrders returns up to limit canonical orders of the store with the given status filter
func (c *Client) FetchOrders(ctx context.Context, storeID string, limit int, status string) ([]*domain.Order, error) {
	conn, err := c.connection(ctx, storeID)
	if err != nil {
		return nil, err
	}
	if status == "" {
		status = string(goshopify.OrderStatusAny)
	}
	client, err := newAPIClient(goshopify.App{}, conn.StoreDomain, conn.AccessToken, c.apiVersion, c.httpClient)
	if err != nil {
		return nil, err
	}

	native, err := client.Order.List(ctx, goshopify.OrderListOptions{
		ListOptions: goshopify.ListOptions{Limit: clampLimit(limit)},
		Status:      goshopify.OrderStatus(status),
	})
	if err != nil {
		return nil, c.upstreamError(conn.StoreDomain, "orders.json", err)
	}

	orders := make([]*domain.Order, 0, len(native))
	for i := range native {
		o, err := transform.Order(&native[i], storeID)
		if err != nil {
			return nil, fmt.Errorf("failed to transform order %d: %w", native[i].Id, err)
		}
		orders = append(orders, o)
	}
	return orders, nil
}
