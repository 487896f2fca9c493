package shopify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	goshopify "github.com/bold-commerce/go-shopify/v4"
	"github.com/rs/zerolog"

	"brandwisp-store-sync/internal/domain"
	"brandwisp-store-sync/internal/ports"
)

// InstallClient performs the OAuth install and webhook registration calls
type InstallClient struct {
	apiKey     string
	apiSecret  string
	apiVersion string
	app        goshopify.App
	httpClient *http.Client
	apiClient  *http.Client
	baseURL    string
	logger     zerolog.Logger
}

var _ ports.InstallClient = (*InstallClient)(nil)

// NewInstallClient creates the OAuth side of the Shopify adapter
func NewInstallClient(apiKey, apiSecret string, opts Options, logger zerolog.Logger) *InstallClient {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &InstallClient{
		apiKey:     apiKey,
		apiSecret:  apiSecret,
		apiVersion: apiVersionFor(opts),
		app: goshopify.App{
			ApiKey:    apiKey,
			ApiSecret: apiSecret,
		},
		httpClient: httpClient,
		apiClient:  httpClientFor(opts),
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		logger:     logger.With().Str("component", "shopify_install").Logger(),
	}
}

func (c *InstallClient) createClient(shopDomain, accessToken string) (*goshopify.Client, error) {
	return newAPIClient(c.app, shopDomain, accessToken, c.apiVersion, c.apiClient)
}

// AuthorizeURL builds the OAuth authorize URL.
// go-shopify's AuthorizeUrl has no redirect_uri parameter so the URL is built by hand.
func (c *InstallClient) AuthorizeURL(shop string, scopes []string, redirectURI string, state string) string {
	scopesStr := strings.Join(scopes, ",")

	c.logger.Info().
		Str("shop", shop).
		Strs("scopes", scopes).
		Msg("Generating OAuth authorization URL")

	return fmt.Sprintf(
		"https://%s/admin/oauth/authorize?client_id=%s&scope=%s&redirect_uri=%s&state=%s",
		shop,
		url.QueryEscape(c.apiKey),
		url.QueryEscape(scopesStr),
		url.QueryEscape(redirectURI),
		url.QueryEscape(state),
	)
}

// VerifyCallback checks the hmac parameter Shopify signs the OAuth callback with
func (c *InstallClient) VerifyCallback(query map[string][]string) (bool, error) {
	u := &url.URL{RawQuery: url.Values(query).Encode()}
	ok, err := c.app.VerifyAuthorizationURL(u)
	if err != nil {
		return false, fmt.Errorf("failed to verify callback: %w", err)
	}
	return ok, nil
}

// ExchangeToken trades the OAuth code for a permanent access token
func (c *InstallClient) ExchangeToken(ctx context.Context, shop string, code string) (string, string, error) {
	base := c.baseURL
	if base == "" {
		base = "https://" + shop
	}
	tokenURL := base + "/admin/oauth/access_token"

	values := url.Values{}
	values.Set("client_id", c.apiKey)
	values.Set("client_secret", c.apiSecret)
	values.Set("code", code)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, strings.NewReader(values.Encode()))
	if err != nil {
		return "", "", fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("failed to exchange token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return "", "", &domain.UpstreamAPIError{
			StatusCode: resp.StatusCode,
			Status:     http.StatusText(resp.StatusCode),
			Endpoint:   "oauth/access_token",
		}
	}

	var tokenResponse struct {
		AccessToken string `json:"access_token"`
		Scope       string `json:"scope"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tokenResponse); err != nil {
		return "", "", fmt.Errorf("failed to decode token response: %w", err)
	}
	if tokenResponse.AccessToken == "" {
		return "", "", fmt.Errorf("token response has no access_token")
	}
	return tokenResponse.AccessToken, tokenResponse.Scope, nil
}

// GetShop fetches the shop profile stored on the connection
func (c *InstallClient) GetShop(ctx context.Context, shop string, accessToken string) (*ports.ShopInfo, error) {
	client, err := c.createClient(shop, accessToken)
	if err != nil {
		return nil, err
	}
	s, err := client.Shop.Get(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get shop: %w", err)
	}
	domainName := s.MyshopifyDomain
	if domainName == "" {
		domainName = shop
	}
	return &ports.ShopInfo{
		Name:     s.Name,
		Domain:   domainName,
		Currency: s.Currency,
		Country:  s.CountryCode,
		Plan:     s.PlanName,
	}, nil
}

// CreateWebhook registers a JSON webhook for topic pointing at address
func (c *InstallClient) CreateWebhook(ctx context.Context, shop string, accessToken string, topic string, address string) (*domain.WebhookSubscription, error) {
	client, err := c.createClient(shop, accessToken)
	if err != nil {
		return nil, err
	}
	created, err := client.Webhook.Create(ctx, goshopify.Webhook{
		Topic:   topic,
		Address: address,
		Format:  "json",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create webhook: %w", err)
	}
	return &domain.WebhookSubscription{
		PlatformID: strconv.FormatUint(created.Id, 10),
		Topic:      created.Topic,
		Address:    created.Address,
		Format:     created.Format,
		Status:     domain.WebhookStatusActive,
	}, nil
}
