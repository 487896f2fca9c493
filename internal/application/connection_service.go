package application

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"brandwisp-store-sync/internal/domain"
	"brandwisp-store-sync/internal/ports"
)

const DefaultStateTTL = 10 * time.Minute

var shopDomainPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*\.myshopify\.com$`)

// NormalizeShopDomain lowercases shop, strips a scheme and path, and appends
// .myshopify.com to a bare shop name.
func NormalizeShopDomain(shop string) (string, error) {
	shop = strings.ToLower(strings.TrimSpace(shop))
	shop = strings.TrimPrefix(shop, "https://")
	shop = strings.TrimPrefix(shop, "http://")
	if i := strings.IndexByte(shop, '/'); i >= 0 {
		shop = shop[:i]
	}
	if shop != "" && !strings.Contains(shop, ".") {
		shop += ".myshopify.com"
	}
	if !shopDomainPattern.MatchString(shop) {
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidShopDomain, shop)
	}
	return shop, nil
}

// ConnectionOptions configures the OAuth install flow
type ConnectionOptions struct {
	AppURL        string
	Scopes        []string
	StateTTL      time.Duration
	WebhookTopics []string
}

// InstallResult is the outcome of a completed OAuth callback
type InstallResult struct {
	Connection *domain.StoreConnection
	ReturnURL  string
	Created    bool
}

// ConnectionService creates and refreshes StoreConnections through the Shopify OAuth flow
type ConnectionService struct {
	registry  ports.StoreRegistry
	sessions  ports.SessionRepository
	install   ports.InstallClient
	publisher ports.ConnectionPublisher
	opts      ConnectionOptions
	now       func() time.Time
	logger    zerolog.Logger
}

// NewConnectionService creates a new connection service
func NewConnectionService(
	registry ports.StoreRegistry,
	sessions ports.SessionRepository,
	install ports.InstallClient,
	publisher ports.ConnectionPublisher,
	opts ConnectionOptions,
	logger zerolog.Logger,
) *ConnectionService {
	if opts.StateTTL <= 0 {
		opts.StateTTL = DefaultStateTTL
	}
	if opts.WebhookTopics == nil {
		opts.WebhookTopics = domain.DefaultWebhookTopics
	}
	opts.AppURL = strings.TrimRight(opts.AppURL, "/")
	return &ConnectionService{
		registry:  registry,
		sessions:  sessions,
		install:   install,
		publisher: publisher,
		opts:      opts,
		now:       time.Now,
		logger:    logger.With().Str("component", "connection").Logger(),
	}
}

func (s *ConnectionService) redirectURI() string {
	return s.opts.AppURL + "/auth/callback"
}

func (s *ConnectionService) webhookAddress() string {
	return s.opts.AppURL + "/webhooks/shopify"
}

// BeginInstall validates the request, stores an OAuth state and returns the authorize URL
func (s *ConnectionService) BeginInstall(ctx context.Context, userID, shop, returnURL string) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("user id is required")
	}
	shop, err := NormalizeShopDomain(shop)
	if err != nil {
		return "", err
	}
	if err := s.validateNewConnection(ctx, userID, domain.ProviderShopify, shop); err != nil {
		return "", err
	}

	state, err := newState()
	if err != nil {
		return "", err
	}

	now := s.now()
	session := &domain.Session{
		State:     state,
		Shop:      shop,
		UserID:    userID,
		Provider:  domain.ProviderShopify,
		Scopes:    s.opts.Scopes,
		ReturnURL: returnURL,
		ExpiresAt: now.Add(s.opts.StateTTL),
		CreatedAt: now,
	}
	if err := s.sessions.CreateSession(ctx, session); err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}

	s.logger.Info().
		Str("shop", shop).
		Str("userId", userID).
		Msg("OAuth install started")

	return s.install.AuthorizeURL(shop, s.opts.Scopes, s.redirectURI(), state), nil
}

// validateNewConnection rejects a second connected record for the same user, provider and domain
func (s *ConnectionService) validateNewConnection(ctx context.Context, userID string, provider domain.Provider, shop string) error {
	existing, err := s.registry.FindConnected(ctx, userID, provider, shop)
	if err != nil {
		return fmt.Errorf("failed to check existing connection: %w", err)
	}
	if existing != nil {
		return domain.ErrConnectionExists
	}
	return nil
}

// CompleteInstall handles the OAuth callback query: verify, exchange the code,
// persist the connection, register webhooks and announce the connection.
func (s *ConnectionService) CompleteInstall(ctx context.Context, query url.Values) (*InstallResult, error) {
	ok, err := s.install.VerifyCallback(query)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrSignatureVerification
	}

	shop, err := NormalizeShopDomain(query.Get("shop"))
	if err != nil {
		return nil, err
	}
	code := query.Get("code")
	if code == "" {
		return nil, fmt.Errorf("%w: missing code", domain.ErrInvalidOAuthState)
	}

	session, err := s.sessions.ConsumeSession(ctx, query.Get("state"))
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if session == nil || session.Shop != shop {
		return nil, domain.ErrInvalidOAuthState
	}

	token, scope, err := s.install.ExchangeToken(ctx, shop, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange token: %w", err)
	}

	info, err := s.install.GetShop(ctx, shop, token)
	if err != nil {
		return nil, fmt.Errorf("failed to get shop: %w", err)
	}

	conn, created, err := s.saveConnection(ctx, session, shop, token, scope, info)
	if err != nil {
		return nil, err
	}

	s.registerWebhooks(ctx, conn)

	s.publisher.Publish(&domain.ConnectionEvent{
		StoreID:    conn.ID,
		Provider:   conn.Provider,
		Status:     domain.StatusConnected,
		OccurredAt: s.now(),
	})

	s.logger.Info().
		Str("storeId", conn.ID).
		Str("shop", shop).
		Bool("created", created).
		Msg("Store connected")

	return &InstallResult{Connection: conn, ReturnURL: session.ReturnURL, Created: created}, nil
}

// saveConnection updates the user's previous record of the shop in place, or creates one
func (s *ConnectionService) saveConnection(
	ctx context.Context,
	session *domain.Session,
	shop, token, scope string,
	info *ports.ShopInfo,
) (*domain.StoreConnection, bool, error) {
	existing, err := s.registry.FindByOwner(ctx, session.UserID, session.Provider, shop)
	if err != nil {
		return nil, false, fmt.Errorf("failed to get store connection: %w", err)
	}

	conn := existing
	created := existing == nil
	if created {
		conn = &domain.StoreConnection{
			UserID:      session.UserID,
			Provider:    session.Provider,
			StoreDomain: shop,
		}
	}

	conn.Status = domain.StatusConnected
	conn.AccessToken = token
	conn.Scope = scope
	conn.StoreName = info.Name
	if conn.Metadata == nil {
		conn.Metadata = map[string]any{}
	}
	conn.Metadata["currency"] = info.Currency
	conn.Metadata["country"] = info.Country
	conn.Metadata["plan"] = info.Plan

	if created {
		if err := s.registry.Create(ctx, conn); err != nil {
			return nil, false, fmt.Errorf("failed to create store connection: %w", err)
		}
	} else if err := s.registry.Update(ctx, conn); err != nil {
		return nil, false, fmt.Errorf("failed to update store connection: %w", err)
	}
	return conn, created, nil
}

// registerWebhooks subscribes every default topic that has no active subscription.
// A failed registration is logged and does not fail the install.
func (s *ConnectionService) registerWebhooks(ctx context.Context, conn *domain.StoreConnection) {
	active := make(map[string]bool, len(conn.Webhooks))
	for _, wh := range conn.Webhooks {
		if wh.Status == domain.WebhookStatusActive {
			active[wh.Topic] = true
		}
	}

	for _, topic := range s.opts.WebhookTopics {
		if active[topic] {
			continue
		}
		sub, err := s.install.CreateWebhook(ctx, conn.StoreDomain, conn.AccessToken, topic, s.webhookAddress())
		if err != nil {
			s.logger.Warn().Err(err).Str("storeId", conn.ID).Str("topic", topic).Msg("Failed to register webhook")
			continue
		}
		sub.CreatedAt = s.now()
		if err := s.registry.AddWebhook(ctx, conn.ID, *sub); err != nil {
			s.logger.Warn().Err(err).Str("storeId", conn.ID).Str("topic", topic).Msg("Failed to store webhook subscription")
			continue
		}
		conn.Webhooks = append(conn.Webhooks, *sub)
	}
}

func newState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}
	return hex.EncodeToString(b), nil
}
