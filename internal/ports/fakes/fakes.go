// Package fakes holds in-memory implementations of the ports interfaces for tests.
package fakes

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"brandwisp-store-sync/internal/domain"
	"brandwisp-store-sync/internal/ports"
)

// StoreRegistry is an in-memory ports.StoreRegistry
type StoreRegistry struct {
	mu      sync.Mutex
	conns   map[string]*domain.StoreConnection
	ListErr error
	Writes  int
}

var _ ports.StoreRegistry = (*StoreRegistry)(nil)

func NewStoreRegistry(conns ...*domain.StoreConnection) *StoreRegistry {
	r := &StoreRegistry{conns: map[string]*domain.StoreConnection{}}
	for _, c := range conns {
		r.conns[c.ID] = c
	}
	return r
}

func clone(c *domain.StoreConnection) *domain.StoreConnection {
	if c == nil {
		return nil
	}
	cp := *c
	cp.Webhooks = append([]domain.WebhookSubscription(nil), c.Webhooks...)
	return &cp
}

func (r *StoreRegistry) GetByID(_ context.Context, id string) (*domain.StoreConnection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return clone(r.conns[id]), nil
}

func (r *StoreRegistry) GetByDomain(_ context.Context, storeDomain string) (*domain.StoreConnection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var best *domain.StoreConnection
	for _, c := range r.conns {
		if c.StoreDomain != storeDomain {
			continue
		}
		switch {
		case best == nil:
			best = c
		case c.Status == domain.StatusConnected && best.Status != domain.StatusConnected:
			best = c
		case (c.Status == domain.StatusConnected) == (best.Status == domain.StatusConnected) && c.UpdatedAt.After(best.UpdatedAt):
			best = c
		}
	}
	return clone(best), nil
}

func (r *StoreRegistry) ListConnected(_ context.Context, provider domain.Provider) ([]*domain.StoreConnection, error) {
	if r.ListErr != nil {
		return nil, r.ListErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.StoreConnection
	for _, c := range r.conns {
		if c.Provider == provider && c.Status == domain.StatusConnected {
			out = append(out, clone(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *StoreRegistry) FindConnected(_ context.Context, userID string, provider domain.Provider, storeDomain string) (*domain.StoreConnection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.conns {
		if c.UserID == userID && c.Provider == provider && c.StoreDomain == storeDomain && c.Status == domain.StatusConnected {
			return clone(c), nil
		}
	}
	return nil, nil
}

func (r *StoreRegistry) FindByOwner(_ context.Context, userID string, provider domain.Provider, storeDomain string) (*domain.StoreConnection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var newest *domain.StoreConnection
	for _, c := range r.conns {
		if c.UserID != userID || c.Provider != provider || c.StoreDomain != storeDomain {
			continue
		}
		if newest == nil || c.UpdatedAt.After(newest.UpdatedAt) {
			newest = c
		}
	}
	return clone(newest), nil
}

func (r *StoreRegistry) Create(_ context.Context, conn *domain.StoreConnection) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if conn.ID == "" {
		conn.ID = fmt.Sprintf("conn-%d", len(r.conns)+1)
	}
	now := time.Now()
	conn.CreatedAt, conn.UpdatedAt = now, now
	r.conns[conn.ID] = clone(conn)
	r.Writes++
	return nil
}

func (r *StoreRegistry) Update(_ context.Context, conn *domain.StoreConnection) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.conns[conn.ID]; !ok {
		return fmt.Errorf("store connection %s not found", conn.ID)
	}
	conn.UpdatedAt = time.Now()
	r.conns[conn.ID] = clone(conn)
	r.Writes++
	return nil
}

func (r *StoreRegistry) UpdateLastSync(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.conns[id]
	if !ok {
		return fmt.Errorf("store connection %s not found", id)
	}
	c.LastSyncAt = &at
	r.Writes++
	return nil
}

func (r *StoreRegistry) SetStatus(_ context.Context, id string, status domain.ConnectionStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.conns[id]
	if !ok {
		return fmt.Errorf("store connection %s not found", id)
	}
	c.Status = status
	if status != domain.StatusConnected {
		for i := range c.Webhooks {
			c.Webhooks[i].Status = domain.WebhookStatusInactive
		}
	}
	r.Writes++
	return nil
}

func (r *StoreRegistry) AddWebhook(_ context.Context, id string, sub domain.WebhookSubscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.conns[id]
	if !ok {
		return fmt.Errorf("store connection %s not found", id)
	}
	c.Webhooks = append(c.Webhooks, sub)
	r.Writes++
	return nil
}

// ProductStore is an in-memory ports.ProductStore
type ProductStore struct {
	mu       sync.Mutex
	Products map[string]*domain.Product
	Err      error
}

var _ ports.ProductStore = (*ProductStore)(nil)

func NewProductStore() *ProductStore {
	return &ProductStore{Products: map[string]*domain.Product{}}
}

func (s *ProductStore) SaveProduct(_ context.Context, p *domain.Product) error {
	if s.Err != nil {
		return s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p.SyncedAt = time.Now()
	cp := *p
	s.Products[p.StoreID+":"+p.ID] = &cp
	return nil
}

func (s *ProductStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Products)
}

// AnalyticsSink is an in-memory ports.AnalyticsSink that drops duplicate event ids
type AnalyticsSink struct {
	mu       sync.Mutex
	Events   []domain.AnalyticsEvent
	SyncLogs []*domain.SyncLog
	seen     map[string]bool
	Err      error
}

var _ ports.AnalyticsSink = (*AnalyticsSink)(nil)

func NewAnalyticsSink() *AnalyticsSink {
	return &AnalyticsSink{seen: map[string]bool{}}
}

func (s *AnalyticsSink) InsertProductEvents(_ context.Context, events []domain.AnalyticsEvent) error {
	if s.Err != nil {
		return s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ev := range events {
		if s.seen[ev.EventID] {
			continue
		}
		s.seen[ev.EventID] = true
		s.Events = append(s.Events, ev)
	}
	return nil
}

func (s *AnalyticsSink) InsertSyncLog(_ context.Context, log *domain.SyncLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.SyncLogs = append(s.SyncLogs, log)
	return nil
}

func (s *AnalyticsSink) Close() error { return nil }

// EventsOfType returns the recorded events of one type
func (s *AnalyticsSink) EventsOfType(t domain.EventType) []domain.AnalyticsEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.AnalyticsEvent
	for _, ev := range s.Events {
		if ev.EventType == t {
			out = append(out, ev)
		}
	}
	return out
}

// WebhookLog is an in-memory ports.WebhookLogRepository
type WebhookLog struct {
	mu     sync.Mutex
	Events []*domain.WebhookEvent
}

func (l *WebhookLog) LogWebhook(_ context.Context, event *domain.WebhookEvent) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Events = append(l.Events, event)
	return nil
}

// SessionRepository is an in-memory ports.SessionRepository
type SessionRepository struct {
	mu       sync.Mutex
	Sessions map[string]*domain.Session
}

var _ ports.SessionRepository = (*SessionRepository)(nil)

func NewSessionRepository() *SessionRepository {
	return &SessionRepository{Sessions: map[string]*domain.Session{}}
}

func (r *SessionRepository) CreateSession(_ context.Context, s *domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Sessions[s.State] = s
	return nil
}

func (r *SessionRepository) ConsumeSession(_ context.Context, state string) (*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.Sessions[state]
	if !ok {
		return nil, nil
	}
	delete(r.Sessions, state)
	if time.Now().After(s.ExpiresAt) {
		return nil, nil
	}
	return s, nil
}

// PlatformClient is a scriptable ports.PlatformClient
type PlatformClient struct {
	ProviderName domain.Provider
	Products     map[string][]*domain.Product
	Orders       map[string][]*domain.Order
	// Errs fails every fetch of a store id
	Errs map[string]error
}

var _ ports.PlatformClient = (*PlatformClient)(nil)

func (c *PlatformClient) Provider() domain.Provider {
	if c.ProviderName == "" {
		return domain.ProviderShopify
	}
	return c.ProviderName
}

func (c *PlatformClient) FetchProducts(_ context.Context, storeID string, limit int) ([]*domain.Product, error) {
	if err := c.Errs[storeID]; err != nil {
		return nil, err
	}
	products := c.Products[storeID]
	if limit > 0 && len(products) > limit {
		products = products[:limit]
	}
	return products, nil
}

func (c *PlatformClient) FetchOrders(_ context.Context, storeID string, limit int, _ string) ([]*domain.Order, error) {
	if err := c.Errs[storeID]; err != nil {
		return nil, err
	}
	orders := c.Orders[storeID]
	if limit > 0 && len(orders) > limit {
		orders = orders[:limit]
	}
	return orders, nil
}

// InstallClient is a scriptable ports.InstallClient
type InstallClient struct {
	CallbackValid bool
	Token         string
	Scope         string
	Shop          ports.ShopInfo
	ExchangeErr   error
	WebhookErr    error
	Webhooks      []string
}

var _ ports.InstallClient = (*InstallClient)(nil)

func (c *InstallClient) AuthorizeURL(shop string, _ []string, redirectURI string, state string) string {
	return "https://" + shop + "/admin/oauth/authorize?state=" + state + "&redirect_uri=" + redirectURI
}

func (c *InstallClient) VerifyCallback(map[string][]string) (bool, error) {
	return c.CallbackValid, nil
}

func (c *InstallClient) ExchangeToken(context.Context, string, string) (string, string, error) {
	if c.ExchangeErr != nil {
		return "", "", c.ExchangeErr
	}
	return c.Token, c.Scope, nil
}

func (c *InstallClient) GetShop(_ context.Context, shop string, _ string) (*ports.ShopInfo, error) {
	info := c.Shop
	if info.Domain == "" {
		info.Domain = shop
	}
	return &info, nil
}

func (c *InstallClient) CreateWebhook(_ context.Context, _ string, _ string, topic string, address string) (*domain.WebhookSubscription, error) {
	if c.WebhookErr != nil {
		return nil, c.WebhookErr
	}
	c.Webhooks = append(c.Webhooks, topic)
	return &domain.WebhookSubscription{
		PlatformID: fmt.Sprintf("%d", len(c.Webhooks)),
		Topic:      topic,
		Address:    address,
		Format:     "json",
		Status:     domain.WebhookStatusActive,
	}, nil
}

// Publisher records published connection events
type Publisher struct {
	mu     sync.Mutex
	Events []*domain.ConnectionEvent
}

func (p *Publisher) Publish(event *domain.ConnectionEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Events = append(p.Events, event)
}

// Locker is an in-memory ports.SyncLocker
type Locker struct {
	mu   sync.Mutex
	held map[string]bool
}

var _ ports.SyncLocker = (*Locker)(nil)

func NewLocker() *Locker {
	return &Locker{held: map[string]bool{}}
}

// Hold marks storeID as locked by someone else
func (l *Locker) Hold(storeID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.held[storeID] = true
}

func (l *Locker) Acquire(_ context.Context, storeID string, _ time.Duration) (func(context.Context) error, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[storeID] {
		return nil, domain.ErrSyncInProgress
	}
	l.held[storeID] = true
	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.held, storeID)
		return nil
	}, nil
}
