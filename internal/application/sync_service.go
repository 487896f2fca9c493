package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"brandwisp-store-sync/internal/domain"
	"brandwisp-store-sync/internal/ports"
	"brandwisp-store-sync/internal/transform"
)

const (
	DefaultPageLimit = 50
	DefaultLockTTL   = 15 * time.Minute
	orderStatusAny   = "any"
)

// SyncOptions tunes the sync pipeline
type SyncOptions struct {
	PageLimit int
	LockTTL   time.Duration
	// Locker is optional; without it concurrent syncs of a store rely on idempotent writes
	Locker  ports.SyncLocker
	Metrics ports.Metrics
}

// SyncService pulls products and orders of connected stores into the product
// store and the analytics sink.
type SyncService struct {
	registry  ports.StoreRegistry
	platforms *PlatformRegistry
	products  ports.ProductStore
	sink      ports.AnalyticsSink
	locker    ports.SyncLocker
	metrics   ports.Metrics
	pageLimit int
	lockTTL   time.Duration
	now       func() time.Time
	newRunID  func() string
	logger    zerolog.Logger
}

// NewSyncService creates a new sync service
func NewSyncService(
	registry ports.StoreRegistry,
	platforms *PlatformRegistry,
	products ports.ProductStore,
	sink ports.AnalyticsSink,
	opts SyncOptions,
	logger zerolog.Logger,
) *SyncService {
	if opts.PageLimit <= 0 {
		opts.PageLimit = DefaultPageLimit
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = DefaultLockTTL
	}
	return &SyncService{
		registry:  registry,
		platforms: platforms,
		products:  products,
		sink:      sink,
		locker:    opts.Locker,
		metrics:   metricsOrNop(opts.Metrics),
		pageLimit: opts.PageLimit,
		lockTTL:   opts.LockTTL,
		now:       time.Now,
		newRunID:  newRunID,
		logger:    logger.With().Str("component", "sync").Logger(),
	}
}

func newRunID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// RunScheduledSync syncs every connected store of provider one after another.
// A failing store is logged and recorded in the summary; the loop moves on.
// Only a failure to list the stores fails the run.
func (s *SyncService) RunScheduledSync(ctx context.Context, provider domain.Provider) (*domain.RunSummary, error) {
	runID := s.newRunID()
	logger := s.logger.With().Str("runId", runID).Str("provider", string(provider)).Logger()

	summary := &domain.RunSummary{
		RunID:     runID,
		Provider:  provider,
		StartedAt: s.now(),
	}

	conns, err := s.registry.ListConnected(ctx, provider)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to list connected stores, aborting scheduled sync")
		return nil, fmt.Errorf("failed to list connected stores: %w", err)
	}

	logger.Info().Int("stores", len(conns)).Msg("Starting scheduled sync")

	for _, conn := range conns {
		if ctx.Err() != nil {
			logger.Warn().Err(ctx.Err()).Msg("Scheduled sync cancelled")
			break
		}

		result, err := s.syncStore(ctx, runID, conn.ID, domain.TriggerScheduled)
		switch {
		case errors.Is(err, domain.ErrSyncInProgress):
			logger.Info().Str("storeId", conn.ID).Msg("Store sync already running, skipped")
		case err != nil:
			logger.Error().Err(err).Str("storeId", conn.ID).Msg("Store sync failed")
		}
		summary.Add(result)
	}

	summary.FinishedAt = s.now()
	s.metrics.ObserveRun(provider, summary)

	logger.Info().
		Int("succeeded", summary.Succeeded).
		Int("failed", summary.Failed).
		Int("skipped", summary.Skipped).
		Dur("duration", summary.FinishedAt.Sub(summary.StartedAt)).
		Msg("Scheduled sync finished")

	return summary, nil
}

// SyncConnectedStore runs one sync for a newly connected store. Errors are logged, never returned.
func (s *SyncService) SyncConnectedStore(ctx context.Context, storeID string) {
	result, err := s.SyncStore(ctx, storeID, domain.TriggerConnection)
	if err != nil {
		if errors.Is(err, domain.ErrSyncInProgress) {
			s.logger.Info().Str("storeId", storeID).Msg("Store sync already running, skipped")
			return
		}
		s.logger.Error().Err(err).Str("storeId", storeID).Msg("Initial store sync failed")
		return
	}
	s.logger.Info().
		Str("storeId", storeID).
		Int("products", result.ProductsSynced).
		Int("purchaseEvents", result.PurchaseEvents).
		Msg("Initial store sync completed")
}

// SyncStore pulls one store under a fresh run id. The returned result is never
// nil and carries the same error as the error return.
func (s *SyncService) SyncStore(ctx context.Context, storeID string, trigger domain.SyncTrigger) (*domain.SyncResult, error) {
	return s.syncStore(ctx, s.newRunID(), storeID, trigger)
}

func (s *SyncService) syncStore(ctx context.Context, runID, storeID string, trigger domain.SyncTrigger) (*domain.SyncResult, error) {
	result := &domain.SyncResult{
		RunID:     runID,
		StoreID:   storeID,
		Trigger:   trigger,
		StartedAt: s.now(),
	}

	err := s.pull(ctx, result)
	switch {
	case err == nil:
		result.Status = domain.SyncStatusSuccess
	case errors.Is(err, domain.ErrSyncInProgress):
		result.Status = domain.SyncStatusSkipped
		result.Err = err
		result.Error = err.Error()
	default:
		result.Fail(err)
	}
	result.FinishedAt = s.now()

	s.metrics.ObserveStoreSync(result.Provider, trigger, result.Status, result.FinishedAt.Sub(result.StartedAt))
	if logErr := s.sink.InsertSyncLog(ctx, domain.SyncLogFromResult(result)); logErr != nil {
		s.logger.Warn().Err(logErr).Str("storeId", storeID).Msg("Failed to write sync log")
	}
	return result, err
}

// pull is the sync body: products, then orders, then lastSyncAt.
func (s *SyncService) pull(ctx context.Context, result *domain.SyncResult) error {
	storeID := result.StoreID

	conn, err := s.registry.GetByID(ctx, storeID)
	if err != nil {
		return fmt.Errorf("failed to get store connection: %w", err)
	}
	if conn == nil {
		return &domain.StoreNotConnectedError{StoreID: storeID, Reason: "no connection record"}
	}
	result.Provider = conn.Provider
	if !conn.IsConnected() {
		reason := "status " + string(conn.Status)
		if conn.AccessToken == "" {
			reason = "missing access token"
		}
		return &domain.StoreNotConnectedError{StoreID: storeID, Reason: reason}
	}

	client, err := s.platforms.Get(conn.Provider)
	if err != nil {
		return err
	}

	if s.locker != nil {
		release, err := s.locker.Acquire(ctx, storeID, s.lockTTL)
		if err != nil {
			return err
		}
		defer func() {
			releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			if err := release(releaseCtx); err != nil {
				s.logger.Warn().Err(err).Str("storeId", storeID).Msg("Failed to release sync lock")
			}
		}()
	}

	logger := s.logger.With().
		Str("runId", result.RunID).
		Str("storeId", storeID).
		Str("shop", conn.StoreDomain).
		Logger()

	products, err := client.FetchProducts(ctx, storeID, s.pageLimit)
	if err != nil {
		return fmt.Errorf("failed to fetch products: %w", err)
	}

	syncEvents := make([]domain.AnalyticsEvent, 0, len(products))
	for _, p := range products {
		if err := s.products.SaveProduct(ctx, p); err != nil {
			return domain.NewPersistenceError("save product "+p.ID, err)
		}
		syncEvents = append(syncEvents, transform.SyncEvent(p, result.RunID, s.now()))
	}
	if err := s.sink.InsertProductEvents(ctx, syncEvents); err != nil {
		return domain.NewPersistenceError("insert sync events", err)
	}
	result.ProductsSynced = len(products)
	s.metrics.AddEvents(domain.EventTypeSync, len(syncEvents))

	orders, err := client.FetchOrders(ctx, storeID, s.pageLimit, orderStatusAny)
	if err != nil {
		return fmt.Errorf("failed to fetch orders: %w", err)
	}

	var purchases []domain.AnalyticsEvent
	for _, o := range orders {
		purchases = append(purchases, transform.PurchaseEvents(o, transform.SyncSource())...)
	}
	if err := s.sink.InsertProductEvents(ctx, purchases); err != nil {
		return domain.NewPersistenceError("insert purchase events", err)
	}
	result.PurchaseEvents = len(purchases)
	s.metrics.AddEvents(domain.EventTypePurchase, len(purchases))

	if err := s.registry.UpdateLastSync(ctx, storeID, s.now()); err != nil {
		return domain.NewPersistenceError("update last sync", err)
	}

	logger.Info().
		Int("products", result.ProductsSynced).
		Int("orders", len(orders)).
		Int("purchaseEvents", result.PurchaseEvents).
		Msg("Store synced")
	return nil
}
