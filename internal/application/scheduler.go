package application

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"brandwisp-store-sync/internal/domain"
)

// ScheduledSyncer runs one scheduled sync of a provider
type ScheduledSyncer interface {
	RunScheduledSync(ctx context.Context, provider domain.Provider) (*domain.RunSummary, error)
}

// Scheduler runs the scheduled sync for every provider on a fixed interval
type Scheduler struct {
	syncer    ScheduledSyncer
	providers []domain.Provider
	interval  time.Duration
	logger    zerolog.Logger
}

func NewScheduler(syncer ScheduledSyncer, providers []domain.Provider, interval time.Duration, logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		syncer:    syncer,
		providers: providers,
		interval:  interval,
		logger:    logger.With().Str("component", "scheduler").Logger(),
	}
}

// Run syncs once immediately, then on every tick until ctx is cancelled
func (s *Scheduler) Run(ctx context.Context) {
	s.logger.Info().Dur("interval", s.interval).Msg("Scheduler started")

	s.tick(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("Scheduler stopped")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	for _, provider := range s.providers {
		if ctx.Err() != nil {
			return
		}
		// failures are logged by the syncer
		s.syncer.RunScheduledSync(ctx, provider)
	}
}
