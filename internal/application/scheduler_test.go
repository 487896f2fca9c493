package application

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"brandwisp-store-sync/internal/domain"
)

type countingSyncer struct {
	mu    sync.Mutex
	calls []domain.Provider
}

func (s *countingSyncer) RunScheduledSync(_ context.Context, provider domain.Provider) (*domain.RunSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, provider)
	return &domain.RunSummary{Provider: provider}, nil
}

func (s *countingSyncer) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func TestScheduler_RunsImmediatelyAndOnTick(t *testing.T) {
	syncer := &countingSyncer{}
	s := NewScheduler(syncer, []domain.Provider{domain.ProviderShopify}, 10*time.Millisecond, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return syncer.count() >= 3 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
}

func TestScheduler_StopsBeforeFirstRunWhenCancelled(t *testing.T) {
	syncer := &countingSyncer{}
	s := NewScheduler(syncer, []domain.Provider{domain.ProviderShopify}, time.Hour, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.Run(ctx)

	assert.Equal(t, 0, syncer.count())
}
