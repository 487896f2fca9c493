package pubsub

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"brandwisp-store-sync/internal/domain"
	"brandwisp-store-sync/internal/ports"
)

// ConnectionEventChannel represents a subscription channel
type ConnectionEventChannel struct {
	ID     string
	Filter *ConnectionEventFilter
	Events chan *domain.ConnectionEvent
	Done   chan struct{}
	ctx    context.Context
	cancel context.CancelFunc
}

// ConnectionEventFilter filters connection events
type ConnectionEventFilter struct {
	Statuses []domain.ConnectionStatus
	Provider domain.Provider
}

// ConnectionEvents fans StoreConnection transitions out to in-process subscribers
type ConnectionEvents struct {
	mu         sync.RWMutex
	channels   map[string]*ConnectionEventChannel
	bufferSize int
	logger     zerolog.Logger
	nextID     int64
	idMu       sync.Mutex
}

var _ ports.ConnectionPublisher = (*ConnectionEvents)(nil)

// NewConnectionEvents creates a new connection event pub/sub
func NewConnectionEvents(logger zerolog.Logger) *ConnectionEvents {
	return &ConnectionEvents{
		channels:   make(map[string]*ConnectionEventChannel),
		bufferSize: 64,
		logger:     logger.With().Str("component", "connection_events").Logger(),
	}
}

// Subscribe creates a new subscription channel, removed when ctx is cancelled
func (ps *ConnectionEvents) Subscribe(ctx context.Context, filter *ConnectionEventFilter) *ConnectionEventChannel {
	ps.idMu.Lock()
	id := ps.generateID()
	ps.idMu.Unlock()

	subCtx, cancel := context.WithCancel(ctx)

	channel := &ConnectionEventChannel{
		ID:     id,
		Filter: filter,
		Events: make(chan *domain.ConnectionEvent, ps.bufferSize),
		Done:   make(chan struct{}),
		ctx:    subCtx,
		cancel: cancel,
	}

	ps.mu.Lock()
	ps.channels[id] = channel
	ps.mu.Unlock()

	ps.logger.Info().
		Str("channelId", id).
		Msg("Connection event subscription created")

	go func() {
		<-subCtx.Done()
		ps.Unsubscribe(id)
	}()

	return channel
}

// Unsubscribe removes a subscription channel
func (ps *ConnectionEvents) Unsubscribe(channelID string) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	channel, exists := ps.channels[channelID]
	if !exists {
		return
	}

	close(channel.Events)
	close(channel.Done)
	channel.cancel()
	delete(ps.channels, channelID)

	ps.logger.Info().
		Str("channelId", channelID).
		Msg("Connection event subscription removed")
}

// Publish broadcasts an event to all matching subscribers without blocking
func (ps *ConnectionEvents) Publish(event *domain.ConnectionEvent) {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	publishedCount := 0
	for _, channel := range ps.channels {
		if !matchesFilter(event, channel.Filter) {
			continue
		}
		select {
		case channel.Events <- event:
			publishedCount++
		case <-channel.ctx.Done():
		default:
			ps.logger.Warn().
				Str("channelId", channel.ID).
				Str("storeId", event.StoreID).
				Msg("Channel buffer full, dropping event")
		}
	}

	ps.logger.Debug().
		Str("storeId", event.StoreID).
		Str("status", string(event.Status)).
		Int("subscribers", publishedCount).
		Msg("Published connection event")
}

func matchesFilter(event *domain.ConnectionEvent, filter *ConnectionEventFilter) bool {
	if filter == nil {
		return true
	}

	if len(filter.Statuses) > 0 {
		statusMatch := false
		for _, status := range filter.Statuses {
			if event.Status == status {
				statusMatch = true
				break
			}
		}
		if !statusMatch {
			return false
		}
	}

	if filter.Provider != "" && event.Provider != filter.Provider {
		return false
	}

	return true
}

func (ps *ConnectionEvents) generateID() string {
	ps.nextID++
	return fmt.Sprintf("channel-%d", ps.nextID)
}

// Stats returns pub/sub statistics
func (ps *ConnectionEvents) Stats() map[string]interface{} {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	return map[string]interface{}{
		"active_subscriptions": len(ps.channels),
	}
}
