package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"brandwisp-store-sync/internal/domain"
	"brandwisp-store-sync/internal/ports"
)

const sessionKeyPrefix = "oauth_state:"

// RedisSessionRepository stores pending OAuth installs under their state parameter
type RedisSessionRepository struct {
	client *redis.Client
	now    func() time.Time
}

var _ ports.SessionRepository = (*RedisSessionRepository)(nil)

func NewRedisSessionRepository(client *redis.Client) *RedisSessionRepository {
	return &RedisSessionRepository{client: client, now: time.Now}
}

// CreateSession stores the session until its ExpiresAt
func (r *RedisSessionRepository) CreateSession(ctx context.Context, session *domain.Session) error {
	ttl := session.ExpiresAt.Sub(r.now())
	if ttl <= 0 {
		return fmt.Errorf("session %s already expired", session.State)
	}
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := r.client.Set(ctx, sessionKeyPrefix+session.State, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// ConsumeSession atomically reads and deletes a session so a state is usable once
func (r *RedisSessionRepository) ConsumeSession(ctx context.Context, state string) (*domain.Session, error) {
	data, err := r.client.GetDel(ctx, sessionKeyPrefix+state).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var session domain.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	if r.now().After(session.ExpiresAt) {
		return nil, nil
	}
	return &session, nil
}
