// Package lock provides the per-store sync lease.
package lock

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"brandwisp-store-sync/internal/domain"
	"brandwisp-store-sync/internal/ports"
)

const keyPrefix = "sync_lock:"

// releaseScript deletes the key only while it still holds our token
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// RedisLocker grants per-store leases with SET NX PX
type RedisLocker struct {
	client redis.UniversalClient
}

var _ ports.SyncLocker = (*RedisLocker)(nil)

func NewRedisLocker(client redis.UniversalClient) *RedisLocker {
	return &RedisLocker{client: client}
}

// Acquire takes the lease of storeID for ttl. The lease expires on its own if
// the holder dies; release is a no-op once another holder owns it.
func (l *RedisLocker) Acquire(ctx context.Context, storeID string, ttl time.Duration) (func(context.Context) error, error) {
	token, err := newToken()
	if err != nil {
		return nil, err
	}
	key := keyPrefix + storeID

	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire sync lock: %w", err)
	}
	if !ok {
		return nil, domain.ErrSyncInProgress
	}

	release := func(ctx context.Context) error {
		if err := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil {
			return fmt.Errorf("failed to release sync lock: %w", err)
		}
		return nil
	}
	return release, nil
}

func newToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate lock token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
