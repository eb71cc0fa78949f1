package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/storebridge/backend/internal/domain/integration"
)

const defaultInFlightKeyPrefix = "storebridge:inflight:"

// releaseScript deletes the key only while it still holds the caller's token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisInFlightGuard implements InFlightGuard using Redis.
// This is suitable for distributed deployments where multiple instances
// must not import the same product concurrently
type RedisInFlightGuard struct {
	client    redis.UniversalClient
	keyPrefix string
}

// NewRedisInFlightGuard creates a guard with an existing Redis client
func NewRedisInFlightGuard(client redis.UniversalClient, keyPrefix string) *RedisInFlightGuard {
	if keyPrefix == "" {
		keyPrefix = defaultInFlightKeyPrefix
	}
	return &RedisInFlightGuard{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// Acquire claims the key with SET NX and a TTL. The stored value is the lease token
func (g *RedisInFlightGuard) Acquire(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	token := uuid.NewString()
	ok, err := g.client.SetNX(ctx, g.keyPrefix+key, token, ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("failed to acquire in-flight key: %w", err)
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

// Release deletes the key if token still owns it
func (g *RedisInFlightGuard) Release(ctx context.Context, key, token string) error {
	if token == "" {
		return nil
	}
	if err := releaseScript.Run(ctx, g.client, []string{g.keyPrefix + key}, token).Err(); err != nil {
		return fmt.Errorf("failed to release in-flight key: %w", err)
	}
	return nil
}

// Close is a no-op; the shared client is closed by its owner
func (g *RedisInFlightGuard) Close() error {
	return nil
}

// Ensure RedisInFlightGuard implements InFlightGuard
var _ integration.InFlightGuard = (*RedisInFlightGuard)(nil)
