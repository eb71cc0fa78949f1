package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/storebridge/backend/internal/domain/integration"
)

const defaultRunKeyPrefix = "storebridge:run:"

// RedisRunStore keeps run snapshots as JSON values with a TTL
type RedisRunStore struct {
	client    redis.UniversalClient
	keyPrefix string
	retention time.Duration
}

// NewRedisRunStore creates a run store with an existing Redis client
func NewRedisRunStore(client redis.UniversalClient, keyPrefix string, retention time.Duration) *RedisRunStore {
	if keyPrefix == "" {
		keyPrefix = defaultRunKeyPrefix
	}
	if retention <= 0 {
		retention = time.Hour
	}
	return &RedisRunStore{
		client:    client,
		keyPrefix: keyPrefix,
		retention: retention,
	}
}

// Save stores the snapshot and refreshes its TTL
func (s *RedisRunStore) Save(ctx context.Context, snapshot *integration.RunSnapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to encode run snapshot: %w", err)
	}
	if err := s.client.Set(ctx, s.keyPrefix+snapshot.ID, data, s.retention).Err(); err != nil {
		return fmt.Errorf("failed to save run snapshot: %w", err)
	}
	return nil
}

// Get returns the snapshot or ErrRunNotFound
func (s *RedisRunStore) Get(ctx context.Context, runID string) (*integration.RunSnapshot, error) {
	data, err := s.client.Get(ctx, s.keyPrefix+runID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, integration.ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load run snapshot: %w", err)
	}

	var snapshot integration.RunSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to decode run snapshot: %w", err)
	}
	return &snapshot, nil
}

// Close is a no-op; the shared client is closed by its owner
func (s *RedisRunStore) Close() error {
	return nil
}

// Ensure RedisRunStore implements RunStore
var _ integration.RunStore = (*RedisRunStore)(nil)
