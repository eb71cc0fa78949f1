package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/storebridge/backend/internal/domain/integration"
	"github.com/storebridge/backend/internal/infrastructure/config"
)

// Backend selects where in-flight keys and run snapshots live
type Backend string

const (
	BackendMemory Backend = "memory"
	BackendRedis  Backend = "redis"
	// BackendAuto uses Redis when reachable and falls back to memory
	BackendAuto Backend = "auto"
)

// Stores bundles the import guard and run store built by the factory
type Stores struct {
	Guard integration.InFlightGuard
	Runs  integration.RunStore

	client redis.UniversalClient
}

// Close releases the stores and the shared Redis client, if any
func (s *Stores) Close() error {
	_ = s.Guard.Close()
	_ = s.Runs.Close()
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

// UsesRedis reports whether the stores are Redis-backed
func (s *Stores) UsesRedis() bool {
	return s.client != nil
}

// StoreFactory creates import stores based on configuration
type StoreFactory struct {
	redisConfig  config.RedisConfig
	backend      Backend
	runRetention time.Duration
	logger       *zap.Logger
}

// StoreFactoryOption is a functional option for configuring the factory
type StoreFactoryOption func(*StoreFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) StoreFactoryOption {
	return func(f *StoreFactory) {
		f.logger = logger
	}
}

// WithRunRetention sets how long run snapshots are kept
func WithRunRetention(d time.Duration) StoreFactoryOption {
	return func(f *StoreFactory) {
		f.runRetention = d
	}
}

// NewStoreFactory creates a new factory
func NewStoreFactory(cfg config.RedisConfig, backend Backend, opts ...StoreFactoryOption) *StoreFactory {
	f := &StoreFactory{
		redisConfig:  cfg,
		backend:      backend,
		runRetention: time.Hour,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// NewRedisClient creates a Redis client and verifies the connection
func NewRedisClient(cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// CreateInMemoryStores creates process-local stores.
// WARNING: In-memory stores do not share state across process instances,
// so duplicate imports are only suppressed per instance
func (f *StoreFactory) CreateInMemoryStores() *Stores {
	return &Stores{
		Guard: NewInMemoryInFlightGuard(),
		Runs:  NewInMemoryRunStore(f.runRetention),
	}
}

// CreateRedisStores creates Redis-backed stores sharing one client
func (f *StoreFactory) CreateRedisStores() (*Stores, error) {
	client, err := NewRedisClient(f.redisConfig)
	if err != nil {
		return nil, err
	}
	return &Stores{
		Guard:  NewRedisInFlightGuard(client, ""),
		Runs:   NewRedisRunStore(client, "", f.runRetention),
		client: client,
	}, nil
}

// CreateStores creates stores for the configured backend
func (f *StoreFactory) CreateStores() (*Stores, error) {
	switch f.backend {
	case BackendMemory:
		f.logger.Info("using in-memory import stores")
		return f.CreateInMemoryStores(), nil
	case BackendRedis:
		stores, err := f.CreateRedisStores()
		if err != nil {
			return nil, fmt.Errorf("Redis required for import stores but unavailable: %w", err)
		}
		f.logger.Info("using Redis import stores")
		return stores, nil
	case BackendAuto, "":
		stores, err := f.CreateRedisStores()
		if err == nil {
			f.logger.Info("using Redis import stores")
			return stores, nil
		}
		f.logger.Warn("Redis unavailable, falling back to in-memory import stores. "+
			"Duplicate imports are only suppressed per instance.",
			zap.Error(err),
		)
		return f.CreateInMemoryStores(), nil
	default:
		return nil, fmt.Errorf("unknown import store backend %q", f.backend)
	}
}
