package cache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/storebridge/backend/internal/domain/integration"
)

// entry represents a held key with its lease token and expiration
type entry struct {
	token     string
	expiresAt time.Time
}

// InMemoryInFlightGuard implements InFlightGuard using an in-memory map.
// This is suitable for single-instance deployments and testing
type InMemoryInFlightGuard struct {
	mu        sync.Mutex
	entries   map[string]entry
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryInFlightGuard creates a new in-memory guard.
// It starts a background goroutine to clean up expired keys
func NewInMemoryInFlightGuard() *InMemoryInFlightGuard {
	g := &InMemoryInFlightGuard{
		entries:  make(map[string]entry),
		stopChan: make(chan struct{}),
	}

	g.wg.Add(1)
	go g.cleanupLoop()

	return g
}

// Acquire claims the key for ttl and returns a fresh lease token.
// Returns false if the key is already held and not expired
func (g *InMemoryInFlightGuard) Acquire(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if e, exists := g.entries[key]; exists && time.Now().Before(e.expiresAt) {
		return "", false, nil
	}

	token := uuid.NewString()
	g.entries[key] = entry{token: token, expiresAt: time.Now().Add(ttl)}
	return token, true, nil
}

// Release frees the key if token still owns it.
// Releasing an unknown key or a stale lease is a no-op
func (g *InMemoryInFlightGuard) Release(ctx context.Context, key, token string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if e, exists := g.entries[key]; exists && e.token == token {
		delete(g.entries, key)
	}
	return nil
}

// Close stops the cleanup goroutine.
// Safe to call multiple times
func (g *InMemoryInFlightGuard) Close() error {
	g.closeOnce.Do(func() {
		close(g.stopChan)
		g.wg.Wait()
	})
	return nil
}

func (g *InMemoryInFlightGuard) cleanupLoop() {
	defer g.wg.Done()

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-g.stopChan:
			return
		case <-ticker.C:
			g.cleanup()
		}
	}
}

func (g *InMemoryInFlightGuard) cleanup() {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := time.Now()
	for key, e := range g.entries {
		if now.After(e.expiresAt) {
			delete(g.entries, key)
		}
	}
}

// Size returns the number of held keys (for testing/monitoring)
func (g *InMemoryInFlightGuard) Size() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.entries)
}

// Ensure InMemoryInFlightGuard implements InFlightGuard
var _ integration.InFlightGuard = (*InMemoryInFlightGuard)(nil)
