package cache

import (
	"context"
	"sync"
	"time"

	"github.com/storebridge/backend/internal/domain/integration"
)

type runEntry struct {
	snapshot  integration.RunSnapshot
	expiresAt time.Time
}

// InMemoryRunStore keeps run snapshots in memory for a retention window
type InMemoryRunStore struct {
	mu        sync.RWMutex
	runs      map[string]runEntry
	retention time.Duration
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryRunStore creates a new in-memory run store.
// Snapshots expire retention after their last save
func NewInMemoryRunStore(retention time.Duration) *InMemoryRunStore {
	if retention <= 0 {
		retention = time.Hour
	}
	s := &InMemoryRunStore{
		runs:      make(map[string]runEntry),
		retention: retention,
		stopChan:  make(chan struct{}),
	}

	s.wg.Add(1)
	go s.cleanupLoop()

	return s
}

// Save stores a copy of the snapshot
func (s *InMemoryRunStore) Save(ctx context.Context, snapshot *integration.RunSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	select {
	case <-s.stopChan:
		return integration.ErrStoreClosed
	default:
	}

	s.runs[snapshot.ID] = runEntry{
		snapshot:  *snapshot,
		expiresAt: time.Now().Add(s.retention),
	}
	return nil
}

// Get returns a copy of the snapshot or ErrRunNotFound
func (s *InMemoryRunStore) Get(ctx context.Context, runID string) (*integration.RunSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.runs[runID]
	if !ok || time.Now().After(e.expiresAt) {
		return nil, integration.ErrRunNotFound
	}
	snapshot := e.snapshot
	return &snapshot, nil
}

// Close stops the cleanup goroutine.
// Safe to call multiple times
func (s *InMemoryRunStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopChan)
		s.wg.Wait()
	})
	return nil
}

func (s *InMemoryRunStore) cleanupLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.cleanup()
		}
	}
}

func (s *InMemoryRunStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for id, e := range s.runs {
		if now.After(e.expiresAt) {
			delete(s.runs, id)
		}
	}
}

// Size returns the number of stored runs (for testing/monitoring)
func (s *InMemoryRunStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.runs)
}

// Ensure InMemoryRunStore implements RunStore
var _ integration.RunStore = (*InMemoryRunStore)(nil)
