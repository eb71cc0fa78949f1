package ecommerce

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/storebridge/backend/internal/domain/integration"
)

// DefaultPublicationPageSize is the number of publications fetched per lookup
const DefaultPublicationPageSize = 5

// PublicationLister is the subset of the catalog the resolver needs
type PublicationLister interface {
	ListPublications(ctx context.Context, first int) ([]integration.Publication, error)
}

// PublicationResolver resolves sales channel ids by exact name.
// Hits are cached for the resolver's lifetime; misses are not.
type PublicationResolver struct {
	lister   PublicationLister
	pageSize int
	logger   *zap.Logger

	mu    sync.RWMutex
	cache map[string]integration.PublicationID
}

// NewPublicationResolver creates a resolver. pageSize <= 0 uses DefaultPublicationPageSize.
func NewPublicationResolver(lister PublicationLister, pageSize int, logger *zap.Logger) *PublicationResolver {
	if pageSize <= 0 {
		pageSize = DefaultPublicationPageSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PublicationResolver{
		lister:   lister,
		pageSize: pageSize,
		logger:   logger,
		cache:    make(map[string]integration.PublicationID),
	}
}

// ResolvePublicationID returns the id of the channel named exactly channelName
func (r *PublicationResolver) ResolvePublicationID(ctx context.Context, channelName string) (integration.PublicationID, bool, error) {
	r.mu.RLock()
	id, ok := r.cache[channelName]
	r.mu.RUnlock()
	if ok {
		return id, true, nil
	}

	publications, err := r.lister.ListPublications(ctx, r.pageSize)
	if err != nil {
		return "", false, err
	}
	for _, p := range publications {
		if p.Name == channelName {
			r.mu.Lock()
			r.cache[channelName] = p.ID
			r.mu.Unlock()
			return p.ID, true, nil
		}
	}

	r.logger.Debug("publication not found",
		zap.String("channel", channelName),
		zap.Int("page_size", r.pageSize),
		zap.Int("candidates", len(publications)))
	return "", false, nil
}

// Invalidate drops the cached id for a channel
func (r *PublicationResolver) Invalidate(channelName string) {
	r.mu.Lock()
	delete(r.cache, channelName)
	r.mu.Unlock()
}

// Ensure PublicationResolver implements the domain port
var _ integration.PublicationResolver = (*PublicationResolver)(nil)
