package ecommerce

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/storebridge/backend/internal/domain/integration"
)

type mockPublicationLister struct {
	mock.Mock
}

func (m *mockPublicationLister) ListPublications(ctx context.Context, first int) ([]integration.Publication, error) {
	args := m.Called(ctx, first)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]integration.Publication), args.Error(1)
}

func TestPublicationResolver_ResolvePublicationID(t *testing.T) {
	ctx := context.Background()
	pubs := []integration.Publication{
		{ID: "gid://shopify/Publication/1", Name: "Point of Sale"},
		{ID: "gid://shopify/Publication/2", Name: "Online Store"},
	}

	t.Run("exact match is cached", func(t *testing.T) {
		lister := new(mockPublicationLister)
		lister.On("ListPublications", ctx, 5).Return(pubs, nil).Once()
		resolver := NewPublicationResolver(lister, 0, nil)

		id, ok, err := resolver.ResolvePublicationID(ctx, "Online Store")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, integration.PublicationID("gid://shopify/Publication/2"), id)

		id, ok, err = resolver.ResolvePublicationID(ctx, "Online Store")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, integration.PublicationID("gid://shopify/Publication/2"), id)
		lister.AssertNumberOfCalls(t, "ListPublications", 1)
	})

	t.Run("match is case sensitive and misses are not cached", func(t *testing.T) {
		lister := new(mockPublicationLister)
		lister.On("ListPublications", ctx, 5).Return(pubs, nil)
		resolver := NewPublicationResolver(lister, 5, nil)

		id, ok, err := resolver.ResolvePublicationID(ctx, "online store")
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Empty(t, id)

		_, _, _ = resolver.ResolvePublicationID(ctx, "online store")
		lister.AssertNumberOfCalls(t, "ListPublications", 2)
	})

	t.Run("custom page size", func(t *testing.T) {
		lister := new(mockPublicationLister)
		lister.On("ListPublications", ctx, 25).Return(pubs, nil)
		resolver := NewPublicationResolver(lister, 25, nil)

		_, ok, err := resolver.ResolvePublicationID(ctx, "Point of Sale")
		require.NoError(t, err)
		assert.True(t, ok)
		lister.AssertExpectations(t)
	})

	t.Run("lister error is returned", func(t *testing.T) {
		lister := new(mockPublicationLister)
		transportErr := &integration.TransportError{Operation: "publications"}
		lister.On("ListPublications", ctx, 5).Return(nil, transportErr)
		resolver := NewPublicationResolver(lister, 5, nil)

		_, ok, err := resolver.ResolvePublicationID(ctx, "Online Store")
		assert.False(t, ok)
		var te *integration.TransportError
		assert.True(t, errors.As(err, &te))
	})

	t.Run("invalidate forces a new lookup", func(t *testing.T) {
		lister := new(mockPublicationLister)
		lister.On("ListPublications", ctx, 5).Return(pubs, nil)
		resolver := NewPublicationResolver(lister, 5, nil)

		_, _, _ = resolver.ResolvePublicationID(ctx, "Online Store")
		resolver.Invalidate("Online Store")
		_, _, _ = resolver.ResolvePublicationID(ctx, "Online Store")
		lister.AssertNumberOfCalls(t, "ListPublications", 2)
	})
}
