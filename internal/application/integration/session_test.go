package integration

import (
	"context"
	"testing"

	"github.com/storebridge/backend/internal/domain/integration"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestAdminProductURL(t *testing.T) {
	tests := []struct {
		name    string
		handle  string
		gid     string
		wantURL string
	}{
		{"global id", "acme", "gid://shopify/Product/8123456789", "https://admin.shopify.com/store/acme/products/8123456789"},
		{"missing handle", "", "gid://shopify/Product/1", ""},
		{"missing id", "acme", "", ""},
		{"trailing slash", "acme", "gid://shopify/Product/", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantURL, AdminProductURL(tt.handle, tt.gid))
		})
	}
}

func TestLoadSession(t *testing.T) {
	f := newServiceFixture(t, nil)
	f.catalog.On("ShopInfo", mock.Anything).Return(&integration.ShopInfo{
		Name:             "Acme Outfitters",
		MyshopifyDomain:  "acme-outfitters.myshopify.com",
		PrimaryDomainURL: "https://shop.acme.example",
	}, nil)
	f.resolver.On("ResolvePublicationID", mock.Anything, "Online Store").Return(testPublicationID, true, nil)

	info, err := f.service.LoadSession(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "Acme Outfitters", info.ShopName)
	assert.Equal(t, "acme-outfitters.myshopify.com", info.ShopDomain)
	assert.Equal(t, "https://shop.acme.example", info.PrimaryDomainURL)
	assert.Equal(t, "acme-outfitters", info.StoreHandle)
	assert.Equal(t, "Online Store", info.PublicationName)
	assert.Equal(t, testPublicationID, info.OnlineStorePublicationID)

	// later admin links use the handle reported by the store
	assert.Equal(t,
		"https://admin.shopify.com/store/acme-outfitters/products/1001",
		f.service.adminURL(&integration.CreatedProduct{ID: testProductGID}),
	)
}

func TestLoadSession_PublicationMissingIsNotAnError(t *testing.T) {
	f := newServiceFixture(t, nil)
	f.catalog.On("ShopInfo", mock.Anything).Return(&integration.ShopInfo{Name: "Acme", MyshopifyDomain: testShopDomain}, nil)
	f.resolver.On("ResolvePublicationID", mock.Anything, "Online Store").
		Return(integration.PublicationID(""), false, &integration.TransportError{Operation: "publications"})

	info, err := f.service.LoadSession(context.Background())
	require.NoError(t, err)
	assert.Empty(t, info.OnlineStorePublicationID)
	assert.Equal(t, "acme", info.StoreHandle)
}

func TestLoadSession_ShopInfoFailure(t *testing.T) {
	f := newServiceFixture(t, nil)
	f.catalog.On("ShopInfo", mock.Anything).Return(nil, &integration.TransportError{Operation: "shop", StatusCode: 401})

	info, err := f.service.LoadSession(context.Background())
	assert.Nil(t, info)

	var transportErr *integration.TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Equal(t, 401, transportErr.StatusCode)
	assert.Empty(t, f.resolver.Calls)
}
