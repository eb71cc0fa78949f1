package integration

import (
	"context"
	"fmt"

	"github.com/storebridge/backend/internal/domain/integration"
	"github.com/storebridge/backend/internal/infrastructure/logger"
	"github.com/storebridge/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// AdminProductURL returns the admin "View product" link, or "" when either part is unknown.
func AdminProductURL(storeHandle, productGID string) string {
	numericID := (&integration.CreatedProduct{ID: productGID}).NumericID()
	if storeHandle == "" || numericID == "" {
		return ""
	}
	return fmt.Sprintf("https://admin.shopify.com/store/%s/products/%s", storeHandle, numericID)
}

// LoadSession describes the store and resolves the configured sales channel.
// A publication that cannot be resolved leaves OnlineStorePublicationID empty.
func (s *CatalogImportService) LoadSession(ctx context.Context) (*SessionInfo, error) {
	ctx = s.withLogger(ctx)
	ctx, span := telemetry.StartServiceSpan(ctx, serviceSpanName, "load_session")
	defer span.End()

	shop, err := runStep(ctx, s, stepShopInfo, s.catalog.ShopInfo)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	handle := shop.StoreHandle()
	s.setStoreHandle(handle)

	info := &SessionInfo{
		ShopName:         shop.Name,
		ShopDomain:       shop.MyshopifyDomain,
		PrimaryDomainURL: shop.PrimaryDomainURL,
		StoreHandle:      handle,
		PublicationName:  s.config.PublicationName,
	}

	publicationID, found, err := s.resolvePublication(ctx)
	switch {
	case err != nil:
		logger.L(ctx).Warn("Failed to resolve publication for session",
			zap.String("publication_name", s.config.PublicationName),
			zap.Error(err),
		)
	case found:
		info.OnlineStorePublicationID = publicationID
	default:
		logger.L(ctx).Debug("Publication not found for session",
			zap.String("publication_name", s.config.PublicationName),
		)
	}

	return info, nil
}
