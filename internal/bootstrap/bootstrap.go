// Package bootstrap builds the logger, telemetry providers and the catalog
// import service from configuration. Both the HTTP server and the CLI use it.
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	appintegration "github.com/storebridge/backend/internal/application/integration"
	"github.com/storebridge/backend/internal/infrastructure/cache"
	"github.com/storebridge/backend/internal/infrastructure/config"
	"github.com/storebridge/backend/internal/infrastructure/ecommerce"
	"github.com/storebridge/backend/internal/infrastructure/logger"
	"github.com/storebridge/backend/internal/infrastructure/telemetry"
)

// Telemetry holds the OpenTelemetry providers
type Telemetry struct {
	Tracer *telemetry.TracerProvider
	Meter  *telemetry.MeterProvider
	Logs   *telemetry.LoggerProvider
}

// NewLogger builds the base zap logger from the log section
func NewLogger(cfg *config.Config) (*zap.Logger, error) {
	return logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: logger.DefaultTimeFormat,
	})
}

// NewTelemetry starts the trace, metric and log providers. When the logs
// bridge is enabled the returned logger also forwards entries to it.
func NewTelemetry(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Telemetry, *zap.Logger, error) {
	tc := cfg.Telemetry

	tracer, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           tc.Enabled,
		CollectorEndpoint: tc.CollectorEndpoint,
		SamplingRatio:     tc.SamplingRatio,
		ServiceName:       tc.ServiceName,
		Insecure:          tc.Insecure,
	}, log)
	if err != nil {
		return nil, log, fmt.Errorf("tracer provider: %w", err)
	}

	meter, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           tc.Enabled && tc.MetricsEnabled,
		CollectorEndpoint: tc.CollectorEndpoint,
		ServiceName:       tc.ServiceName,
		Insecure:          tc.Insecure,
	}, log)
	if err != nil {
		_ = tracer.Shutdown(ctx)
		return nil, log, fmt.Errorf("meter provider: %w", err)
	}

	logs, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           tc.Enabled && tc.LogsEnabled,
		CollectorEndpoint: tc.CollectorEndpoint,
		ServiceName:       tc.ServiceName,
		Insecure:          tc.Insecure,
	}, log)
	if err != nil {
		_ = meter.Shutdown(ctx)
		_ = tracer.Shutdown(ctx)
		return nil, log, fmt.Errorf("logger provider: %w", err)
	}

	if logs.IsEnabled() {
		log = logger.Tee(log, telemetry.NewZapOTELCore(telemetry.ZapBridgeConfig{
			ServiceName:    tc.ServiceName,
			LoggerProvider: logs,
			Level:          logger.ParseLevel(tc.LogLevel),
		}))
	}

	return &Telemetry{Tracer: tracer, Meter: meter, Logs: logs}, log, nil
}

// Shutdown flushes and stops every provider
func (t *Telemetry) Shutdown(ctx context.Context) error {
	return errors.Join(
		t.Logs.Shutdown(ctx),
		t.Meter.Shutdown(ctx),
		t.Tracer.Shutdown(ctx),
	)
}

// Importer is the wired catalog import service with the stores it owns
type Importer struct {
	Service *appintegration.CatalogImportService
	Stores  *cache.Stores
}

// Close waits for background runs and then releases the stores
func (i *Importer) Close() error {
	return errors.Join(i.Service.Close(), i.Stores.Close())
}

// NewImporter wires the Fake Store source, the Shopify client, the stores
// and the import service
func NewImporter(cfg *config.Config, log *zap.Logger, tel *Telemetry) (*Importer, error) {
	fakeStoreConfig := ecommerce.NewFakeStoreConfig()
	fakeStoreConfig.BaseURL = cfg.FakeStore.BaseURL
	fakeStoreConfig.Timeout = cfg.FakeStore.Timeout
	fakeStoreConfig.MinID = cfg.FakeStore.MinID
	fakeStoreConfig.MaxID = cfg.FakeStore.MaxID

	source, err := ecommerce.NewFakeStoreSource(fakeStoreConfig, ecommerce.WithFakeStoreLogger(log))
	if err != nil {
		return nil, fmt.Errorf("fake store source: %w", err)
	}

	shopifyConfig := ecommerce.NewShopifyConfig(cfg.Shopify.ShopDomain, cfg.Shopify.AccessToken)
	if cfg.Shopify.APIVersion != "" {
		shopifyConfig.APIVersion = cfg.Shopify.APIVersion
	}
	if cfg.Shopify.Timeout > 0 {
		shopifyConfig.Timeout = cfg.Shopify.Timeout
	}

	catalog, err := ecommerce.NewShopifyAdminClient(shopifyConfig, ecommerce.WithShopifyLogger(log))
	if err != nil {
		return nil, fmt.Errorf("shopify client: %w", err)
	}

	resolver := ecommerce.NewPublicationResolver(catalog, cfg.Import.PublicationPageSize, log)

	stores, err := cache.NewStoreFactory(
		cfg.Redis,
		cache.Backend(cfg.Import.GuardBackend),
		cache.WithLogger(log),
		cache.WithRunRetention(cfg.Import.RunRetention),
	).CreateStores()
	if err != nil {
		return nil, fmt.Errorf("import stores: %w", err)
	}

	service, err := appintegration.NewCatalogImportService(
		source,
		catalog,
		resolver,
		stores.Guard,
		stores.Runs,
		appintegration.NewWorkflowConfig(cfg.Import, catalog.ShopDomain()),
		log,
	)
	if err != nil {
		_ = stores.Close()
		return nil, fmt.Errorf("catalog import service: %w", err)
	}

	if tel != nil && tel.Meter.IsEnabled() {
		importMetrics, err := telemetry.NewImportMetrics(tel.Meter.Meter("storebridge.import"), log)
		if err != nil {
			log.Warn("Import metrics disabled", zap.Error(err))
		} else {
			service.SetImportMetrics(importMetrics)
		}
	}

	log.Info("Catalog import service ready",
		zap.String("shop_domain", catalog.ShopDomain()),
		zap.Bool("redis_stores", stores.UsesRedis()),
	)

	return &Importer{Service: service, Stores: stores}, nil
}
