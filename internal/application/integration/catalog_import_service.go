package integration

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/storebridge/backend/internal/domain/integration"
	"github.com/storebridge/backend/internal/infrastructure/logger"
	"github.com/storebridge/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const serviceSpanName = "catalog_import"

// Step labels for spans and metrics that are not run states
const (
	stepResolvePublication = "RESOLVE_PUBLICATION"
	stepCleanup            = "CLEANUP"
	stepShopInfo           = "SHOP_INFO"
)

// Publish skip reasons
const (
	SkipReasonAutoPublishDisabled = "auto publish disabled"
	SkipReasonPublishNotRequested = "publish not requested"
)

// ErrServiceClosed is returned for submissions after Close
var ErrServiceClosed = errors.New("integration: import service closed")

// CatalogImportService runs the fetch -> create -> variant -> publish workflow.
// Each step is attempted once, in order, with its own timeout.
type CatalogImportService struct {
	source   integration.ProductSource
	catalog  integration.CatalogPlatform
	resolver integration.PublicationResolver
	guard    integration.InFlightGuard
	runs     integration.RunStore
	config   WorkflowConfig
	logger   *zap.Logger

	importMetrics *telemetry.ImportMetrics
	newRunID      func() string

	mu          sync.RWMutex
	storeHandle string

	// lifecycleMu orders wg.Add against Close
	lifecycleMu sync.Mutex
	closed      bool
	wg          sync.WaitGroup
}

// NewCatalogImportService creates a CatalogImportService
func NewCatalogImportService(
	source integration.ProductSource,
	catalog integration.CatalogPlatform,
	resolver integration.PublicationResolver,
	guard integration.InFlightGuard,
	runs integration.RunStore,
	cfg WorkflowConfig,
	log *zap.Logger,
) (*CatalogImportService, error) {
	if source == nil || catalog == nil || resolver == nil || guard == nil || runs == nil {
		return nil, errors.New("integration: import service dependencies must not be nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &CatalogImportService{
		source:      source,
		catalog:     catalog,
		resolver:    resolver,
		guard:       guard,
		runs:        runs,
		config:      cfg,
		logger:      log,
		newRunID:    uuid.NewString,
		storeHandle: (&integration.ShopInfo{MyshopifyDomain: cfg.ShopDomain}).StoreHandle(),
	}, nil
}

// SetImportMetrics sets the metrics recorder (optional)
func (s *CatalogImportService) SetImportMetrics(m *telemetry.ImportMetrics) {
	s.importMetrics = m
}

// Config returns the workflow configuration
func (s *CatalogImportService) Config() WorkflowConfig {
	return s.config
}

// Import runs the workflow synchronously. A returned error means the run never
// started (bad input, duplicate in flight, guard unavailable); workflow failures
// are reported in the result.
func (s *CatalogImportService) Import(ctx context.Context, cmd ImportCommand) (*ImportResult, error) {
	if !s.track() {
		return nil, ErrServiceClosed
	}
	defer s.wg.Done()

	run, release, err := s.begin(ctx, cmd)
	if err != nil {
		return nil, err
	}
	defer release()

	s.execute(ctx, run, cmd)
	return newImportResult(run, s.adminURL(run.Product)), nil
}

// Submit starts the workflow on its own goroutine and returns the initial
// snapshot. Poll GetRun with the snapshot id for progress.
func (s *CatalogImportService) Submit(ctx context.Context, cmd ImportCommand) (*integration.RunSnapshot, error) {
	if !s.track() {
		return nil, ErrServiceClosed
	}

	run, release, err := s.begin(ctx, cmd)
	if err != nil {
		s.wg.Done()
		return nil, err
	}

	snapshot := s.snapshot(run)
	if err := s.runs.Save(ctx, snapshot); err != nil {
		release()
		s.wg.Done()
		return nil, fmt.Errorf("save import run: %w", err)
	}

	detached := context.WithoutCancel(ctx)
	go func() {
		defer s.wg.Done()
		defer release()
		s.execute(detached, run, cmd)
	}()

	return snapshot, nil
}

// GetRun returns the latest snapshot of a run
func (s *CatalogImportService) GetRun(ctx context.Context, runID string) (*integration.RunSnapshot, error) {
	if strings.TrimSpace(runID) == "" {
		return nil, integration.ErrRunNotFound
	}
	return s.runs.Get(ctx, runID)
}

// Close rejects new submissions and waits for running imports to finish
func (s *CatalogImportService) Close() error {
	s.lifecycleMu.Lock()
	s.closed = true
	s.lifecycleMu.Unlock()

	s.wg.Wait()
	return nil
}

// track registers a run with the wait group unless the service is closed.
// The caller must call wg.Done when track returns true.
func (s *CatalogImportService) track() bool {
	s.lifecycleMu.Lock()
	defer s.lifecycleMu.Unlock()
	if s.closed {
		return false
	}
	s.wg.Add(1)
	return true
}

// begin validates the command, creates the run and claims the in-flight key
func (s *CatalogImportService) begin(ctx context.Context, cmd ImportCommand) (*integration.ImportRun, func(), error) {
	ctx = s.withLogger(ctx)
	if err := cmd.Validate(); err != nil {
		return nil, nil, err
	}

	run, err := integration.NewImportRun(s.newRunID(), cmd.ProductToFetchID)
	if err != nil {
		return nil, nil, err
	}

	key := integration.InFlightKey(s.config.ShopDomain, cmd.ProductToFetchID)
	token, acquired, err := s.guard.Acquire(ctx, key, s.config.InFlightTTL)
	if err != nil {
		return nil, nil, fmt.Errorf("acquire in-flight guard: %w", err)
	}
	if !acquired {
		logger.L(ctx).Info("Import rejected, product already in flight",
			zap.Int64("product_to_fetch_id", cmd.ProductToFetchID),
		)
		return nil, nil, integration.ErrImportInFlight
	}

	release := func() {
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.config.StepTimeout)
		defer cancel()
		if err := s.guard.Release(rctx, key, token); err != nil {
			logger.L(ctx).Warn("Failed to release in-flight guard", zap.String("key", key), zap.Error(err))
		}
	}
	return run, release, nil
}

// execute drives a run to DONE or ERRORED
func (s *CatalogImportService) execute(ctx context.Context, run *integration.ImportRun, cmd ImportCommand) {
	ctx = logger.WithRunID(s.withLogger(ctx), run.ID)
	if s.config.ShopDomain != "" {
		ctx = logger.WithShopDomain(ctx, s.config.ShopDomain)
	}

	ctx, span := telemetry.StartServiceSpan(ctx, serviceSpanName, "import")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrRunID, run.ID,
		telemetry.SpanAttrProductToFetch, run.ProductToFetchID,
		telemetry.SpanAttrShopDomain, s.config.ShopDomain,
		telemetry.SpanAttrVariantMode, s.config.VariantMode.String(),
	)

	start := time.Now()
	if s.importMetrics != nil {
		s.importMetrics.RunStarted(ctx)
	}

	logger.L(ctx).Info("Catalog import started", zap.Int64("product_to_fetch_id", run.ProductToFetchID))

	if err := s.runSteps(ctx, run, cmd); err != nil {
		telemetry.RecordError(span, err)
		s.fail(ctx, run, err)
	} else {
		logger.L(ctx).Info("Catalog import finished",
			zap.String("product_id", run.Product.ID),
			zap.Bool("published", run.Published),
			zap.Bool("publish_skipped", run.PublishSkipped),
			zap.Duration("elapsed", time.Since(start)),
		)
	}

	telemetry.SetAttributes(span, telemetry.SpanAttrRunState, run.State.String())
	if s.importMetrics != nil {
		kind := ""
		if run.Err != nil {
			kind = integration.ClassifyError(run.Err).String()
		}
		s.importMetrics.RunFinished(ctx, run.State.String(), kind, time.Since(start))
	}
	s.persist(ctx, run)
}

func (s *CatalogImportService) runSteps(ctx context.Context, run *integration.ImportRun, cmd ImportCommand) error {
	if err := s.advance(ctx, run, run.StartFetching); err != nil {
		return err
	}

	external, err := runStep(ctx, s, run.State.String(), func(ctx context.Context) (*integration.ExternalProduct, error) {
		return s.source.FetchProduct(ctx, run.ProductToFetchID)
	})
	if err != nil {
		return err
	}
	if err := s.advance(ctx, run, func() error { return run.ProductFetched(external) }); err != nil {
		return err
	}

	status := s.config.InitialStatus
	if cmd.InitialStatus.IsValid() {
		status = cmd.InitialStatus
	}
	draft := integration.NewCatalogProductDraft(external, s.config.Vendor, status)
	created, err := runStep(ctx, s, run.State.String(), func(ctx context.Context) (*integration.CreatedProduct, error) {
		return s.catalog.CreateProduct(ctx, draft)
	})
	if err != nil {
		return err
	}
	if err := s.advance(ctx, run, func() error { return run.ProductCreated(created) }); err != nil {
		return err
	}
	telemetry.SetAttributes(trace.SpanFromContext(ctx), telemetry.SpanAttrProductID, created.ID)

	variants, err := s.applyVariants(ctx, run, external)
	if err != nil {
		return err
	}
	if err := run.VariantsApplied(variants); err != nil {
		return err
	}

	if err := s.publish(ctx, run, cmd); err != nil {
		return err
	}

	return s.advance(ctx, run, run.Complete)
}

// applyVariants puts the price on the product. UPDATE mode edits the default
// variant and falls back to CREATE when the catalog reported none.
func (s *CatalogImportService) applyVariants(
	ctx context.Context,
	run *integration.ImportRun,
	external *integration.ExternalProduct,
) ([]integration.CreatedVariant, error) {
	productID := run.Product.ID
	mode := s.config.VariantMode
	if mode == integration.VariantModeUpdate && run.Product.DefaultVariantID == "" {
		logger.L(ctx).Debug("No default variant reported, creating variant instead")
		mode = integration.VariantModeCreate
	}

	return runStep(ctx, s, run.State.String(), func(ctx context.Context) ([]integration.CreatedVariant, error) {
		if mode == integration.VariantModeUpdate {
			input := integration.NewVariantInput(external, run.Product.DefaultVariantID)
			return s.catalog.UpdateVariants(ctx, productID, []integration.VariantInput{input})
		}
		input := integration.NewVariantInput(external, "")
		return s.catalog.CreateVariants(ctx, productID, []integration.VariantInput{input})
	})
}

// publish publishes the product or records why it was skipped.
// A missing or unresolvable publication never fails the run.
func (s *CatalogImportService) publish(ctx context.Context, run *integration.ImportRun, cmd ImportCommand) error {
	switch {
	case !s.config.AutoPublish:
		return s.skipPublish(ctx, run, SkipReasonAutoPublishDisabled)
	case cmd.SkipPublish:
		return s.skipPublish(ctx, run, SkipReasonPublishNotRequested)
	}

	publicationID := integration.PublicationID(strings.TrimSpace(cmd.OnlineStorePublicationID))
	resolved := publicationID == ""
	if resolved {
		resolved, found, err := s.resolvePublication(ctx)
		switch {
		case err != nil:
			return s.skipPublish(ctx, run, fmt.Sprintf("publication lookup failed: %v", err))
		case !found:
			return s.skipPublish(ctx, run, fmt.Sprintf("publication %q not found", s.config.PublicationName))
		}
		publicationID = resolved
	}

	if err := s.advance(ctx, run, func() error { return run.StartPublishing(publicationID) }); err != nil {
		return err
	}
	_, err := runStep(ctx, s, run.State.String(), func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.catalog.Publish(ctx, run.Product.ID, publicationID)
	})
	if err != nil {
		var validationErr *integration.CatalogValidationError
		if resolved && errors.As(err, &validationErr) {
			// the cached channel id may be stale; look it up again next run
			s.resolver.Invalidate(s.config.PublicationName)
		}
		return err
	}
	return run.MarkPublished()
}

func (s *CatalogImportService) resolvePublication(ctx context.Context) (integration.PublicationID, bool, error) {
	type resolution struct {
		id    integration.PublicationID
		found bool
	}
	r, err := runStep(ctx, s, stepResolvePublication, func(ctx context.Context) (resolution, error) {
		id, found, err := s.resolver.ResolvePublicationID(ctx, s.config.PublicationName)
		return resolution{id: id, found: found}, err
	})
	return r.id, r.found, err
}

func (s *CatalogImportService) skipPublish(ctx context.Context, run *integration.ImportRun, reason string) error {
	if err := run.SkipPublish(reason); err != nil {
		return err
	}
	fields := []zap.Field{
		zap.String("reason", reason),
		zap.String("publication_name", s.config.PublicationName),
	}
	if s.config.SkipPublishPolicy == integration.SkipPolicyWarn {
		logger.L(ctx).Warn("Publish skipped", fields...)
	} else {
		logger.L(ctx).Debug("Publish skipped", fields...)
	}
	telemetry.AddEvent(trace.SpanFromContext(ctx), "publish_skipped", "reason", reason)
	if s.importMetrics != nil {
		s.importMetrics.RecordPublishSkipped(ctx, reason)
	}
	return nil
}

// fail moves the run to ERRORED and optionally deletes the orphaned product
func (s *CatalogImportService) fail(ctx context.Context, run *integration.ImportRun, err error) {
	if ferr := run.Fail(err); ferr != nil {
		logger.L(ctx).Error("Failed to mark run errored", zap.Error(ferr))
		return
	}

	fields := []zap.Field{
		zap.String("failed_step", run.FailedStep.String()),
		zap.String("error_kind", integration.ClassifyError(err).String()),
		zap.Error(err),
	}
	var validationErr *integration.CatalogValidationError
	if errors.As(err, &validationErr) {
		logger.L(ctx).Warn("Catalog import rejected by catalog", fields...)
	} else {
		logger.L(ctx).Error("Catalog import failed", fields...)
	}

	if !s.config.CleanupOnFailure || run.Product == nil {
		return
	}

	cleanupCtx := context.WithoutCancel(ctx)
	productID := run.Product.ID
	_, cerr := runStep(cleanupCtx, s, stepCleanup, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.catalog.DeleteProduct(ctx, productID)
	})
	if s.importMetrics != nil {
		s.importMetrics.RecordCleanup(cleanupCtx, cerr)
	}
	if cerr != nil {
		logger.L(ctx).Error("Failed to delete orphaned product", zap.String("product_id", productID), zap.Error(cerr))
		return
	}
	if merr := run.MarkCleanedUp(); merr != nil {
		logger.L(ctx).Error("Failed to record cleanup", zap.Error(merr))
		return
	}
	logger.L(ctx).Info("Deleted orphaned product", zap.String("product_id", productID))
}

// withLogger attaches the service logger unless the caller already put one in ctx
func (s *CatalogImportService) withLogger(ctx context.Context) context.Context {
	if _, ok := ctx.Value(logger.LoggerKey).(*zap.Logger); ok {
		return ctx
	}
	return logger.WithContext(ctx, s.logger)
}

// advance applies a transition and persists the new state
func (s *CatalogImportService) advance(ctx context.Context, run *integration.ImportRun, transition func() error) error {
	from := run.State
	if err := transition(); err != nil {
		return err
	}
	logger.L(ctx).Debug("Import run transition",
		zap.String("from", from.String()),
		zap.String("to", run.State.String()),
	)
	s.persist(ctx, run)
	return nil
}

// persist saves the run snapshot. Store failures are logged, never fatal to the run.
func (s *CatalogImportService) persist(ctx context.Context, run *integration.ImportRun) {
	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.config.StepTimeout)
	defer cancel()
	if err := s.runs.Save(sctx, s.snapshot(run)); err != nil {
		logger.L(ctx).Warn("Failed to save import run snapshot", zap.Error(err))
	}
}

func (s *CatalogImportService) snapshot(run *integration.ImportRun) *integration.RunSnapshot {
	snap := run.Snapshot()
	snap.AdminURL = s.adminURL(run.Product)
	return snap
}

func (s *CatalogImportService) adminURL(product *integration.CreatedProduct) string {
	if product == nil {
		return ""
	}
	s.mu.RLock()
	handle := s.storeHandle
	s.mu.RUnlock()
	return AdminProductURL(handle, product.ID)
}

func (s *CatalogImportService) setStoreHandle(handle string) {
	if handle == "" {
		return
	}
	s.mu.Lock()
	s.storeHandle = handle
	s.mu.Unlock()
}

// runStep executes one remote call under the step timeout with its own span and metric
func runStep[T any](ctx context.Context, s *CatalogImportService, step string, fn func(context.Context) (T, error)) (T, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, serviceSpanName, strings.ToLower(step),
		telemetry.WithSpanKind(trace.SpanKindClient),
	)
	defer span.End()

	stepCtx, cancel := context.WithTimeout(ctx, s.config.StepTimeout)
	defer cancel()

	start := time.Now()
	out, err := fn(stepCtx)
	elapsed := time.Since(start)

	if s.importMetrics != nil {
		s.importMetrics.RecordStep(ctx, step, elapsed, err)
	}
	if err != nil {
		telemetry.RecordError(span, err)
		logger.L(ctx).Debug("Import step failed", zap.String("step", step), zap.Duration("elapsed", elapsed), zap.Error(err))
		return out, err
	}
	logger.L(ctx).Debug("Import step finished", zap.String("step", step), zap.Duration("elapsed", elapsed))
	return out, nil
}
