package telemetry

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// ErrMeterNil is returned when a metrics recorder is built without a meter.
var ErrMeterNil = errors.New("telemetry: meter cannot be nil")

// Outcome labels for step and run metrics.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// ImportMetrics records catalog import runs.
type ImportMetrics struct {
	logger *zap.Logger

	runsTotal      *Counter
	runsInFlight   *UpDownCounter
	runDuration    *Histogram
	stepDuration   *Histogram
	publishSkipped *Counter
	cleanupsTotal  *Counter
}

// NewImportMetrics registers the import instruments on meter.
func NewImportMetrics(meter metric.Meter, logger *zap.Logger) (*ImportMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	im := &ImportMetrics{logger: logger}
	var err error

	if im.runsTotal, err = NewCounter(meter,
		"storebridge_import_runs_total",
		"Import runs by terminal state",
		"{runs}",
	); err != nil {
		return nil, err
	}

	if im.runsInFlight, err = NewUpDownCounter(meter,
		"storebridge_import_runs_in_flight",
		"Import runs currently executing",
		"{runs}",
	); err != nil {
		return nil, err
	}

	if im.runDuration, err = NewHistogram(meter, HistogramOpts{
		Name:        "storebridge_import_run_duration_seconds",
		Description: "Wall time of a whole import run",
		Unit:        "s",
		Boundaries:  StepDurationBuckets,
	}); err != nil {
		return nil, err
	}

	if im.stepDuration, err = NewHistogram(meter, HistogramOpts{
		Name:        "storebridge_import_step_duration_seconds",
		Description: "Wall time of each remote workflow step",
		Unit:        "s",
		Boundaries:  StepDurationBuckets,
	}); err != nil {
		return nil, err
	}

	if im.publishSkipped, err = NewCounter(meter,
		"storebridge_import_publish_skipped_total",
		"Runs that finished without publishing",
		"{runs}",
	); err != nil {
		return nil, err
	}

	if im.cleanupsTotal, err = NewCounter(meter,
		"storebridge_import_cleanups_total",
		"Compensating product deletions after a failed run",
		"{products}",
	); err != nil {
		return nil, err
	}

	return im, nil
}

// RunStarted marks a run as executing.
func (im *ImportMetrics) RunStarted(ctx context.Context) {
	im.runsInFlight.Add(ctx, 1)
}

// RunFinished records the terminal state and duration of a run.
// errorKind is empty for successful runs.
func (im *ImportMetrics) RunFinished(ctx context.Context, state, errorKind string, d time.Duration) {
	im.runsInFlight.Add(ctx, -1)
	attrs := []attribute.KeyValue{AttrRunState.String(state)}
	if errorKind != "" {
		attrs = append(attrs, AttrErrorKind.String(errorKind))
	}
	im.runsTotal.Inc(ctx, attrs...)
	im.runDuration.RecordDuration(ctx, d, AttrRunState.String(state))
}

// RecordStep records the duration of one workflow step.
func (im *ImportMetrics) RecordStep(ctx context.Context, step string, d time.Duration, err error) {
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
	}
	im.stepDuration.RecordDuration(ctx, d, AttrStep.String(step), AttrOutcome.String(outcome))
}

// RecordPublishSkipped counts a run that completed without publishing.
func (im *ImportMetrics) RecordPublishSkipped(ctx context.Context, reason string) {
	im.publishSkipped.Inc(ctx, AttrReason.String(reason))
}

// RecordCleanup counts a compensating delete and whether it succeeded.
func (im *ImportMetrics) RecordCleanup(ctx context.Context, err error) {
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
		im.logger.Debug("cleanup failure recorded", zap.Error(err))
	}
	im.cleanupsTotal.Inc(ctx, AttrOutcome.String(outcome))
}
