package integration

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/storebridge/backend/internal/domain/integration"
	"github.com/storebridge/backend/internal/infrastructure/config"
)

// ErrInvalidWorkflowConfig is returned when a WorkflowConfig fails validation
var ErrInvalidWorkflowConfig = errors.New("integration: invalid workflow config")

var workflowValidator = validator.New(validator.WithRequiredStructEnabled())

// maxTimedCallsPerRun counts the calls one run can make under StepTimeout:
// five remote steps plus cleanup, and up to six snapshot saves.
const maxTimedCallsPerRun = 12

// WorkflowConfig drives a single import workflow. Every variant of the
// import (draft or active, create or update variant, publish or not) is a
// setting here rather than a separate code path.
type WorkflowConfig struct {
	ShopDomain        string
	AutoPublish       bool
	InitialStatus     integration.ProductStatus `validate:"required,oneof=DRAFT ACTIVE"`
	VariantMode       integration.VariantMode   `validate:"required,oneof=CREATE UPDATE"`
	Vendor            string                    `validate:"required"`
	PublicationName   string                    `validate:"required"`
	SkipPublishPolicy integration.SkipPolicy    `validate:"required,oneof=SILENT WARN"`
	CleanupOnFailure  bool
	StepTimeout       time.Duration `validate:"gt=0"`
	InFlightTTL       time.Duration `validate:"gt=0"`
}

// DefaultWorkflowConfig returns the stock workflow: draft product, created variant,
// publish to "Online Store" when that channel exists.
func DefaultWorkflowConfig() WorkflowConfig {
	return WorkflowConfig{
		AutoPublish:       true,
		InitialStatus:     integration.ProductStatusDraft,
		VariantMode:       integration.VariantModeCreate,
		Vendor:            integration.DefaultVendor,
		PublicationName:   "Online Store",
		SkipPublishPolicy: integration.SkipPolicyWarn,
		StepTimeout:       20 * time.Second,
		InFlightTTL:       5 * time.Minute,
	}
}

// NewWorkflowConfig builds a WorkflowConfig from the import section of the app config.
// Zero values fall back to DefaultWorkflowConfig.
func NewWorkflowConfig(cfg config.ImportConfig, shopDomain string) WorkflowConfig {
	wc := DefaultWorkflowConfig()
	wc.ShopDomain = shopDomain
	wc.AutoPublish = cfg.AutoPublish
	wc.CleanupOnFailure = cfg.CleanupOnFailure
	if cfg.InitialStatus != "" {
		wc.InitialStatus = integration.ProductStatus(strings.ToUpper(cfg.InitialStatus))
	}
	if cfg.VariantMode != "" {
		wc.VariantMode = integration.VariantMode(strings.ToUpper(cfg.VariantMode))
	}
	if cfg.Vendor != "" {
		wc.Vendor = cfg.Vendor
	}
	if cfg.PublicationName != "" {
		wc.PublicationName = cfg.PublicationName
	}
	if cfg.SkipPublishPolicy != "" {
		wc.SkipPublishPolicy = integration.SkipPolicy(strings.ToUpper(cfg.SkipPublishPolicy))
	}
	if cfg.StepTimeout > 0 {
		wc.StepTimeout = cfg.StepTimeout
	}
	if cfg.InFlightTTL > 0 {
		wc.InFlightTTL = cfg.InFlightTTL
	}
	return wc
}

// MaxRunDuration is the longest a run can hold its in-flight key
func (c WorkflowConfig) MaxRunDuration() time.Duration {
	return c.StepTimeout * maxTimedCallsPerRun
}

// Validate checks enum values and timeouts. The in-flight TTL must outlast the
// slowest possible run, or a second run could start while the first is still live.
func (c WorkflowConfig) Validate() error {
	if err := workflowValidator.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s(%s)", fe.Field(), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", ErrInvalidWorkflowConfig, strings.Join(fields, ", "))
		}
		return fmt.Errorf("%w: %v", ErrInvalidWorkflowConfig, err)
	}
	if c.InFlightTTL < c.MaxRunDuration() {
		return fmt.Errorf("%w: InFlightTTL(%s) is shorter than the longest run (%s)",
			ErrInvalidWorkflowConfig, c.InFlightTTL, c.MaxRunDuration())
	}
	return nil
}
