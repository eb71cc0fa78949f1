package integration

import (
	"github.com/go-playground/validator/v10"
	"github.com/storebridge/backend/internal/domain/integration"
)

var commandValidator = validator.New()

// ImportCommand asks for one product to be imported
type ImportCommand struct {
	ProductToFetchID int64 `json:"productToFetchId" validate:"gt=0"`
	// OnlineStorePublicationID skips publication lookup when set
	OnlineStorePublicationID string `json:"onlineStorePublicationId,omitempty"`
	// InitialStatus overrides the configured product status when set
	InitialStatus integration.ProductStatus `json:"status,omitempty" validate:"omitempty,oneof=DRAFT ACTIVE"`
	// SkipPublish disables publishing for this run only
	SkipPublish bool `json:"skipPublish,omitempty"`
}

// Validate returns ErrInvalidProductID for a non-positive id
func (c ImportCommand) Validate() error {
	if c.ProductToFetchID <= 0 {
		return integration.ErrInvalidProductID
	}
	return commandValidator.Struct(c)
}

// PublicationResult reports where the product was published
type PublicationResult struct {
	ID        integration.PublicationID `json:"id"`
	Published bool                      `json:"published"`
}

// ImportResult is the outcome of a synchronous run. A failed run is still a
// result: State is ERRORED and Error carries the typed failure.
type ImportResult struct {
	RunID             string                      `json:"runId"`
	State             integration.RunState        `json:"state"`
	Product           *integration.CreatedProduct `json:"product,omitempty"`
	Variant           *integration.CreatedVariant `json:"variant,omitempty"`
	Publication       *PublicationResult          `json:"publication,omitempty"`
	PublishSkipped    bool                        `json:"publishSkipped"`
	PublishSkipReason string                      `json:"publishSkipReason,omitempty"`
	CleanedUp         bool                        `json:"cleanedUp"`
	FailedStep        integration.RunState        `json:"failedStep,omitempty"`
	AdminURL          string                      `json:"adminUrl,omitempty"`
	Error             *integration.RunError       `json:"error,omitempty"`

	// Err is the typed workflow error for errors.As checks by callers
	Err error `json:"-"`
}

// Failed returns true when the run ended in ERRORED
func (r *ImportResult) Failed() bool {
	return r.State == integration.RunStateErrored
}

func newImportResult(run *integration.ImportRun, adminURL string) *ImportResult {
	res := &ImportResult{
		RunID:             run.ID,
		State:             run.State,
		Product:           run.Product,
		Variant:           run.Variant,
		PublishSkipped:    run.PublishSkipped,
		PublishSkipReason: run.PublishSkipReason,
		CleanedUp:         run.CleanedUp,
		FailedStep:        run.FailedStep,
		AdminURL:          adminURL,
		Err:               run.Err,
		Error:             integration.NewRunError(run.Err),
	}
	if run.PublicationID != "" {
		res.Publication = &PublicationResult{ID: run.PublicationID, Published: run.Published}
	}
	return res
}

// SessionInfo is what a UI needs before starting an import
type SessionInfo struct {
	ShopName                 string                    `json:"shopName"`
	ShopDomain               string                    `json:"shopDomain"`
	PrimaryDomainURL         string                    `json:"primaryDomainUrl"`
	StoreHandle              string                    `json:"storeHandle"`
	PublicationName          string                    `json:"publicationName"`
	OnlineStorePublicationID integration.PublicationID `json:"onlineStorePublicationId,omitempty"`
}
