package integration

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ---------------------------------------------------------------------------
// RunState represents a step of the import workflow
// ---------------------------------------------------------------------------

// RunState represents a step of the import workflow
type RunState string

const (
	RunStateIdle            RunState = "IDLE"
	RunStateFetching        RunState = "FETCHING"
	RunStateCreating        RunState = "CREATING"
	RunStateVariantUpdating RunState = "VARIANT_UPDATING"
	RunStatePublishing      RunState = "PUBLISHING"
	RunStateDone            RunState = "DONE"
	RunStateErrored         RunState = "ERRORED"
)

// IsValid returns true if the state is valid
func (s RunState) IsValid() bool {
	switch s {
	case RunStateIdle, RunStateFetching, RunStateCreating, RunStateVariantUpdating,
		RunStatePublishing, RunStateDone, RunStateErrored:
		return true
	default:
		return false
	}
}

// String returns the string representation of RunState
func (s RunState) String() string {
	return string(s)
}

// IsTerminal returns true for DONE and ERRORED
func (s RunState) IsTerminal() bool {
	return s == RunStateDone || s == RunStateErrored
}

// ---------------------------------------------------------------------------
// ImportRun
// ---------------------------------------------------------------------------

// ImportRun tracks one import from fetch to publish.
// All transitions are guarded; ERRORED and DONE are absorbing.
type ImportRun struct {
	ID               string
	ProductToFetchID int64
	State            RunState

	ExternalProduct   *ExternalProduct
	Product           *CreatedProduct
	Variant           *CreatedVariant
	PublicationID     PublicationID
	Published         bool
	PublishSkipped    bool
	PublishSkipReason string
	CleanedUp         bool

	Err        error
	FailedStep RunState

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewImportRun creates an idle run for the given external product id
func NewImportRun(id string, productToFetchID int64) (*ImportRun, error) {
	if productToFetchID <= 0 {
		return nil, ErrInvalidProductID
	}
	now := time.Now()
	return &ImportRun{
		ID:               id,
		ProductToFetchID: productToFetchID,
		State:            RunStateIdle,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

func (r *ImportRun) transition(from []RunState, to RunState) error {
	for _, s := range from {
		if r.State == s {
			r.State = to
			r.UpdatedAt = time.Now()
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidRunTransition, r.State, to)
}

// StartFetching moves IDLE -> FETCHING
func (r *ImportRun) StartFetching() error {
	return r.transition([]RunState{RunStateIdle}, RunStateFetching)
}

// ProductFetched records the external product and moves FETCHING -> CREATING
func (r *ImportRun) ProductFetched(p *ExternalProduct) error {
	if p == nil {
		return fmt.Errorf("%w: nil external product", ErrInvalidRunTransition)
	}
	if err := r.transition([]RunState{RunStateFetching}, RunStateCreating); err != nil {
		return err
	}
	r.ExternalProduct = p
	return nil
}

// ProductCreated records the catalog product and moves CREATING -> VARIANT_UPDATING
func (r *ImportRun) ProductCreated(p *CreatedProduct) error {
	if p == nil || p.ID == "" {
		return ErrProductNotCreated
	}
	if err := r.transition([]RunState{RunStateCreating}, RunStateVariantUpdating); err != nil {
		return err
	}
	r.Product = p
	return nil
}

// VariantsApplied records the first variant returned by the catalog
func (r *ImportRun) VariantsApplied(variants []CreatedVariant) error {
	if r.State != RunStateVariantUpdating {
		return fmt.Errorf("%w: variants applied in %s", ErrInvalidRunTransition, r.State)
	}
	if len(variants) > 0 {
		v := variants[0]
		r.Variant = &v
	}
	r.UpdatedAt = time.Now()
	return nil
}

// StartPublishing moves VARIANT_UPDATING -> PUBLISHING
func (r *ImportRun) StartPublishing(publicationID PublicationID) error {
	if r.Product == nil {
		return ErrProductNotCreated
	}
	if publicationID == "" {
		return fmt.Errorf("%w: empty publication id", ErrInvalidRunTransition)
	}
	if err := r.transition([]RunState{RunStateVariantUpdating}, RunStatePublishing); err != nil {
		return err
	}
	r.PublicationID = publicationID
	return nil
}

// MarkPublished records a successful publish
func (r *ImportRun) MarkPublished() error {
	if r.State != RunStatePublishing {
		return fmt.Errorf("%w: published in %s", ErrInvalidRunTransition, r.State)
	}
	r.Published = true
	r.UpdatedAt = time.Now()
	return nil
}

// SkipPublish records that the publish step was skipped
func (r *ImportRun) SkipPublish(reason string) error {
	if r.State != RunStateVariantUpdating {
		return fmt.Errorf("%w: publish skipped in %s", ErrInvalidRunTransition, r.State)
	}
	r.PublishSkipped = true
	r.PublishSkipReason = reason
	r.UpdatedAt = time.Now()
	return nil
}

// Complete moves VARIANT_UPDATING or PUBLISHING -> DONE
func (r *ImportRun) Complete() error {
	return r.transition([]RunState{RunStateVariantUpdating, RunStatePublishing}, RunStateDone)
}

// Fail moves any non-terminal state to ERRORED and remembers the failed step
func (r *ImportRun) Fail(err error) error {
	if r.State.IsTerminal() {
		return fmt.Errorf("%w: fail in %s", ErrInvalidRunTransition, r.State)
	}
	r.FailedStep = r.State
	r.State = RunStateErrored
	r.Err = err
	r.UpdatedAt = time.Now()
	return nil
}

// MarkCleanedUp records that the orphaned catalog product was deleted
func (r *ImportRun) MarkCleanedUp() error {
	if r.State != RunStateErrored || r.Product == nil {
		return fmt.Errorf("%w: cleanup in %s", ErrInvalidRunTransition, r.State)
	}
	r.CleanedUp = true
	r.UpdatedAt = time.Now()
	return nil
}

// Snapshot returns a serializable view of the run
func (r *ImportRun) Snapshot() *RunSnapshot {
	s := &RunSnapshot{
		ID:                r.ID,
		ProductToFetchID:  r.ProductToFetchID,
		State:             r.State,
		Product:           r.Product,
		Variant:           r.Variant,
		PublicationID:     r.PublicationID,
		Published:         r.Published,
		PublishSkipped:    r.PublishSkipped,
		PublishSkipReason: r.PublishSkipReason,
		CleanedUp:         r.CleanedUp,
		FailedStep:        r.FailedStep,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
	if r.Err != nil {
		s.Error = NewRunError(r.Err)
	}
	return s
}

// ---------------------------------------------------------------------------
// RunSnapshot
// ---------------------------------------------------------------------------

// RunSnapshot is the pollable state of an import run
type RunSnapshot struct {
	ID                string          `json:"id"`
	ProductToFetchID  int64           `json:"productToFetchId"`
	State             RunState        `json:"state"`
	Product           *CreatedProduct `json:"product,omitempty"`
	Variant           *CreatedVariant `json:"variant,omitempty"`
	PublicationID     PublicationID   `json:"publicationId,omitempty"`
	Published         bool            `json:"published"`
	PublishSkipped    bool            `json:"publishSkipped"`
	PublishSkipReason string          `json:"publishSkipReason,omitempty"`
	CleanedUp         bool            `json:"cleanedUp"`
	AdminURL          string          `json:"adminUrl,omitempty"`
	Error             *RunError       `json:"error,omitempty"`
	FailedStep        RunState        `json:"failedStep,omitempty"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}

// RunError is the serializable form of a workflow failure
type RunError struct {
	Kind       ErrorKind   `json:"kind"`
	Message    string      `json:"message"`
	StatusCode int         `json:"statusCode,omitempty"`
	UserErrors []UserError `json:"userErrors,omitempty"`
}

// NewRunError converts a workflow error to its serializable form.
// External fetch failures always carry the generic user-facing message.
func NewRunError(err error) *RunError {
	if err == nil {
		return nil
	}
	re := &RunError{Kind: ClassifyError(err), Message: err.Error()}
	var fetchErr *ExternalFetchError
	var transportErr *TransportError
	var validationErr *CatalogValidationError
	switch {
	case errors.As(err, &fetchErr):
		re.Message = ExternalFetchFailedMessage
		re.StatusCode = fetchErr.StatusCode
	case errors.As(err, &transportErr):
		re.StatusCode = transportErr.StatusCode
	case errors.As(err, &validationErr):
		re.UserErrors = validationErr.UserErrors
	}
	return re
}

// ---------------------------------------------------------------------------
// Ports
// ---------------------------------------------------------------------------

// InFlightKey builds the duplicate-suppression key for a product on a shop
func InFlightKey(shopDomain string, productToFetchID int64) string {
	return fmt.Sprintf("shop:%s:product:%d", shopDomain, productToFetchID)
}

// InFlightGuard suppresses concurrent imports of the same product
type InFlightGuard interface {
	// Acquire claims the key for ttl and returns the lease token.
	// Returns false if the key is already held.
	Acquire(ctx context.Context, key string, ttl time.Duration) (string, bool, error)

	// Release frees the key only while token still owns it. A lease that
	// expired and was re-acquired by another run is left alone.
	Release(ctx context.Context, key, token string) error

	// Close releases resources
	Close() error
}

// RunStore keeps run snapshots for polling
type RunStore interface {
	// Save stores or replaces a snapshot
	Save(ctx context.Context, snapshot *RunSnapshot) error

	// Get returns ErrRunNotFound for unknown or expired runs
	Get(ctx context.Context, runID string) (*RunSnapshot, error)

	// Close releases resources
	Close() error
}
