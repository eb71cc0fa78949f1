package integration

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFetchedRun(t *testing.T) *ImportRun {
	t.Helper()
	run, err := NewImportRun("run-1", 1)
	require.NoError(t, err)
	require.NoError(t, run.StartFetching())
	require.NoError(t, run.ProductFetched(sampleExternalProduct()))
	return run
}

func TestNewImportRun(t *testing.T) {
	run, err := NewImportRun("run-1", 3)
	require.NoError(t, err)
	assert.Equal(t, RunStateIdle, run.State)
	assert.Equal(t, int64(3), run.ProductToFetchID)

	_, err = NewImportRun("run-2", 0)
	assert.ErrorIs(t, err, ErrInvalidProductID)
}

func TestImportRun_HappyPathWithPublish(t *testing.T) {
	run := newFetchedRun(t)
	assert.Equal(t, RunStateCreating, run.State)

	require.NoError(t, run.ProductCreated(&CreatedProduct{ID: "gid://shopify/Product/1", Title: "x"}))
	assert.Equal(t, RunStateVariantUpdating, run.State)

	require.NoError(t, run.VariantsApplied([]CreatedVariant{{ID: "v1", Price: "10"}, {ID: "v2"}}))
	require.NotNil(t, run.Variant)
	assert.Equal(t, "v1", run.Variant.ID)

	require.NoError(t, run.StartPublishing("gid://shopify/Publication/1"))
	assert.Equal(t, RunStatePublishing, run.State)
	require.NoError(t, run.MarkPublished())
	require.NoError(t, run.Complete())
	assert.Equal(t, RunStateDone, run.State)
	assert.True(t, run.Published)
}

func TestImportRun_SkipPublish(t *testing.T) {
	run := newFetchedRun(t)
	require.NoError(t, run.ProductCreated(&CreatedProduct{ID: "gid://shopify/Product/1"}))
	require.NoError(t, run.SkipPublish("publication not found"))
	require.NoError(t, run.Complete())

	assert.Equal(t, RunStateDone, run.State)
	assert.True(t, run.PublishSkipped)
	assert.Equal(t, "publication not found", run.PublishSkipReason)
}

func TestImportRun_InvalidTransitions(t *testing.T) {
	t.Run("Cannot create before fetch", func(t *testing.T) {
		run, _ := NewImportRun("r", 1)
		err := run.ProductCreated(&CreatedProduct{ID: "p"})
		assert.ErrorIs(t, err, ErrInvalidRunTransition)
	})

	t.Run("Cannot publish without product", func(t *testing.T) {
		run := newFetchedRun(t)
		assert.ErrorIs(t, run.StartPublishing("pub"), ErrProductNotCreated)
	})

	t.Run("Product without id is rejected", func(t *testing.T) {
		run := newFetchedRun(t)
		assert.ErrorIs(t, run.ProductCreated(&CreatedProduct{}), ErrProductNotCreated)
		assert.Equal(t, RunStateCreating, run.State)
	})

	t.Run("Cannot complete from creating", func(t *testing.T) {
		run := newFetchedRun(t)
		assert.ErrorIs(t, run.Complete(), ErrInvalidRunTransition)
	})

	t.Run("Errored is absorbing", func(t *testing.T) {
		run := newFetchedRun(t)
		require.NoError(t, run.Fail(errors.New("boom")))
		assert.Equal(t, RunStateErrored, run.State)
		assert.Equal(t, RunStateCreating, run.FailedStep)
		assert.ErrorIs(t, run.Fail(errors.New("again")), ErrInvalidRunTransition)
		assert.ErrorIs(t, run.Complete(), ErrInvalidRunTransition)
	})

	t.Run("Cleanup requires errored run with product", func(t *testing.T) {
		run := newFetchedRun(t)
		assert.ErrorIs(t, run.MarkCleanedUp(), ErrInvalidRunTransition)
		require.NoError(t, run.ProductCreated(&CreatedProduct{ID: "p"}))
		require.NoError(t, run.Fail(errors.New("variant failed")))
		require.NoError(t, run.MarkCleanedUp())
		assert.True(t, run.CleanedUp)
	})
}

func TestImportRun_Snapshot(t *testing.T) {
	run := newFetchedRun(t)
	require.NoError(t, run.Fail(&ExternalFetchError{ProductID: 1, StatusCode: 404}))

	s := run.Snapshot()
	assert.Equal(t, "run-1", s.ID)
	assert.Equal(t, RunStateErrored, s.State)
	require.NotNil(t, s.Error)
	assert.Equal(t, ErrorKindExternalFetch, s.Error.Kind)
	assert.Equal(t, ExternalFetchFailedMessage, s.Error.Message)
	assert.Equal(t, 404, s.Error.StatusCode)
}

func TestNewRunError(t *testing.T) {
	assert.Nil(t, NewRunError(nil))

	validation := &CatalogValidationError{
		Operation:  "productCreate",
		UserErrors: []UserError{{Field: []string{"title"}, Message: "Title can't be blank"}},
	}
	re := NewRunError(validation)
	assert.Equal(t, ErrorKindCatalogValidation, re.Kind)
	assert.Equal(t, validation.UserErrors, re.UserErrors)

	re = NewRunError(&TransportError{Operation: "publishablePublish", StatusCode: 503})
	assert.Equal(t, ErrorKindTransport, re.Kind)
	assert.Equal(t, 503, re.StatusCode)

	assert.Equal(t, ErrorKindInternal, NewRunError(errors.New("x")).Kind)
}

func TestInFlightKey(t *testing.T) {
	assert.Equal(t, "shop:acme.myshopify.com:product:7", InFlightKey("acme.myshopify.com", 7))
}
