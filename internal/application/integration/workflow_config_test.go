package integration

import (
	"testing"
	"time"

	"github.com/storebridge/backend/internal/domain/integration"
	"github.com/storebridge/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultWorkflowConfig(t *testing.T) {
	cfg := DefaultWorkflowConfig()

	require.NoError(t, cfg.Validate())
	assert.True(t, cfg.AutoPublish)
	assert.Equal(t, integration.ProductStatusDraft, cfg.InitialStatus)
	assert.Equal(t, integration.VariantModeCreate, cfg.VariantMode)
	assert.Equal(t, "Fake Store API", cfg.Vendor)
	assert.Equal(t, "Online Store", cfg.PublicationName)
	assert.Equal(t, integration.SkipPolicyWarn, cfg.SkipPublishPolicy)
	assert.False(t, cfg.CleanupOnFailure)
}

func TestNewWorkflowConfig(t *testing.T) {
	cfg := NewWorkflowConfig(config.ImportConfig{
		AutoPublish:       false,
		InitialStatus:     "active",
		VariantMode:       "update",
		Vendor:            "Acme Imports",
		PublicationName:   "Point of Sale",
		SkipPublishPolicy: "silent",
		CleanupOnFailure:  true,
		StepTimeout:       5 * time.Second,
		InFlightTTL:       time.Minute,
	}, testShopDomain)

	require.NoError(t, cfg.Validate())
	assert.Equal(t, testShopDomain, cfg.ShopDomain)
	assert.False(t, cfg.AutoPublish)
	assert.Equal(t, integration.ProductStatusActive, cfg.InitialStatus)
	assert.Equal(t, integration.VariantModeUpdate, cfg.VariantMode)
	assert.Equal(t, "Acme Imports", cfg.Vendor)
	assert.Equal(t, "Point of Sale", cfg.PublicationName)
	assert.Equal(t, integration.SkipPolicySilent, cfg.SkipPublishPolicy)
	assert.True(t, cfg.CleanupOnFailure)
	assert.Equal(t, 5*time.Second, cfg.StepTimeout)
}

func TestNewWorkflowConfig_ZeroValuesUseDefaults(t *testing.T) {
	cfg := NewWorkflowConfig(config.ImportConfig{AutoPublish: true}, "")

	require.NoError(t, cfg.Validate())
	assert.Equal(t, DefaultWorkflowConfig().StepTimeout, cfg.StepTimeout)
	assert.Equal(t, integration.DefaultVendor, cfg.Vendor)
}

func TestWorkflowConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*WorkflowConfig)
		field  string
	}{
		{"bad status", func(c *WorkflowConfig) { c.InitialStatus = "ARCHIVED" }, "InitialStatus"},
		{"bad mode", func(c *WorkflowConfig) { c.VariantMode = "MERGE" }, "VariantMode"},
		{"bad policy", func(c *WorkflowConfig) { c.SkipPublishPolicy = "LOUD" }, "SkipPublishPolicy"},
		{"empty vendor", func(c *WorkflowConfig) { c.Vendor = "" }, "Vendor"},
		{"zero timeout", func(c *WorkflowConfig) { c.StepTimeout = 0 }, "StepTimeout"},
		{"zero ttl", func(c *WorkflowConfig) { c.InFlightTTL = 0 }, "InFlightTTL"},
		{"ttl shorter than a run", func(c *WorkflowConfig) {
			c.StepTimeout = 20 * time.Second
			c.InFlightTTL = 2 * time.Minute
		}, "InFlightTTL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultWorkflowConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.ErrorIs(t, err, ErrInvalidWorkflowConfig)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestWorkflowConfig_MaxRunDuration(t *testing.T) {
	cfg := DefaultWorkflowConfig()
	cfg.StepTimeout = 5 * time.Second
	cfg.InFlightTTL = time.Minute

	assert.Equal(t, time.Minute, cfg.MaxRunDuration())
	assert.NoError(t, cfg.Validate())

	cfg.InFlightTTL = time.Minute - time.Second
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidWorkflowConfig)
}

func TestImportCommand_Validate(t *testing.T) {
	assert.NoError(t, ImportCommand{ProductToFetchID: 1}.Validate())
	assert.NoError(t, ImportCommand{ProductToFetchID: 1, InitialStatus: integration.ProductStatusActive}.Validate())
	assert.ErrorIs(t, ImportCommand{}.Validate(), integration.ErrInvalidProductID)
	assert.Error(t, ImportCommand{ProductToFetchID: 1, InitialStatus: "ARCHIVED"}.Validate())
}
