package ecommerce

import (
	"errors"
	"strings"
	"time"
)

// FakeStoreConfig holds configuration for the Fake Store REST API
type FakeStoreConfig struct {
	// BaseURL is the API root, e.g. https://fakestoreapi.com
	BaseURL string
	// Timeout bounds a single product request
	Timeout time.Duration
	// MinID and MaxID bound the product ids the source accepts
	MinID int64
	MaxID int64
}

const (
	// FakeStoreDefaultBaseURL is the public Fake Store API endpoint
	FakeStoreDefaultBaseURL = "https://fakestoreapi.com"
	// FakeStoreDefaultMaxID is the highest product id the public catalog serves
	FakeStoreDefaultMaxID = 20
)

// Errors for Fake Store configuration
var (
	ErrFakeStoreConfigInvalidRange = errors.New("fakestore: min id must be positive and not greater than max id")
)

// NewFakeStoreConfig creates a new Fake Store configuration with defaults
func NewFakeStoreConfig() *FakeStoreConfig {
	return &FakeStoreConfig{
		BaseURL: FakeStoreDefaultBaseURL,
		Timeout: 10 * time.Second,
		MinID:   1,
		MaxID:   FakeStoreDefaultMaxID,
	}
}

// Validate validates the Fake Store configuration and fills defaults
func (c *FakeStoreConfig) Validate() error {
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if c.BaseURL == "" {
		c.BaseURL = FakeStoreDefaultBaseURL
	}
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	if c.MinID == 0 && c.MaxID == 0 {
		c.MinID, c.MaxID = 1, FakeStoreDefaultMaxID
	}
	if c.MinID < 1 || c.MinID > c.MaxID {
		return ErrFakeStoreConfigInvalidRange
	}
	return nil
}

// InRange reports whether id is within the configured bounds
func (c *FakeStoreConfig) InRange(id int64) bool {
	return id >= c.MinID && id <= c.MaxID
}
