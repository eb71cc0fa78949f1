package ecommerce

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ShopifyConfig holds configuration for the Shopify GraphQL Admin API
type ShopifyConfig struct {
	// ShopDomain is the myshopify domain, e.g. acme.myshopify.com
	ShopDomain string
	// AccessToken is the Admin API access token
	AccessToken string
	// APIVersion is the Admin API version, e.g. 2025-01
	APIVersion string
	// Timeout bounds a single GraphQL request
	Timeout time.Duration
	// Endpoint overrides the derived GraphQL endpoint
	Endpoint string
}

// ShopifyDefaultAPIVersion is the Admin API version used when none is configured
const ShopifyDefaultAPIVersion = "2025-01"

// Errors for Shopify configuration
var (
	ErrShopifyConfigMissingShopDomain  = errors.New("shopify: shop domain is required")
	ErrShopifyConfigMissingAccessToken = errors.New("shopify: access token is required")
)

// NewShopifyConfig creates a new Shopify configuration with defaults
func NewShopifyConfig(shopDomain, accessToken string) *ShopifyConfig {
	return &ShopifyConfig{
		ShopDomain:  shopDomain,
		AccessToken: accessToken,
		APIVersion:  ShopifyDefaultAPIVersion,
		Timeout:     15 * time.Second,
	}
}

// Validate validates the Shopify configuration and fills defaults
func (c *ShopifyConfig) Validate() error {
	c.ShopDomain = normalizeShopDomain(c.ShopDomain)
	if c.ShopDomain == "" && c.Endpoint == "" {
		return ErrShopifyConfigMissingShopDomain
	}
	if c.AccessToken == "" {
		return ErrShopifyConfigMissingAccessToken
	}
	if c.APIVersion == "" {
		c.APIVersion = ShopifyDefaultAPIVersion
	}
	if c.Timeout <= 0 {
		c.Timeout = 15 * time.Second
	}
	return nil
}

// GraphQLEndpoint returns the Admin GraphQL endpoint URL
func (c *ShopifyConfig) GraphQLEndpoint() string {
	if c.Endpoint != "" {
		return c.Endpoint
	}
	return fmt.Sprintf("https://%s/admin/api/%s/graphql.json", c.ShopDomain, c.APIVersion)
}

func normalizeShopDomain(domain string) string {
	domain = strings.TrimSpace(domain)
	domain = strings.TrimPrefix(domain, "https://")
	domain = strings.TrimPrefix(domain, "http://")
	return strings.TrimRight(domain, "/")
}
