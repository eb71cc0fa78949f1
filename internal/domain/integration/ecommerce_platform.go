package integration

import (
	"context"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// ProductStatus represents the catalog status a product is created with
// ---------------------------------------------------------------------------

// ProductStatus represents the catalog status a product is created with
type ProductStatus string

const (
	// ProductStatusDraft hides the product from sales channels
	ProductStatusDraft ProductStatus = "DRAFT"
	// ProductStatusActive makes the product sellable
	ProductStatusActive ProductStatus = "ACTIVE"
)

// IsValid returns true if the product status is valid
func (s ProductStatus) IsValid() bool {
	switch s {
	case ProductStatusDraft, ProductStatusActive:
		return true
	default:
		return false
	}
}

// String returns the string representation of ProductStatus
func (s ProductStatus) String() string {
	return string(s)
}

// MediaContentType is the kind of media attached to a catalog product
type MediaContentType string

// MediaContentTypeImage is the only media kind produced by the import
const MediaContentTypeImage MediaContentType = "IMAGE"

// ---------------------------------------------------------------------------
// VariantMode selects how the price lands on the created product
// ---------------------------------------------------------------------------

// VariantMode selects how the price lands on the created product
type VariantMode string

const (
	// VariantModeCreate bulk-creates a new variant carrying the price
	VariantModeCreate VariantMode = "CREATE"
	// VariantModeUpdate updates the default variant created with the product
	VariantModeUpdate VariantMode = "UPDATE"
)

// IsValid returns true if the variant mode is valid
func (m VariantMode) IsValid() bool {
	return m == VariantModeCreate || m == VariantModeUpdate
}

// String returns the string representation of VariantMode
func (m VariantMode) String() string {
	return string(m)
}

// SkipPolicy controls how a skipped publish step is surfaced
type SkipPolicy string

const (
	// SkipPolicySilent records the skip in the result only
	SkipPolicySilent SkipPolicy = "SILENT"
	// SkipPolicyWarn also logs the skip at warn level
	SkipPolicyWarn SkipPolicy = "WARN"
)

// IsValid returns true if the skip policy is valid
func (p SkipPolicy) IsValid() bool {
	return p == SkipPolicySilent || p == SkipPolicyWarn
}

// String returns the string representation of SkipPolicy
func (p SkipPolicy) String() string {
	return string(p)
}

// ---------------------------------------------------------------------------
// Value Objects
// ---------------------------------------------------------------------------

// ExternalProduct is a product record read from the external product source
type ExternalProduct struct {
	ID          int64           `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Image       string          `json:"image"`
	Price       decimal.Decimal `json:"price"`
}

// MediaInput references remote media to attach to a new product
type MediaInput struct {
	MediaContentType MediaContentType `json:"mediaContentType"`
	OriginalSource   string           `json:"originalSource"`
}

// CatalogProductDraft is the product payload sent to the catalog
type CatalogProductDraft struct {
	Title           string        `json:"title"`
	DescriptionHTML string        `json:"descriptionHtml"`
	ProductType     string        `json:"productType"`
	Vendor          string        `json:"vendor"`
	Status          ProductStatus `json:"status"`
	Media           []MediaInput  `json:"-"`
}

// CreatedProduct is the product the catalog reports after creation.
// ID is an opaque global identifier.
type CreatedProduct struct {
	ID     string        `json:"id"`
	Title  string        `json:"title"`
	Handle string        `json:"handle"`
	Status ProductStatus `json:"status"`
	// DefaultVariantID is the variant the catalog creates alongside the product
	DefaultVariantID string `json:"-"`
}

// NumericID returns the trailing numeric segment of the global id
func (p *CreatedProduct) NumericID() string {
	if p == nil {
		return ""
	}
	idx := strings.LastIndex(p.ID, "/")
	return p.ID[idx+1:]
}

// VariantInput is a variant to create or update. ID is only set in update mode.
type VariantInput struct {
	ID    string `json:"id,omitempty"`
	Price string `json:"price"`
	SKU   string `json:"sku,omitempty"`
}

// CreatedVariant is a variant reported back by the catalog
type CreatedVariant struct {
	ID    string `json:"id"`
	Price string `json:"price"`
	SKU   string `json:"sku"`
}

// PublicationID identifies a sales channel
type PublicationID string

// String returns the string representation of PublicationID
func (id PublicationID) String() string {
	return string(id)
}

// Publication is a sales channel a product can be published to
type Publication struct {
	ID   PublicationID `json:"id"`
	Name string        `json:"name"`
}

// UserError is a field-scoped validation failure reported by the catalog
type UserError struct {
	Field   []string `json:"field"`
	Message string   `json:"message"`
}

// FieldPath joins the field path with dots
func (e UserError) FieldPath() string {
	parts := make([]string, 0, len(e.Field))
	for _, f := range e.Field {
		if f = strings.TrimSpace(f); f != "" {
			parts = append(parts, f)
		}
	}
	return strings.Join(parts, ".")
}

// ShopInfo describes the merchant store behind the catalog client
type ShopInfo struct {
	Name             string `json:"name"`
	MyshopifyDomain  string `json:"myshopifyDomain"`
	PrimaryDomainURL string `json:"primaryDomainUrl"`
}

// StoreHandle returns the admin store handle, e.g. "acme" for acme.myshopify.com.
// The primary domain URL is used when the myshopify domain is unknown.
func (s *ShopInfo) StoreHandle() string {
	if s == nil {
		return ""
	}
	host := strings.TrimSpace(s.MyshopifyDomain)
	if host == "" {
		if u, err := url.Parse(strings.TrimSpace(s.PrimaryDomainURL)); err == nil {
			host = u.Hostname()
		}
	}
	host = strings.TrimSuffix(host, ".myshopify.com")
	if idx := strings.Index(host, "."); idx >= 0 {
		host = host[:idx]
	}
	return host
}

// ---------------------------------------------------------------------------
// Ports
// ---------------------------------------------------------------------------

// ProductSource reads product records from the external product source
type ProductSource interface {
	// FetchProduct returns the product with the given numeric id.
	// Any failure is reported as *ExternalFetchError.
	FetchProduct(ctx context.Context, id int64) (*ExternalProduct, error)
}

// CatalogPlatform is the port for the merchant catalog Admin API.
// Failures are reported as *TransportError or *CatalogValidationError.
type CatalogPlatform interface {
	// CreateProduct creates a product with its media
	CreateProduct(ctx context.Context, draft *CatalogProductDraft) (*CreatedProduct, error)

	// CreateVariants bulk-creates variants on an existing product
	CreateVariants(ctx context.Context, productID string, variants []VariantInput) ([]CreatedVariant, error)

	// UpdateVariants bulk-updates existing variants of a product
	UpdateVariants(ctx context.Context, productID string, variants []VariantInput) ([]CreatedVariant, error)

	// Publish publishes a product to a sales channel
	Publish(ctx context.Context, productID string, publicationID PublicationID) error

	// ListPublications returns the first page of sales channels
	ListPublications(ctx context.Context, first int) ([]Publication, error)

	// DeleteProduct removes a product. Used to clean up failed imports.
	DeleteProduct(ctx context.Context, productID string) error

	// ShopInfo describes the store the client is bound to
	ShopInfo(ctx context.Context) (*ShopInfo, error)
}

// PublicationResolver maps a sales channel name to its id
type PublicationResolver interface {
	// ResolvePublicationID returns ("", false, nil) when no channel has exactly that name
	ResolvePublicationID(ctx context.Context, channelName string) (PublicationID, bool, error)

	// Invalidate forgets a previously resolved id, e.g. after the catalog rejected it
	Invalidate(channelName string)
}
