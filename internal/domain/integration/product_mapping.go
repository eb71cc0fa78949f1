package integration

import (
	"github.com/shopspring/decimal"
)

// DefaultVendor is the vendor stamped on every imported product
const DefaultVendor = "Fake Store API"

// NewCatalogProductDraft maps an external product to a catalog draft.
// The image is passed through as-is, even when empty; the catalog decides
// whether it is acceptable.
func NewCatalogProductDraft(p *ExternalProduct, vendor string, status ProductStatus) *CatalogProductDraft {
	if vendor == "" {
		vendor = DefaultVendor
	}
	if !status.IsValid() {
		status = ProductStatusDraft
	}
	return &CatalogProductDraft{
		Title:           p.Title,
		DescriptionHTML: p.Description,
		ProductType:     p.Category,
		Vendor:          vendor,
		Status:          status,
		Media: []MediaInput{{
			MediaContentType: MediaContentTypeImage,
			OriginalSource:   p.Image,
		}},
	}
}

// FormatPrice renders a price the way the catalog expects it ("10", "10.5")
func FormatPrice(price decimal.Decimal) string {
	return price.String()
}

// NewVariantInput builds the single variant carrying the external price.
// variantID is only set when updating the default variant.
func NewVariantInput(p *ExternalProduct, variantID string) VariantInput {
	return VariantInput{
		ID:    variantID,
		Price: FormatPrice(p.Price),
	}
}
