package ecommerce

import (
	"github.com/shopspring/decimal"
)

// fakeStoreProduct mirrors GET /products/{id}. Pointers detect missing fields.
type fakeStoreProduct struct {
	ID          int64            `json:"id"`
	Title       *string          `json:"title"`
	Description *string          `json:"description"`
	Category    *string          `json:"category"`
	Image       *string          `json:"image"`
	Price       *decimal.Decimal `json:"price"`
	Rating      *fakeStoreRating `json:"rating,omitempty"`
}

type fakeStoreRating struct {
	Rate  float64 `json:"rate"`
	Count int     `json:"count"`
}

// missingFields lists required fields absent from the payload
func (p *fakeStoreProduct) missingFields() []string {
	var missing []string
	if p.Title == nil {
		missing = append(missing, "title")
	}
	if p.Description == nil {
		missing = append(missing, "description")
	}
	if p.Category == nil {
		missing = append(missing, "category")
	}
	if p.Image == nil {
		missing = append(missing, "image")
	}
	if p.Price == nil {
		missing = append(missing, "price")
	}
	return missing
}
