package products

import (
	"errors"
	"time"
)

// Product is a sellable unit produced by the packaging pipeline.
type Product struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	SKU          string    `json:"sku"`
	Category     string    `json:"category"`
	UnitWeight   float64   `json:"unitWeight"`
	SellingPrice float64   `json:"sellingPrice"`
	StockQty     float64   `json:"stockQty"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// ListFilters narrows product listings.
type ListFilters struct {
	Page       int
	Limit      int
	Search     string
	Category   string
	ActiveOnly bool
}

// ErrNotFound indicates a missing product.
var ErrNotFound = errors.New("products: product not found")

// ErrInvalid indicates a malformed product payload.
var ErrInvalid = errors.New("products: invalid product")

// ErrDuplicateSKU indicates the SKU is already taken.
var ErrDuplicateSKU = errors.New("products: sku already in use")
