package suppliers

import "time"

// Supplier represents a raw stock supplier reference record.
type Supplier struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	District  string    `json:"district"`
	Area      string    `json:"area"`
	Phone     string    `json:"phone"`
	Notes     string    `json:"notes"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ListFilters narrows supplier listings.
type ListFilters struct {
	Page       int
	Limit      int
	Search     string
	ActiveOnly bool
}
