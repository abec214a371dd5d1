package products

import "time"

// Product is a catalog row owned by a tenant.
type Product struct {
	ID          int64     `json:"id"`
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Price       float64   `json:"price"`
	Barcode     string    `json:"barcode,omitempty"`
	TenantKey   string    `json:"-"`
	IsDeleted   bool      `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Filter narrows product listings.
type Filter struct {
	Query  string
	Limit  int
	Offset int
}
