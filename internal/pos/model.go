package pos

import "time"

// SaleLine is one product position on a sale.
type SaleLine struct {
	ProductID int64   `json:"product_id"`
	Qty       int64   `json:"qty"`
	UnitPrice float64 `json:"unit_price"`
}

// SaleRequest is the POST body accepted by the sale endpoint.
type SaleRequest struct {
	CustomerID     int64      `json:"customer_id,omitempty"`
	WarehouseID    int64      `json:"warehouse_id"`
	Lines          []SaleLine `json:"lines"`
	IdempotencyKey string     `json:"-"`
}

// Invoice is the persisted outcome of a completed sale.
type Invoice struct {
	ID         int64      `json:"id"`
	Number     string     `json:"number"`
	CustomerID int64      `json:"customer_id,omitempty"`
	Total      float64    `json:"total"`
	TenantKey  string     `json:"-"`
	Lines      []SaleLine `json:"lines"`
	CreatedBy  int64      `json:"created_by"`
	CreatedAt  time.Time  `json:"created_at"`
}
