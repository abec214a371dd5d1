// Package dashboard aggregates tenant-visible counts for the landing
// page and its metrics API.
package dashboard

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/multistock/multistock/internal/tenant"
)

// Metrics is the aggregate the dashboard renders.
type Metrics struct {
	Products   int64 `json:"products"`
	Warehouses int64 `json:"warehouses"`
	Customers  int64 `json:"customers"`
	OpenOrders int64 `json:"open_orders"`
}

// Repository counts rows per resource under the caller's tenant scope.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) CountProducts(ctx context.Context, scope tenant.Scope) (int64, error) {
	return r.count(ctx, scope, "products")
}

func (r *Repository) CountWarehouses(ctx context.Context, scope tenant.Scope) (int64, error) {
	return r.count(ctx, scope, "warehouses")
}

func (r *Repository) CountCustomers(ctx context.Context, scope tenant.Scope) (int64, error) {
	return r.count(ctx, scope, "customers")
}

func (r *Repository) CountOpenOrders(ctx context.Context, scope tenant.Scope) (int64, error) {
	clause, args := scope.Filter(1)
	var n int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM orders WHERE status = 'open' AND `+clause, args...).Scan(&n)
	return n, err
}

// count runs over one of the registered tenant-scoped tables; the table
// name comes from the fixed calls above, never from input.
func (r *Repository) count(ctx context.Context, scope tenant.Scope, table string) (int64, error) {
	clause, args := scope.Filter(1)
	var n int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM `+table+` WHERE `+clause, args...).Scan(&n)
	return n, err
}
