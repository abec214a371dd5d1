package pos

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/multistock/multistock/internal/platform/db"
	"github.com/multistock/multistock/internal/tenant"
)

// ErrStockNotFound indicates a missing stock row for the warehouse/product pair.
var ErrStockNotFound = errors.New("stock row not found")

// TxRepository exposes the operations a sale performs inside one transaction.
type TxRepository interface {
	GetStockForUpdate(ctx context.Context, scope tenant.Scope, warehouseID, productID int64) (int64, error)
	DecrementStock(ctx context.Context, warehouseID, productID, qty int64) error
	InsertInvoice(ctx context.Context, inv *Invoice) (int64, error)
	InsertInvoiceLines(ctx context.Context, invoiceID int64, lines []SaleLine) error
}

// Repository persists sales in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type txRepository struct {
	tx pgx.Tx
}

// WithTx runs the sale callback inside one repeatable-read transaction
// via the shared platform helper, so a failed decrement rolls back the
// invoice with it.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

func (r *txRepository) GetStockForUpdate(ctx context.Context, scope tenant.Scope, warehouseID, productID int64) (int64, error) {
	clause, args := scope.Filter(3)
	sqlArgs := append([]any{warehouseID, productID}, args...)
	var qty int64
	err := r.tx.QueryRow(ctx, `SELECT qty FROM stock_levels WHERE warehouse_id=$1 AND product_id=$2 AND `+clause+` FOR UPDATE`, sqlArgs...).Scan(&qty)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrStockNotFound
		}
		return 0, err
	}
	return qty, nil
}

func (r *txRepository) DecrementStock(ctx context.Context, warehouseID, productID, qty int64) error {
	_, err := r.tx.Exec(ctx, `UPDATE stock_levels SET qty = qty - $3, updated_at = NOW()
WHERE warehouse_id=$1 AND product_id=$2`, warehouseID, productID, qty)
	return err
}

func (r *txRepository) InsertInvoice(ctx context.Context, inv *Invoice) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO invoices (number, customer_id, total, tenant_key, created_by, created_at)
VALUES ($1, $2, $3, $4, $5, NOW()) RETURNING id`,
		inv.Number, nullInt(inv.CustomerID), inv.Total, inv.TenantKey, inv.CreatedBy).Scan(&id)
	return id, err
}

func (r *txRepository) InsertInvoiceLines(ctx context.Context, invoiceID int64, lines []SaleLine) error {
	for _, line := range lines {
		if _, err := r.tx.Exec(ctx, `INSERT INTO invoice_lines (invoice_id, product_id, qty, unit_price)
VALUES ($1, $2, $3, $4)`, invoiceID, line.ProductID, line.Qty, line.UnitPrice); err != nil {
			return err
		}
	}
	return nil
}

func nullInt(value int64) any {
	if value == 0 {
		return nil
	}
	return value
}
