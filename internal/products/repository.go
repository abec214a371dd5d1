package products

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/multistock/multistock/internal/platform/httpx"
	"github.com/multistock/multistock/internal/tenant"
)

// Repository defines tenant-scoped persistence for products.
type Repository interface {
	List(ctx context.Context, scope tenant.Scope, filter Filter) ([]Product, error)
	GetByID(ctx context.Context, scope tenant.Scope, id int64) (*Product, error)
	Create(ctx context.Context, scope tenant.Scope, p *Product) (*Product, error)
	Update(ctx context.Context, scope tenant.Scope, p *Product) (*Product, error)
	Delete(ctx context.Context, scope tenant.Scope, id int64) error
}

// PGRepository persists products in PostgreSQL. Every query funnels the
// scope filter so no read can observe a soft-deleted or foreign-tenant
// row.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PGRepository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const productColumns = `id, code, name, description, price, barcode, tenant_key, is_deleted, created_at, updated_at`

// List returns products visible to the scope, code-ordered.
func (r *PGRepository) List(ctx context.Context, scope tenant.Scope, filter Filter) ([]Product, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	args := []any{limit, filter.Offset}
	clause, scopeArgs := scope.Filter(len(args) + 1)
	args = append(args, scopeArgs...)

	query := fmt.Sprintf(`SELECT %s FROM products WHERE %s`, productColumns, clause)
	if filter.Query != "" {
		query += fmt.Sprintf(` AND (code ILIKE $%d OR name ILIKE $%d)`, len(args)+1, len(args)+1)
		args = append(args, "%"+filter.Query+"%")
	}
	query += ` ORDER BY code LIMIT $1 OFFSET $2`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("products: list: %w", err)
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		var p Product
		if err := scanProduct(rows, &p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// GetByID fetches a visible product. Absent and isolation-excluded rows
// are indistinguishable: both return ErrNotFound.
func (r *PGRepository) GetByID(ctx context.Context, scope tenant.Scope, id int64) (*Product, error) {
	clause, scopeArgs := scope.Filter(2)
	args := append([]any{id}, scopeArgs...)

	row := r.pool.QueryRow(ctx, fmt.Sprintf(`SELECT %s FROM products WHERE id = $1 AND %s`, productColumns, clause), args...)
	var p Product
	if err := scanProduct(row, &p); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// Create inserts a product stamped with the scope's tenant key.
func (r *PGRepository) Create(ctx context.Context, scope tenant.Scope, p *Product) (*Product, error) {
	now := time.Now().UTC()
	row := r.pool.QueryRow(ctx, `
		INSERT INTO products (code, name, description, price, barcode, tenant_key, is_deleted, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, FALSE, $7, $7)
		RETURNING `+productColumns,
		p.Code, p.Name, p.Description, p.Price, p.Barcode, scope.TenantKey(), now)

	var created Product
	if err := scanProduct(row, &created); err != nil {
		if isUniqueViolation(err) {
			return nil, httpx.ErrDuplicate
		}
		return nil, fmt.Errorf("products: create: %w", err)
	}
	return &created, nil
}

// Update modifies a product when it is visible under the scope's read
// rule; the update never crosses tenants.
func (r *PGRepository) Update(ctx context.Context, scope tenant.Scope, p *Product) (*Product, error) {
	clause, scopeArgs := scope.Filter(7)
	args := append([]any{p.ID, p.Code, p.Name, p.Description, p.Price, p.Barcode}, scopeArgs...)

	row := r.pool.QueryRow(ctx, fmt.Sprintf(`
		UPDATE products
		SET code = $2, name = $3, description = $4, price = $5, barcode = $6, updated_at = NOW()
		WHERE id = $1 AND %s
		RETURNING `+productColumns, clause), args...)

	var updated Product
	if err := scanProduct(row, &updated); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		if isUniqueViolation(err) {
			return nil, httpx.ErrDuplicate
		}
		return nil, fmt.Errorf("products: update: %w", err)
	}
	return &updated, nil
}

// Delete applies the scope's delete policy: hard removal for superadmin,
// soft flag otherwise. Rows invisible to the scope report ErrNotFound.
func (r *PGRepository) Delete(ctx context.Context, scope tenant.Scope, id int64) error {
	clause, scopeArgs := scope.Filter(2)
	args := append([]any{id}, scopeArgs...)

	var (
		tag pgconn.CommandTag
		err error
	)
	switch scope.DeleteMode() {
	case tenant.DeleteHard:
		tag, err = r.pool.Exec(ctx, fmt.Sprintf(`DELETE FROM products WHERE id = $1 AND %s`, clause), args...)
	default:
		tag, err = r.pool.Exec(ctx, fmt.Sprintf(`UPDATE products SET is_deleted = TRUE, updated_at = NOW() WHERE id = $1 AND %s`, clause), args...)
	}
	if err != nil {
		return fmt.Errorf("products: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

func scanProduct(row pgx.Row, p *Product) error {
	return row.Scan(&p.ID, &p.Code, &p.Name, &p.Description, &p.Price, &p.Barcode, &p.TenantKey, &p.IsDeleted, &p.CreatedAt, &p.UpdatedAt)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ Repository = (*PGRepository)(nil)
