package warehouses

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

// Repository defines tenant-scoped persistence for warehouses.
type Repository interface {
	List(ctx context.Context, scope tenant.Scope) ([]Warehouse, error)
	GetByID(ctx context.Context, scope tenant.Scope, id int64) (*Warehouse, error)
	Create(ctx context.Context, scope tenant.Scope, wh *Warehouse) (*Warehouse, error)
	Update(ctx context.Context, scope tenant.Scope, wh *Warehouse) (*Warehouse, error)
	Delete(ctx context.Context, scope tenant.Scope, id int64) error
}

// PGRepository persists warehouses in PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PGRepository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const warehouseColumns = `id, code, name, address, city, tenant_key, is_deleted, created_at, updated_at`

func (r *PGRepository) List(ctx context.Context, scope tenant.Scope) ([]Warehouse, error) {
	clause, args := scope.Filter(1)
	rows, err := r.pool.Query(ctx, fmt.Sprintf(`SELECT %s FROM warehouses WHERE %s ORDER BY code`, warehouseColumns, clause), args...)
	if err != nil {
		return nil, fmt.Errorf("warehouses: list: %w", err)
	}
	defer rows.Close()

	var out []Warehouse
	for rows.Next() {
		var wh Warehouse
		if err := scanWarehouse(rows, &wh); err != nil {
			return nil, err
		}
		out = append(out, wh)
	}
	return out, rows.Err()
}

func (r *PGRepository) GetByID(ctx context.Context, scope tenant.Scope, id int64) (*Warehouse, error) {
	clause, scopeArgs := scope.Filter(2)
	args := append([]any{id}, scopeArgs...)
	row := r.pool.QueryRow(ctx, fmt.Sprintf(`SELECT %s FROM warehouses WHERE id = $1 AND %s`, warehouseColumns, clause), args...)
	var wh Warehouse
	if err := scanWarehouse(row, &wh); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}
	return &wh, nil
}

func (r *PGRepository) Create(ctx context.Context, scope tenant.Scope, wh *Warehouse) (*Warehouse, error) {
	now := time.Now().UTC()
	row := r.pool.QueryRow(ctx, `
		INSERT INTO warehouses (code, name, address, city, tenant_key, is_deleted, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, FALSE, $6, $6)
		RETURNING `+warehouseColumns,
		wh.Code, wh.Name, wh.Address, wh.City, scope.TenantKey(), now)

	var created Warehouse
	if err := scanWarehouse(row, &created); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, httpx.ErrDuplicate
		}
		return nil, fmt.Errorf("warehouses: create: %w", err)
	}
	return &created, nil
}

func (r *PGRepository) Update(ctx context.Context, scope tenant.Scope, wh *Warehouse) (*Warehouse, error) {
	clause, scopeArgs := scope.Filter(6)
	args := append([]any{wh.ID, wh.Code, wh.Name, wh.Address, wh.City}, scopeArgs...)
	row := r.pool.QueryRow(ctx, fmt.Sprintf(`
		UPDATE warehouses
		SET code = $2, name = $3, address = $4, city = $5, updated_at = NOW()
		WHERE id = $1 AND %s
		RETURNING `+warehouseColumns, clause), args...)

	var updated Warehouse
	if err := scanWarehouse(row, &updated); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, fmt.Errorf("warehouses: update: %w", err)
	}
	return &updated, nil
}

func (r *PGRepository) Delete(ctx context.Context, scope tenant.Scope, id int64) error {
	clause, scopeArgs := scope.Filter(2)
	args := append([]any{id}, scopeArgs...)

	var (
		tag pgconn.CommandTag
		err error
	)
	switch scope.DeleteMode() {
	case tenant.DeleteHard:
		tag, err = r.pool.Exec(ctx, fmt.Sprintf(`DELETE FROM warehouses WHERE id = $1 AND %s`, clause), args...)
	default:
		tag, err = r.pool.Exec(ctx, fmt.Sprintf(`UPDATE warehouses SET is_deleted = TRUE, updated_at = NOW() WHERE id = $1 AND %s`, clause), args...)
	}
	if err != nil {
		return fmt.Errorf("warehouses: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

func scanWarehouse(row pgx.Row, wh *Warehouse) error {
	return row.Scan(&wh.ID, &wh.Code, &wh.Name, &wh.Address, &wh.City, &wh.TenantKey, &wh.IsDeleted, &wh.CreatedAt, &wh.UpdatedAt)
}

var _ Repository = (*PGRepository)(nil)
