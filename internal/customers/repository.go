package customers

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

// Repository defines tenant-scoped persistence for customers.
type Repository interface {
	List(ctx context.Context, scope tenant.Scope, limit, offset int) ([]Customer, error)
	GetByID(ctx context.Context, scope tenant.Scope, id int64) (*Customer, error)
	Create(ctx context.Context, scope tenant.Scope, c *Customer) (*Customer, error)
	Update(ctx context.Context, scope tenant.Scope, c *Customer) (*Customer, error)
	Delete(ctx context.Context, scope tenant.Scope, id int64) error
}

// PGRepository persists customers in PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PGRepository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const customerColumns = `id, name, email, phone, level, tenant_key, is_deleted, created_at, updated_at`

func (r *PGRepository) List(ctx context.Context, scope tenant.Scope, limit, offset int) ([]Customer, error) {
	if limit <= 0 {
		limit = 100
	}
	clause, scopeArgs := scope.Filter(3)
	args := append([]any{limit, offset}, scopeArgs...)
	rows, err := r.pool.Query(ctx, fmt.Sprintf(`SELECT %s FROM customers WHERE %s ORDER BY name LIMIT $1 OFFSET $2`, customerColumns, clause), args...)
	if err != nil {
		return nil, fmt.Errorf("customers: list: %w", err)
	}
	defer rows.Close()

	var out []Customer
	for rows.Next() {
		var c Customer
		if err := scanCustomer(rows, &c); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *PGRepository) GetByID(ctx context.Context, scope tenant.Scope, id int64) (*Customer, error) {
	clause, scopeArgs := scope.Filter(2)
	args := append([]any{id}, scopeArgs...)
	row := r.pool.QueryRow(ctx, fmt.Sprintf(`SELECT %s FROM customers WHERE id = $1 AND %s`, customerColumns, clause), args...)
	var c Customer
	if err := scanCustomer(row, &c); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *PGRepository) Create(ctx context.Context, scope tenant.Scope, c *Customer) (*Customer, error) {
	now := time.Now().UTC()
	row := r.pool.QueryRow(ctx, `
		INSERT INTO customers (name, email, phone, level, tenant_key, is_deleted, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, FALSE, $6, $6)
		RETURNING `+customerColumns,
		c.Name, c.Email, c.Phone, c.Level, scope.TenantKey(), now)

	var created Customer
	if err := scanCustomer(row, &created); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, httpx.ErrDuplicate
		}
		return nil, fmt.Errorf("customers: create: %w", err)
	}
	return &created, nil
}

func (r *PGRepository) Update(ctx context.Context, scope tenant.Scope, c *Customer) (*Customer, error) {
	clause, scopeArgs := scope.Filter(6)
	args := append([]any{c.ID, c.Name, c.Email, c.Phone, c.Level}, scopeArgs...)
	row := r.pool.QueryRow(ctx, fmt.Sprintf(`
		UPDATE customers
		SET name = $2, email = $3, phone = $4, level = $5, updated_at = NOW()
		WHERE id = $1 AND %s
		RETURNING `+customerColumns, clause), args...)

	var updated Customer
	if err := scanCustomer(row, &updated); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, fmt.Errorf("customers: update: %w", err)
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
		tag, err = r.pool.Exec(ctx, fmt.Sprintf(`DELETE FROM customers WHERE id = $1 AND %s`, clause), args...)
	default:
		tag, err = r.pool.Exec(ctx, fmt.Sprintf(`UPDATE customers SET is_deleted = TRUE, updated_at = NOW() WHERE id = $1 AND %s`, clause), args...)
	}
	if err != nil {
		return fmt.Errorf("customers: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

func scanCustomer(row pgx.Row, c *Customer) error {
	return row.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Level, &c.TenantKey, &c.IsDeleted, &c.CreatedAt, &c.UpdatedAt)
}

var _ Repository = (*PGRepository)(nil)
