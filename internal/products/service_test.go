package products_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/multistock/multistock/internal/authz"
	"github.com/multistock/multistock/internal/platform/httpx"
	"github.com/multistock/multistock/internal/products"
	"github.com/multistock/multistock/internal/tenant"
	_ "github.com/multistock/multistock/testing"
)

// memRepository enforces the scope rules in memory the way the SQL
// repository enforces them in WHERE clauses.
type memRepository struct {
	rows   []products.Product
	nextID int64
}

func (m *memRepository) List(_ context.Context, scope tenant.Scope, filter products.Filter) ([]products.Product, error) {
	var out []products.Product
	for _, row := range m.rows {
		if !scope.Visible(row.TenantKey, row.IsDeleted) {
			continue
		}
		if filter.Query != "" && !strings.Contains(strings.ToLower(row.Name), strings.ToLower(filter.Query)) {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}

func (m *memRepository) GetByID(_ context.Context, scope tenant.Scope, id int64) (*products.Product, error) {
	for _, row := range m.rows {
		if row.ID == id && scope.Visible(row.TenantKey, row.IsDeleted) {
			found := row
			return &found, nil
		}
	}
	return nil, httpx.ErrNotFound
}

func (m *memRepository) Create(_ context.Context, scope tenant.Scope, p *products.Product) (*products.Product, error) {
	m.nextID++
	created := *p
	created.ID = m.nextID
	created.TenantKey = scope.TenantKey()
	m.rows = append(m.rows, created)
	return &created, nil
}

func (m *memRepository) Update(_ context.Context, scope tenant.Scope, p *products.Product) (*products.Product, error) {
	for i, row := range m.rows {
		if row.ID == p.ID && scope.Visible(row.TenantKey, row.IsDeleted) {
			updated := *p
			updated.TenantKey = row.TenantKey
			m.rows[i] = updated
			return &updated, nil
		}
	}
	return nil, httpx.ErrNotFound
}

func (m *memRepository) Delete(_ context.Context, scope tenant.Scope, id int64) error {
	for i, row := range m.rows {
		if row.ID != id || !scope.Visible(row.TenantKey, row.IsDeleted) {
			continue
		}
		if scope.DeleteMode() == tenant.DeleteHard {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
		} else {
			m.rows[i].IsDeleted = true
		}
		return nil
	}
	return httpx.ErrNotFound
}

var _ products.Repository = (*memRepository)(nil)

func seededRepo() *memRepository {
	return &memRepository{
		nextID: 4,
		rows: []products.Product{
			{ID: 1, Code: "SKU-001", Name: "Espresso Beans", Price: 12.50, TenantKey: "alice-store"},
			{ID: 2, Code: "SKU-002", Name: "Grinder", Price: 89.00, TenantKey: "alice-store", IsDeleted: true},
			{ID: 3, Code: "SKU-003", Name: "French Press", Price: 24.00, TenantKey: "dave-store"},
		},
	}
}

func staffPrincipal() *authz.Principal {
	return &authz.Principal{
		ID: 7, Username: "bob", Authenticated: true, IsStaff: true,
		BoundRole: authz.RoleStaff, TenantKey: "alice-store",
	}
}

func superPrincipal() *authz.Principal {
	return &authz.Principal{ID: 1, Username: "root", Authenticated: true, IsSuper: true}
}

func TestListScopedToTenantAndLiveRows(t *testing.T) {
	svc := products.NewService(seededRepo())

	items, err := svc.List(context.Background(), staffPrincipal(), products.Filter{})
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "SKU-001", items[0].Code)
}

func TestListSuperadminSeesEveryLiveRow(t *testing.T) {
	svc := products.NewService(seededRepo())

	items, err := svc.List(context.Background(), superPrincipal(), products.Filter{})
	require.NoError(t, err)
	require.Len(t, items, 2)
}

func TestGetCrossTenantReportsNotFound(t *testing.T) {
	svc := products.NewService(seededRepo())

	_, err := svc.Get(context.Background(), staffPrincipal(), 3)
	require.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestGetSoftDeletedReportsNotFound(t *testing.T) {
	svc := products.NewService(seededRepo())

	_, err := svc.Get(context.Background(), staffPrincipal(), 2)
	require.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestCreateStampsTenantKey(t *testing.T) {
	repo := seededRepo()
	svc := products.NewService(repo)

	created, err := svc.Create(context.Background(), staffPrincipal(), &products.Product{
		Code: "SKU-010", Name: "Kettle", Price: 35,
	})
	require.NoError(t, err)
	require.Equal(t, "alice-store", created.TenantKey)
}

func TestCreateRejectsInvalidPayload(t *testing.T) {
	svc := products.NewService(seededRepo())

	cases := []*products.Product{
		{Name: "No Code", Price: 1},
		{Code: "SKU-011", Price: 1},
		{Code: "SKU-012", Name: "Negative", Price: -1},
	}
	for _, payload := range cases {
		_, err := svc.Create(context.Background(), staffPrincipal(), payload)
		require.True(t, errors.Is(err, httpx.ErrValidation), "payload %+v", payload)
	}
}

func TestDeletePolicySplitsByRole(t *testing.T) {
	repo := seededRepo()
	svc := products.NewService(repo)

	// Staff deletion flags the row; it stays in storage but out of sight.
	require.NoError(t, svc.Delete(context.Background(), staffPrincipal(), 1))
	require.Len(t, repo.rows, 3)
	_, err := svc.Get(context.Background(), staffPrincipal(), 1)
	require.ErrorIs(t, err, httpx.ErrNotFound)

	// Superadmin deletion removes the row for good.
	require.NoError(t, svc.Delete(context.Background(), superPrincipal(), 3))
	require.Len(t, repo.rows, 2)
}

func TestDeleteCrossTenantReportsNotFound(t *testing.T) {
	svc := products.NewService(seededRepo())

	err := svc.Delete(context.Background(), staffPrincipal(), 3)
	require.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestPublicListBrowsesOneStore(t *testing.T) {
	svc := products.NewService(seededRepo())

	items, err := svc.PublicList(context.Background(), "dave-store", products.Filter{})
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "French Press", items[0].Name)
}
