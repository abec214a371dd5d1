package customers_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/multistock/multistock/internal/authz"
	"github.com/multistock/multistock/internal/customers"
	"github.com/multistock/multistock/internal/platform/httpx"
	"github.com/multistock/multistock/internal/tenant"
	_ "github.com/multistock/multistock/testing"
)

type memRepository struct {
	rows []customers.Customer
}

func (m *memRepository) List(_ context.Context, scope tenant.Scope, _, _ int) ([]customers.Customer, error) {
	var out []customers.Customer
	for _, row := range m.rows {
		if scope.Visible(row.TenantKey, row.IsDeleted) {
			out = append(out, row)
		}
	}
	return out, nil
}

func (m *memRepository) GetByID(_ context.Context, scope tenant.Scope, id int64) (*customers.Customer, error) {
	for _, row := range m.rows {
		if row.ID == id && scope.Visible(row.TenantKey, row.IsDeleted) {
			found := row
			return &found, nil
		}
	}
	return nil, httpx.ErrNotFound
}

func (m *memRepository) Create(_ context.Context, scope tenant.Scope, c *customers.Customer) (*customers.Customer, error) {
	created := *c
	created.ID = int64(len(m.rows) + 1)
	created.TenantKey = scope.TenantKey()
	m.rows = append(m.rows, created)
	return &created, nil
}

func (m *memRepository) Update(_ context.Context, scope tenant.Scope, c *customers.Customer) (*customers.Customer, error) {
	for i, row := range m.rows {
		if row.ID == c.ID && scope.Visible(row.TenantKey, row.IsDeleted) {
			updated := *c
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

var _ customers.Repository = (*memRepository)(nil)

func newRouter(t *testing.T, repo customers.Repository, p *authz.Principal) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := customers.NewHandler(logger, repo, nil, nil)

	r := chi.NewRouter()
	if p != nil {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				next.ServeHTTP(w, req.WithContext(authz.ContextWithPrincipal(req.Context(), p)))
			})
		})
	}
	r.Route("/customers", handler.MountRoutes)
	return r
}

func seededRepo() *memRepository {
	return &memRepository{rows: []customers.Customer{
		{ID: 42, Name: "Acme Retail", Email: "buyer@acme.test", TenantKey: "alice-store"},
		{ID: 43, Name: "Borealis Ltd", TenantKey: "dave-store"},
	}}
}

func staffPrincipal() *authz.Principal {
	return &authz.Principal{
		ID: 7, Username: "bob", Authenticated: true, IsStaff: true,
		BoundRole: authz.RoleStaff, TenantKey: "alice-store",
	}
}

func TestStaffCannotDeleteCustomer(t *testing.T) {
	repo := seededRepo()
	router := newRouter(t, repo, staffPrincipal())

	req := httptest.NewRequest(http.MethodDelete, "/customers/api/42/", nil)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	require.Equal(t, http.StatusForbidden, res.Code)
	require.JSONEq(t,
		`{"error":"Permission denied: delete access to customers required"}`,
		res.Body.String())
	// The guard ran before the handler; the row is untouched.
	require.False(t, repo.rows[0].IsDeleted)
}

func TestStaffCanViewCustomers(t *testing.T) {
	router := newRouter(t, seededRepo(), staffPrincipal())

	req := httptest.NewRequest(http.MethodGet, "/customers/api/42/", nil)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)
	require.Equal(t, http.StatusOK, res.Code)
	require.Contains(t, res.Body.String(), "Acme Retail")
}

func TestStaffListIsTenantScoped(t *testing.T) {
	router := newRouter(t, seededRepo(), staffPrincipal())

	req := httptest.NewRequest(http.MethodGet, "/customers/api/", nil)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	require.Equal(t, http.StatusOK, res.Code)
	require.Contains(t, res.Body.String(), "Acme Retail")
	require.NotContains(t, res.Body.String(), "Borealis Ltd")
}

func TestSuperadminDeleteRemovesRow(t *testing.T) {
	repo := seededRepo()
	root := &authz.Principal{ID: 1, Username: "root", Authenticated: true, IsSuper: true}
	router := newRouter(t, repo, root)

	req := httptest.NewRequest(http.MethodDelete, "/customers/api/43/", nil)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	require.Equal(t, http.StatusNoContent, res.Code)
	require.Len(t, repo.rows, 1)
}

func TestCreateRequiresName(t *testing.T) {
	supervisor := &authz.Principal{
		ID: 11, Username: "sam", Authenticated: true, IsStaff: true,
		BoundRole: authz.RoleSupervisor, TenantKey: "alice-store",
	}
	router := newRouter(t, seededRepo(), supervisor)

	req := httptest.NewRequest(http.MethodPost, "/customers/api/", nil)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	require.Equal(t, http.StatusBadRequest, res.Code)
}
