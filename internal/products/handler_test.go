package products_test

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/multistock/multistock/internal/authz"
	"github.com/multistock/multistock/internal/products"
)

func newAPIRouter(t *testing.T, p *authz.Principal) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := products.NewHandler(logger, products.NewService(seededRepo()), nil, nil)

	r := chi.NewRouter()
	if p != nil {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				next.ServeHTTP(w, req.WithContext(authz.ContextWithPrincipal(req.Context(), p)))
			})
		})
	}
	r.Route("/products/api", handler.MountAPIRoutes)
	r.Get("/api/goods/", handler.PublicList)
	return r
}

func TestAPIListReturnsTenantRowsOnly(t *testing.T) {
	router := newAPIRouter(t, staffPrincipal())

	req := httptest.NewRequest(http.MethodGet, "/products/api/", nil)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	require.Equal(t, http.StatusOK, res.Code)
	require.Contains(t, res.Body.String(), "SKU-001")
	require.NotContains(t, res.Body.String(), "SKU-002")
	require.NotContains(t, res.Body.String(), "SKU-003")
}

func TestAPIGetCrossTenantIs404(t *testing.T) {
	router := newAPIRouter(t, staffPrincipal())

	req := httptest.NewRequest(http.MethodGet, "/products/api/3/", nil)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	require.Equal(t, http.StatusNotFound, res.Code)
	require.JSONEq(t, `{"error":"Not found"}`, res.Body.String())
}

func TestAPICreateDeniedForAdmin(t *testing.T) {
	admin := &authz.Principal{
		ID: 3, Username: "alice", Authenticated: true, IsStaff: true,
		BoundRole: authz.RoleAdmin, TenantKey: "alice-store",
	}
	router := newAPIRouter(t, admin)

	req := httptest.NewRequest(http.MethodPost, "/products/api/",
		strings.NewReader(`{"code":"SKU-020","name":"Scale","price":18}`))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	require.Equal(t, http.StatusForbidden, res.Code)
	require.JSONEq(t,
		`{"error":"Permission denied: create access to products required"}`,
		res.Body.String())
}

func TestAPICreateAllowedForSupervisor(t *testing.T) {
	supervisor := &authz.Principal{
		ID: 11, Username: "sam", Authenticated: true, IsStaff: true,
		BoundRole: authz.RoleSupervisor, TenantKey: "alice-store",
	}
	router := newAPIRouter(t, supervisor)

	req := httptest.NewRequest(http.MethodPost, "/products/api/",
		strings.NewReader(`{"code":"SKU-020","name":"Scale","price":18}`))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	require.Equal(t, http.StatusCreated, res.Code)
	require.Contains(t, res.Body.String(), "SKU-020")
}

func TestAPIAnonymousIs401(t *testing.T) {
	router := newAPIRouter(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/products/api/", nil)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	require.Equal(t, http.StatusUnauthorized, res.Code)
	require.JSONEq(t, `{"error":"Authentication required"}`, res.Body.String())
}

func TestPublicCatalogRequiresStore(t *testing.T) {
	router := newAPIRouter(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/goods/", nil)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	require.Equal(t, http.StatusBadRequest, res.Code)
	require.JSONEq(t, `{"error":"store parameter is required"}`, res.Body.String())
}

func TestPublicCatalogListsOneStore(t *testing.T) {
	router := newAPIRouter(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/goods/?store=dave-store", nil)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	require.Equal(t, http.StatusOK, res.Code)
	require.Contains(t, res.Body.String(), "SKU-003")
	require.NotContains(t, res.Body.String(), "SKU-001")
}
