package permissions_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/multistock/multistock/internal/authz"
	"github.com/multistock/multistock/internal/permissions"
	"github.com/multistock/multistock/internal/shared"
	"github.com/multistock/multistock/internal/users"
	"github.com/multistock/multistock/internal/view"
	_ "github.com/multistock/multistock/testing"
)

type stubUsers struct {
	byID     map[int64]*users.User
	bindings map[int64]string
}

func (s *stubUsers) GetByID(_ context.Context, id int64) (*users.User, error) {
	u, ok := s.byID[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return u, nil
}

func (s *stubUsers) GetByUsername(_ context.Context, username string) (*users.User, error) {
	for _, u := range s.byID {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (s *stubUsers) RoleBinding(_ context.Context, userID int64) (string, error) {
	role, ok := s.bindings[userID]
	if !ok {
		return "", shared.ErrNotFound
	}
	return role, nil
}

func (s *stubUsers) Groups(_ context.Context, _ int64) ([]string, error) { return nil, nil }

func (s *stubUsers) AssignRole(_ context.Context, userID int64, role string) error {
	if s.bindings == nil {
		s.bindings = make(map[int64]string)
	}
	s.bindings[userID] = role
	return nil
}

func (s *stubUsers) RevokeRole(_ context.Context, userID int64) error {
	delete(s.bindings, userID)
	return nil
}

func (s *stubUsers) List(_ context.Context, _, _ int) ([]users.User, error) {
	out := make([]users.User, 0, len(s.byID))
	for _, u := range s.byID {
		out = append(out, *u)
	}
	return out, nil
}

var _ users.Repository = (*stubUsers)(nil)

func newRouter(t *testing.T, repo *stubUsers, p *authz.Principal) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	templates, err := view.NewEngine()
	require.NoError(t, err)
	handler := permissions.NewHandler(logger, users.NewService(repo), templates, nil)

	r := chi.NewRouter()
	if p != nil {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				next.ServeHTTP(w, req.WithContext(authz.ContextWithPrincipal(req.Context(), p)))
			})
		})
	}
	r.Route("/permissions", handler.MountRoutes)
	return r
}

func seededUsers() *stubUsers {
	return &stubUsers{
		byID: map[int64]*users.User{
			1: {ID: 1, Username: "root", IsSuper: true, IsActive: true},
			7: {ID: 7, Username: "bob", IsStaff: true, IsActive: true},
		},
		bindings: map[int64]string{},
	}
}

func superPrincipal() *authz.Principal {
	return &authz.Principal{ID: 1, Username: "root", Authenticated: true, IsSuper: true}
}

func TestMatrixPageVisibleToManagementRoles(t *testing.T) {
	for _, role := range []authz.Role{authz.RoleAdmin, authz.RoleSupervisor} {
		p := &authz.Principal{ID: 3, Username: "alice", Authenticated: true, IsStaff: true, BoundRole: role}
		router := newRouter(t, seededUsers(), p)

		req := httptest.NewRequest(http.MethodGet, "/permissions/", nil)
		res := httptest.NewRecorder()
		router.ServeHTTP(res, req)

		require.Equal(t, http.StatusOK, res.Code, "role %s", role)
		require.Contains(t, res.Body.String(), "Role matrix", "role %s", role)
	}
}

func TestMatrixPageRedirectsStaff(t *testing.T) {
	staff := &authz.Principal{ID: 7, Username: "bob", Authenticated: true, IsStaff: true}
	router := newRouter(t, seededUsers(), staff)

	req := httptest.NewRequest(http.MethodGet, "/permissions/", nil)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	require.Equal(t, http.StatusSeeOther, res.Code)
	require.Equal(t, authz.DashboardPath, res.Header().Get("Location"))
}

func TestAssignFormBindsRole(t *testing.T) {
	repo := seededUsers()
	router := newRouter(t, repo, superPrincipal())

	form := url.Values{"user_id": {"7"}, "role": {"supervisor"}}
	req := httptest.NewRequest(http.MethodPost, "/permissions/assign/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	require.Equal(t, http.StatusSeeOther, res.Code)
	require.Equal(t, "/permissions/", res.Header().Get("Location"))
	require.Equal(t, "supervisor", repo.bindings[7])
}

func TestAssignDeniedBelowSuperadmin(t *testing.T) {
	repo := seededUsers()
	admin := &authz.Principal{ID: 3, Username: "alice", Authenticated: true, IsStaff: true, BoundRole: authz.RoleAdmin}
	router := newRouter(t, repo, admin)

	form := url.Values{"user_id": {"7"}, "role": {"supervisor"}}
	req := httptest.NewRequest(http.MethodPost, "/permissions/assign/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	require.Equal(t, http.StatusSeeOther, res.Code)
	require.Equal(t, authz.DashboardPath, res.Header().Get("Location"))
	require.Empty(t, repo.bindings)
}

func TestAPIMatrixDeniedForStaff(t *testing.T) {
	staff := &authz.Principal{ID: 7, Username: "bob", Authenticated: true, IsStaff: true}
	router := newRouter(t, seededUsers(), staff)

	req := httptest.NewRequest(http.MethodGet, "/permissions/api/matrix/", nil)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	require.Equal(t, http.StatusForbidden, res.Code)
	require.JSONEq(t,
		`{"error":"Permission denied: view access to permissions required"}`,
		res.Body.String())
}

func TestAPIAssign(t *testing.T) {
	repo := seededUsers()
	router := newRouter(t, repo, superPrincipal())

	req := httptest.NewRequest(http.MethodPost, "/permissions/api/assign/",
		strings.NewReader(`{"user_id":7,"role":"admin"}`))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	require.Equal(t, http.StatusOK, res.Code)
	require.Equal(t, "admin", repo.bindings[7])

	// Admin lacks permissions.create, which the POST verb maps to.
	admin := &authz.Principal{ID: 3, Username: "alice", Authenticated: true, IsStaff: true, BoundRole: authz.RoleAdmin}
	router = newRouter(t, repo, admin)
	req = httptest.NewRequest(http.MethodPost, "/permissions/api/assign/",
		strings.NewReader(`{"user_id":7,"role":"staff"}`))
	req.Header.Set("Content-Type", "application/json")
	res = httptest.NewRecorder()
	router.ServeHTTP(res, req)

	require.Equal(t, http.StatusForbidden, res.Code)
	require.JSONEq(t,
		`{"error":"Permission denied: create access to permissions required"}`,
		res.Body.String())
}
