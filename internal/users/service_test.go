package users_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/multistock/multistock/internal/authz"
	"github.com/multistock/multistock/internal/shared"
	"github.com/multistock/multistock/internal/users"
	_ "github.com/multistock/multistock/testing"
)

type memRepository struct {
	byID     map[int64]*users.User
	bindings map[int64]string
	groups   map[int64][]string
	groupErr error
}

func (m *memRepository) GetByID(_ context.Context, id int64) (*users.User, error) {
	u, ok := m.byID[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return u, nil
}

func (m *memRepository) GetByUsername(_ context.Context, username string) (*users.User, error) {
	for _, u := range m.byID {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *memRepository) RoleBinding(_ context.Context, userID int64) (string, error) {
	role, ok := m.bindings[userID]
	if !ok {
		return "", shared.ErrNotFound
	}
	return role, nil
}

func (m *memRepository) Groups(_ context.Context, userID int64) ([]string, error) {
	if m.groupErr != nil {
		return nil, m.groupErr
	}
	return m.groups[userID], nil
}

func (m *memRepository) AssignRole(_ context.Context, userID int64, role string) error {
	if m.bindings == nil {
		m.bindings = make(map[int64]string)
	}
	m.bindings[userID] = role
	return nil
}

func (m *memRepository) RevokeRole(_ context.Context, userID int64) error {
	delete(m.bindings, userID)
	return nil
}

func (m *memRepository) List(_ context.Context, _, _ int) ([]users.User, error) {
	out := make([]users.User, 0, len(m.byID))
	for _, u := range m.byID {
		out = append(out, *u)
	}
	return out, nil
}

var _ users.Repository = (*memRepository)(nil)

func seededRepo() *memRepository {
	return &memRepository{
		byID: map[int64]*users.User{
			1:  {ID: 1, Username: "root", IsSuper: true, IsActive: true},
			3:  {ID: 3, Username: "alice", IsStaff: true, IsActive: true, TenantKey: "alice-store"},
			7:  {ID: 7, Username: "bob", IsStaff: true, IsActive: true, TenantKey: "alice-store"},
			9:  {ID: 9, Username: "cindy", IsActive: true},
			11: {ID: 11, Username: "dave", IsStaff: true, IsActive: false},
		},
		bindings: map[int64]string{3: "admin"},
		groups:   map[int64][]string{7: {"sub-admin"}},
	}
}

func TestLoadPrincipalCarriesBindingAndGroups(t *testing.T) {
	svc := users.NewService(seededRepo())
	ctx := context.Background()

	alice, err := svc.LoadPrincipal(ctx, 3)
	require.NoError(t, err)
	require.Equal(t, authz.RoleAdmin, alice.BoundRole)
	require.Equal(t, "alice-store", alice.TenantKey)
	require.Equal(t, authz.RoleAdmin, authz.Resolve(alice))

	bob, err := svc.LoadPrincipal(ctx, 7)
	require.NoError(t, err)
	require.Empty(t, bob.BoundRole)
	require.Equal(t, []string{"sub-admin"}, bob.Groups)
	require.Equal(t, authz.RoleAdmin, authz.Resolve(bob))
}

func TestLoadPrincipalAbsorbsGroupFailure(t *testing.T) {
	repo := seededRepo()
	repo.groupErr = errors.New("ldap down")
	svc := users.NewService(repo)

	bob, err := svc.LoadPrincipal(context.Background(), 7)
	require.NoError(t, err)
	require.Empty(t, bob.Groups)
	require.Equal(t, authz.RoleStaff, authz.Resolve(bob))
}

func TestLoadPrincipalRejectsInactiveAndUnknown(t *testing.T) {
	svc := users.NewService(seededRepo())
	ctx := context.Background()

	_, err := svc.LoadPrincipal(ctx, 11)
	require.ErrorIs(t, err, shared.ErrNotFound)

	_, err = svc.LoadPrincipal(ctx, 404)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestAssignRoleValidatesClosedSet(t *testing.T) {
	repo := seededRepo()
	svc := users.NewService(repo)
	ctx := context.Background()

	require.NoError(t, svc.AssignRole(ctx, 7, "subadmin"))
	require.Equal(t, "subadmin", repo.bindings[7])

	require.Error(t, svc.AssignRole(ctx, 7, "guest"))
	require.Error(t, svc.AssignRole(ctx, 7, "owner"))
	require.Error(t, svc.AssignRole(ctx, 7, ""))
}

func TestRevokeRoleDropsBinding(t *testing.T) {
	repo := seededRepo()
	svc := users.NewService(repo)

	require.NoError(t, svc.RevokeRole(context.Background(), 3))
	require.NotContains(t, repo.bindings, 3)
}
