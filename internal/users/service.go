package users

import (
	"context"
	"errors"

	"github.com/multistock/multistock/internal/authz"
	"github.com/multistock/multistock/internal/shared"
)

// Service exposes the principal store to the rest of the application and
// implements authz.PrincipalLoader.
type Service struct {
	repo Repository
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// LoadPrincipal assembles the full principal for a user ID: account row,
// optional role binding, group memberships. Binding and group lookup
// failures are absorbed so the resolver can fall through.
func (s *Service) LoadPrincipal(ctx context.Context, userID int64) (*authz.Principal, error) {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !u.IsActive {
		return nil, shared.ErrNotFound
	}

	p := &authz.Principal{
		ID:            u.ID,
		Username:      u.Username,
		Authenticated: true,
		IsSuper:       u.IsSuper,
		IsStaff:       u.IsStaff,
		TenantKey:     u.TenantKey,
	}

	if role, err := s.repo.RoleBinding(ctx, userID); err == nil {
		p.BoundRole = authz.Role(role)
	} else if !errors.Is(err, shared.ErrNotFound) {
		// Absorbed: resolution falls through to groups.
		p.BoundRole = ""
	}

	if groups, err := s.repo.Groups(ctx, userID); err == nil {
		p.Groups = groups
	}

	return p, nil
}

// AssignRole binds a role to a user, validating against the closed set.
func (s *Service) AssignRole(ctx context.Context, userID int64, role string) error {
	r := authz.Role(role)
	if !r.Valid() || r == authz.RoleGuest {
		return errors.New("users: role outside the closed set")
	}
	return s.repo.AssignRole(ctx, userID, role)
}

// RevokeRole drops a user's explicit role binding.
func (s *Service) RevokeRole(ctx context.Context, userID int64) error {
	return s.repo.RevokeRole(ctx, userID)
}

// List returns stored users for the permissions screen.
func (s *Service) List(ctx context.Context, limit, offset int) ([]User, error) {
	return s.repo.List(ctx, limit, offset)
}

var _ authz.PrincipalLoader = (*Service)(nil)
