package auth

import (
	"context"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/multistock/multistock/internal/shared"
	"github.com/multistock/multistock/internal/users"
)

// Service wraps the two login flows. Team login admits staff and
// superadmin accounts; customer login admits everyone else. A valid
// password on the wrong door still fails.
type Service struct {
	repo Repository
}

// NewService constructs a new Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// AuthenticateTeam validates credentials through the team door.
func (s *Service) AuthenticateTeam(ctx context.Context, username, password string) (*users.User, error) {
	user, err := s.authenticate(ctx, username, password)
	if err != nil {
		return nil, err
	}
	if !user.IsStaff && !user.IsSuper {
		return nil, shared.ErrInvalidCredentials
	}
	return user, nil
}

// AuthenticateCustomer validates credentials through the customer door.
func (s *Service) AuthenticateCustomer(ctx context.Context, username, password string) (*users.User, error) {
	user, err := s.authenticate(ctx, username, password)
	if err != nil {
		return nil, err
	}
	if user.IsStaff || user.IsSuper {
		return nil, shared.ErrInvalidCredentials
	}
	return user, nil
}

func (s *Service) authenticate(ctx context.Context, username, password string) (*users.User, error) {
	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	return user, nil
}

// RegisterSession persists session metadata in postgres.
func (s *Service) RegisterSession(ctx context.Context, id string, userID int64, expiresAt time.Time, ip, ua string) error {
	return s.repo.CreateSession(ctx, id, userID, expiresAt, ip, ua)
}

// RemoveSession deletes a session record from postgres.
func (s *Service) RemoveSession(ctx context.Context, id string) error {
	return s.repo.DeleteSession(ctx, id)
}
