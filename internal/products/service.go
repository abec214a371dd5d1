package products

import (
	"context"
	"fmt"
	"strings"

	"github.com/multistock/multistock/internal/authz"
	"github.com/multistock/multistock/internal/platform/httpx"
	"github.com/multistock/multistock/internal/tenant"
)

// Service wraps product business rules on top of the tenant-scoped
// repository.
type Service struct {
	repo Repository
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns the products visible to the principal.
func (s *Service) List(ctx context.Context, p *authz.Principal, filter Filter) ([]Product, error) {
	return s.repo.List(ctx, tenant.ScopeFor(p), filter)
}

// PublicList serves the unauthenticated catalog: the caller names the
// tenant store to browse and sees only its live rows.
func (s *Service) PublicList(ctx context.Context, tenantKey string, filter Filter) ([]Product, error) {
	return s.repo.List(ctx, tenant.ScopeForTenant(tenantKey), filter)
}

// Get fetches a single visible product.
func (s *Service) Get(ctx context.Context, p *authz.Principal, id int64) (*Product, error) {
	return s.repo.GetByID(ctx, tenant.ScopeFor(p), id)
}

// Create inserts a product owned by the principal's tenant. The guard
// layer already denied roles without products.create; this validates the
// payload only.
func (s *Service) Create(ctx context.Context, p *authz.Principal, product *Product) (*Product, error) {
	if err := validate(product); err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, tenant.ScopeFor(p), product)
}

// Update modifies a visible product.
func (s *Service) Update(ctx context.Context, p *authz.Principal, product *Product) (*Product, error) {
	if err := validate(product); err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, tenant.ScopeFor(p), product)
}

// Delete removes a product under the principal's delete policy.
func (s *Service) Delete(ctx context.Context, p *authz.Principal, id int64) error {
	return s.repo.Delete(ctx, tenant.ScopeFor(p), id)
}

func validate(p *Product) error {
	if strings.TrimSpace(p.Code) == "" {
		return fmt.Errorf("%w: product code required", httpx.ErrValidation)
	}
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: product name required", httpx.ErrValidation)
	}
	if p.Price < 0 {
		return fmt.Errorf("%w: price must not be negative", httpx.ErrValidation)
	}
	return nil
}
