package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/multistock/multistock/internal/authz"
	"github.com/multistock/multistock/internal/tenant"
)

const cacheTTL = 30 * time.Second

// Counter is the data source the service fans out over.
type Counter interface {
	CountProducts(ctx context.Context, scope tenant.Scope) (int64, error)
	CountWarehouses(ctx context.Context, scope tenant.Scope) (int64, error)
	CountCustomers(ctx context.Context, scope tenant.Scope) (int64, error)
	CountOpenOrders(ctx context.Context, scope tenant.Scope) (int64, error)
}

// Service computes dashboard metrics with a short redis cache in front.
// The cache key carries the tenant key so tenants never see each other's
// counts.
type Service struct {
	repo   Counter
	client *redis.Client
}

// NewService constructs Service. client may be nil, disabling the cache.
func NewService(repo Counter, client *redis.Client) *Service {
	return &Service{repo: repo, client: client}
}

// Load returns the metrics for the principal, from cache when fresh.
func (s *Service) Load(ctx context.Context, p *authz.Principal) (Metrics, error) {
	scope := tenant.ScopeFor(p)
	key := cacheKey(scope)

	// Redis trouble degrades to a direct computation.
	if s.client != nil {
		if payload, err := s.client.Get(ctx, key).Bytes(); err == nil {
			var cached Metrics
			if json.Unmarshal(payload, &cached) == nil {
				return cached, nil
			}
		}
	}

	var m Metrics
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.repo.CountProducts(gctx, scope)
		m.Products = n
		return err
	})
	g.Go(func() error {
		n, err := s.repo.CountWarehouses(gctx, scope)
		m.Warehouses = n
		return err
	})
	g.Go(func() error {
		n, err := s.repo.CountCustomers(gctx, scope)
		m.Customers = n
		return err
	})
	g.Go(func() error {
		n, err := s.repo.CountOpenOrders(gctx, scope)
		m.OpenOrders = n
		return err
	})
	if err := g.Wait(); err != nil {
		return Metrics{}, err
	}

	if s.client != nil {
		if raw, err := json.Marshal(m); err == nil {
			_ = s.client.Set(ctx, key, raw, cacheTTL).Err()
		}
	}
	return m, nil
}

func cacheKey(scope tenant.Scope) string {
	if scope.Unrestricted() {
		return "dashboard:metrics:all"
	}
	return fmt.Sprintf("dashboard:metrics:%s", scope.TenantKey())
}
