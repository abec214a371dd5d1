package dashboard_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/multistock/multistock/internal/authz"
	"github.com/multistock/multistock/internal/dashboard"
	"github.com/multistock/multistock/internal/tenant"
	_ "github.com/multistock/multistock/testing"
)

type stubCounter struct {
	calls      int64
	products   int64
	warehouses int64
	customers  int64
	openOrders int64
	err        error
}

func (s *stubCounter) CountProducts(_ context.Context, _ tenant.Scope) (int64, error) {
	atomic.AddInt64(&s.calls, 1)
	return s.products, s.err
}

func (s *stubCounter) CountWarehouses(_ context.Context, _ tenant.Scope) (int64, error) {
	atomic.AddInt64(&s.calls, 1)
	return s.warehouses, s.err
}

func (s *stubCounter) CountCustomers(_ context.Context, _ tenant.Scope) (int64, error) {
	atomic.AddInt64(&s.calls, 1)
	return s.customers, s.err
}

func (s *stubCounter) CountOpenOrders(_ context.Context, _ tenant.Scope) (int64, error) {
	atomic.AddInt64(&s.calls, 1)
	return s.openOrders, s.err
}

var _ dashboard.Counter = (*stubCounter)(nil)

func newCache(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func staffPrincipal() *authz.Principal {
	return &authz.Principal{
		ID: 7, Username: "bob", Authenticated: true, IsStaff: true,
		BoundRole: authz.RoleStaff, TenantKey: "alice-store",
	}
}

func TestLoadFansOutAndCaches(t *testing.T) {
	counter := &stubCounter{products: 12, warehouses: 2, customers: 40, openOrders: 3}
	svc := dashboard.NewService(counter, newCache(t))
	ctx := context.Background()

	m, err := svc.Load(ctx, staffPrincipal())
	require.NoError(t, err)
	require.Equal(t, dashboard.Metrics{Products: 12, Warehouses: 2, Customers: 40, OpenOrders: 3}, m)
	require.Equal(t, int64(4), atomic.LoadInt64(&counter.calls))

	// A second load inside the TTL is served from cache.
	again, err := svc.Load(ctx, staffPrincipal())
	require.NoError(t, err)
	require.Equal(t, m, again)
	require.Equal(t, int64(4), atomic.LoadInt64(&counter.calls))
}

func TestLoadCacheKeyIsTenantScoped(t *testing.T) {
	cache := newCache(t)
	ctx := context.Background()

	aliceCounter := &stubCounter{products: 12}
	_, err := dashboard.NewService(aliceCounter, cache).Load(ctx, staffPrincipal())
	require.NoError(t, err)

	// Another tenant's load misses alice's cached counts.
	daveCounter := &stubCounter{products: 99}
	dave := &authz.Principal{
		ID: 12, Username: "dave", Authenticated: true, IsStaff: true,
		BoundRole: authz.RoleStaff, TenantKey: "dave-store",
	}
	m, err := dashboard.NewService(daveCounter, cache).Load(ctx, dave)
	require.NoError(t, err)
	require.Equal(t, int64(99), m.Products)
	require.Equal(t, int64(4), atomic.LoadInt64(&daveCounter.calls))
}

func TestLoadWithoutCacheComputesEveryTime(t *testing.T) {
	counter := &stubCounter{products: 5}
	svc := dashboard.NewService(counter, nil)
	ctx := context.Background()

	_, err := svc.Load(ctx, staffPrincipal())
	require.NoError(t, err)
	_, err = svc.Load(ctx, staffPrincipal())
	require.NoError(t, err)
	require.Equal(t, int64(8), atomic.LoadInt64(&counter.calls))
}

func TestLoadPropagatesCounterFailure(t *testing.T) {
	counter := &stubCounter{err: errors.New("db down")}
	svc := dashboard.NewService(counter, nil)

	_, err := svc.Load(context.Background(), staffPrincipal())
	require.Error(t, err)
}
