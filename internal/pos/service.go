package pos

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/multistock/multistock/internal/authz"
	"github.com/multistock/multistock/internal/platform/httpx"
	"github.com/multistock/multistock/internal/shared"
	"github.com/multistock/multistock/internal/tenant"
)

// ErrInsufficientStock indicates a line asks for more units than the
// locked stock row holds.
var ErrInsufficientStock = errors.New("insufficient stock")

// TxRunner runs a sale callback inside one transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// IdempotencyChecker guards against replayed sale submissions. Remove
// releases a key whose sale did not commit, so a retry is not a replay.
type IdempotencyChecker interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Remove(ctx context.Context, key, module string) error
}

// Service executes sales: all stock rows are locked and decremented and
// the invoice inserted in a single transaction, so an oversell on any
// line rolls back the whole sale.
type Service struct {
	repo        TxRunner
	idempotency IdempotencyChecker
}

// NewService constructs Service. idempotency may be nil, disabling replay
// protection.
func NewService(repo TxRunner, idempotency IdempotencyChecker) *Service {
	return &Service{repo: repo, idempotency: idempotency}
}

// Sell validates and executes the sale on behalf of the principal.
func (s *Service) Sell(ctx context.Context, p *authz.Principal, req SaleRequest) (*Invoice, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	keyConsumed := false
	if s.idempotency != nil && req.IdempotencyKey != "" {
		if err := s.idempotency.CheckAndInsert(ctx, req.IdempotencyKey, authz.ModuleOrders); err != nil {
			if errors.Is(err, shared.ErrIdempotencyConflict) {
				return nil, httpx.ErrConflict
			}
			return nil, err
		}
		keyConsumed = true
	}

	scope := tenant.ScopeFor(p)
	inv := &Invoice{
		Number:     invoiceNumber(),
		CustomerID: req.CustomerID,
		TenantKey:  scope.TenantKey(),
		Lines:      req.Lines,
		CreatedBy:  p.ID,
	}
	for _, line := range req.Lines {
		inv.Total += float64(line.Qty) * line.UnitPrice
	}

	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		for _, line := range req.Lines {
			available, err := tx.GetStockForUpdate(ctx, scope, req.WarehouseID, line.ProductID)
			if err != nil {
				if errors.Is(err, ErrStockNotFound) {
					return fmt.Errorf("product %d: %w", line.ProductID, httpx.ErrNotFound)
				}
				return err
			}
			if available < line.Qty {
				return fmt.Errorf("product %d has %d units: %w", line.ProductID, available, ErrInsufficientStock)
			}
			if err := tx.DecrementStock(ctx, req.WarehouseID, line.ProductID, line.Qty); err != nil {
				return err
			}
		}
		id, err := tx.InsertInvoice(ctx, inv)
		if err != nil {
			return err
		}
		inv.ID = id
		return tx.InsertInvoiceLines(ctx, id, inv.Lines)
	})
	if err != nil {
		// The sale did not commit; give the key back so a legitimate
		// retry is not mistaken for a replay.
		if keyConsumed {
			_ = s.idempotency.Remove(ctx, req.IdempotencyKey, authz.ModuleOrders)
		}
		return nil, err
	}
	return inv, nil
}

func validate(req SaleRequest) error {
	if req.WarehouseID <= 0 {
		return fmt.Errorf("warehouse_id is required: %w", httpx.ErrValidation)
	}
	if len(req.Lines) == 0 {
		return fmt.Errorf("at least one line is required: %w", httpx.ErrValidation)
	}
	for i, line := range req.Lines {
		if line.ProductID <= 0 || line.Qty <= 0 {
			return fmt.Errorf("line %d needs a product and a positive qty: %w", i, httpx.ErrValidation)
		}
	}
	return nil
}

func invoiceNumber() string {
	return "INV-" + strings.ToUpper(uuid.NewString()[:8])
}
