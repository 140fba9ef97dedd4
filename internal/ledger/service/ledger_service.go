package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	catalogService "github.com/lkh0118/order-inventory/internal/catalog/service"
	"github.com/lkh0118/order-inventory/internal/ledger/domain"
	"github.com/lkh0118/order-inventory/internal/platform/apperr"
	"github.com/lkh0118/order-inventory/internal/platform/logger"
	"github.com/lkh0118/order-inventory/internal/platform/txn"
)

type LedgerService interface {
	Adjust(ctx context.Context, productID, delta int64, reason string) (*domain.AdjustStockResponse, error)
	AdjustBySKU(ctx context.Context, sku string, req domain.AdjustStockRequest) (*domain.AdjustStockResponse, error)
	// QuantityOf is a point-in-time read; the value may be stale once returned.
	QuantityOf(ctx context.Context, productID int64) (int64, error)
	StockLevel(ctx context.Context, sku string) (*domain.StockLevel, error)
	Movements(ctx context.Context, sku string) ([]domain.StockMovement, error)
	Reconcile(ctx context.Context) (*domain.ReconcileReport, error)
}

type ledgerServiceImpl struct {
	coord *txn.Coordinator
	reads singleflight.Group
	now   func() time.Time
}

func NewLedgerService(coord *txn.Coordinator) LedgerService {
	return &ledgerServiceImpl{coord: coord, now: time.Now}
}

func validateAdjust(delta int64, reason string) (string, error) {
	reason = strings.TrimSpace(reason)
	if delta == 0 {
		return "", fmt.Errorf("%w: delta must not be zero", apperr.ErrInvalidInput)
	}
	if reason == "" {
		return "", fmt.Errorf("%w: reason must not be empty", apperr.ErrInvalidInput)
	}
	return reason, nil
}

func (s *ledgerServiceImpl) Adjust(ctx context.Context, productID, delta int64, reason string) (*domain.AdjustStockResponse, error) {
	reason, err := validateAdjust(delta, reason)
	if err != nil {
		return nil, err
	}

	var resp *domain.AdjustStockResponse
	err = s.coord.Run(ctx, "ledger.adjust", func(ctx context.Context, u txn.Unit) error {
		p, err := u.Products().GetByID(ctx, productID)
		if err != nil {
			return err
		}
		qty, movementID, err := Adjust(ctx, u, p.SKU, p.ID, delta, reason)
		if err != nil {
			return err
		}
		resp = &domain.AdjustStockResponse{SKU: p.SKU, Quantity: qty, MovementID: movementID}
		return nil
	})
	if err != nil {
		logger.Error("Svc.Adjust: adjustment failed", err, "product_id", productID, "delta", delta)
		return nil, err
	}
	return resp, nil
}

func (s *ledgerServiceImpl) AdjustBySKU(ctx context.Context, sku string, req domain.AdjustStockRequest) (*domain.AdjustStockResponse, error) {
	sku = strings.TrimSpace(sku)
	if sku == "" {
		return nil, fmt.Errorf("%w: sku must not be empty", apperr.ErrInvalidInput)
	}
	reason, err := validateAdjust(req.Delta, req.Reason)
	if err != nil {
		return nil, err
	}

	var resp *domain.AdjustStockResponse
	err = s.coord.Run(ctx, "ledger.adjust", func(ctx context.Context, u txn.Unit) error {
		resolved, err := catalogService.ResolveMany(ctx, u, []string{sku})
		if err != nil {
			return err
		}
		p, ok := resolved[sku]
		if !ok {
			return fmt.Errorf("%w: %s", apperr.ErrProductNotFound, sku)
		}
		qty, movementID, err := Adjust(ctx, u, sku, p.ID, req.Delta, reason)
		if err != nil {
			return err
		}
		resp = &domain.AdjustStockResponse{SKU: sku, Quantity: qty, MovementID: movementID}
		return nil
	})
	if err != nil {
		logger.Error("Svc.AdjustBySKU: adjustment failed", err, "sku", sku, "delta", req.Delta)
		return nil, err
	}
	logger.Info("Svc.AdjustBySKU: stock adjusted", "sku", sku, "delta", req.Delta, "quantity", resp.Quantity)
	return resp, nil
}

// QuantityOf coalesces concurrent lookups of the same product. The shared
// read ignores the first caller's cancellation and is bounded by the
// coordinator timeout; each caller still stops waiting when its own ctx ends.
func (s *ledgerServiceImpl) QuantityOf(ctx context.Context, productID int64) (int64, error) {
	ch := s.reads.DoChan(strconv.FormatInt(productID, 10), func() (interface{}, error) {
		var qty int64
		err := s.coord.Read(context.WithoutCancel(ctx), "ledger.quantity", func(ctx context.Context, u txn.Unit) error {
			acct, err := u.Stock().GetAccount(ctx, productID)
			if err != nil {
				return err
			}
			qty = acct.Quantity
			return nil
		})
		return qty, err
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return 0, res.Err
		}
		return res.Val.(int64), nil
	case <-ctx.Done():
		return 0, fmt.Errorf("%w: quantity lookup abandoned: %v", apperr.ErrTimeout, ctx.Err())
	}
}

func (s *ledgerServiceImpl) StockLevel(ctx context.Context, sku string) (*domain.StockLevel, error) {
	var level *domain.StockLevel
	err := s.coord.Read(ctx, "ledger.level", func(ctx context.Context, u txn.Unit) error {
		resolved, err := catalogService.ResolveMany(ctx, u, []string{sku})
		if err != nil {
			return err
		}
		p, ok := resolved[sku]
		if !ok {
			return fmt.Errorf("%w: %s", apperr.ErrProductNotFound, sku)
		}
		acct, err := u.Stock().GetAccount(ctx, p.ID)
		if err != nil {
			return err
		}
		level = &domain.StockLevel{SKU: sku, Quantity: acct.Quantity}
		return nil
	})
	return level, err
}

func (s *ledgerServiceImpl) Movements(ctx context.Context, sku string) ([]domain.StockMovement, error) {
	var movements []domain.StockMovement
	err := s.coord.Read(ctx, "ledger.movements", func(ctx context.Context, u txn.Unit) error {
		resolved, err := catalogService.ResolveMany(ctx, u, []string{sku})
		if err != nil {
			return err
		}
		p, ok := resolved[sku]
		if !ok {
			return fmt.Errorf("%w: %s", apperr.ErrProductNotFound, sku)
		}
		movements, err = u.Stock().ListMovements(ctx, p.ID)
		return err
	})
	return movements, err
}

// Reconcile replays the movement log against every account in one snapshot
// and reports products whose quantity differs. It never repairs.
func (s *ledgerServiceImpl) Reconcile(ctx context.Context) (*domain.ReconcileReport, error) {
	report := &domain.ReconcileReport{CheckedAt: s.now(), Drifts: []domain.Drift{}}
	err := s.coord.Read(ctx, "ledger.reconcile", func(ctx context.Context, u txn.Unit) error {
		products, err := u.Products().List(ctx)
		if err != nil {
			return err
		}
		ids := make([]int64, len(products))
		for i, p := range products {
			ids[i] = p.ID
		}
		accounts, err := u.Stock().GetAccounts(ctx, ids)
		if err != nil {
			return err
		}
		totals, err := u.Stock().SumMovements(ctx)
		if err != nil {
			return err
		}
		sums := make(map[int64]int64, len(totals))
		for _, t := range totals {
			sums[t.ProductID] = t.Sum
		}

		report.Products = len(products)
		for _, p := range products {
			qty := accounts[p.ID].Quantity
			if qty != sums[p.ID] {
				report.Drifts = append(report.Drifts, domain.Drift{
					ProductID:   p.ID,
					SKU:         p.SKU,
					Quantity:    qty,
					MovementSum: sums[p.ID],
					Drift:       qty - sums[p.ID],
				})
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}
