package service

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"

	"github.com/lkh0118/order-inventory/internal/platform/logger"
)

// Reconciler runs LedgerService.Reconcile on a cron schedule (seconds field
// included) and logs any drift between quantities and the movement log.
type Reconciler struct {
	ledger    LedgerService
	scheduler *cron.Cron
	spec      string
}

func NewReconciler(ledger LedgerService, spec string) *Reconciler {
	return &Reconciler{
		ledger:    ledger,
		scheduler: cron.New(cron.WithSeconds()),
		spec:      spec,
	}
}

func (r *Reconciler) Start() error {
	if _, err := r.scheduler.AddFunc(r.spec, func() {
		r.RunOnce(context.Background())
	}); err != nil {
		return fmt.Errorf("invalid reconcile schedule %q: %w", r.spec, err)
	}
	r.scheduler.Start()
	logger.Info("Reconciler: scheduler started", "spec", r.spec)
	return nil
}

// Stop waits for a running job to finish.
func (r *Reconciler) Stop() {
	<-r.scheduler.Stop().Done()
}

func (r *Reconciler) RunOnce(ctx context.Context) int {
	report, err := r.ledger.Reconcile(ctx)
	if err != nil {
		logger.Error("Reconciler: reconcile failed", err)
		return 0
	}
	for _, d := range report.Drifts {
		logger.Warn("Reconciler: quantity disagrees with movement log",
			"sku", d.SKU, "quantity", d.Quantity, "movement_sum", d.MovementSum, "drift", d.Drift)
	}
	if len(report.Drifts) == 0 {
		logger.Info("Reconciler: ledger consistent", "products", report.Products)
	}
	return len(report.Drifts)
}
