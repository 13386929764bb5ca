package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"coffee-slot-machine/internal/repo"
)

// StaleOrderWorker reports orders that stay OPEN without a coin for longer
// than maxAge. It never touches the orders; a customer may still come back
// and finish paying.
type StaleOrderWorker struct {
	orderRepo repo.OrderRepo
	logger    *zap.Logger
	maxAge    time.Duration
	interval  time.Duration
}

func NewStaleOrderWorker(
	orderRepo repo.OrderRepo,
	logger *zap.Logger,
	maxAge time.Duration,
	interval time.Duration,
) *StaleOrderWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StaleOrderWorker{
		orderRepo: orderRepo,
		logger:    logger,
		maxAge:    maxAge,
		interval:  interval,
	}
}

func (w *StaleOrderWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("stale order worker started",
		zap.Duration("interval", w.interval),
		zap.Duration("max_age", w.maxAge),
	)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("stale order worker stopped")
			return
		case <-ticker.C:
			if _, err := w.Audit(ctx); err != nil {
				w.logger.Error("stale order audit failed", zap.Error(err))
			}
		}
	}
}

// Audit runs one pass and returns how many stale orders it found.
func (w *StaleOrderWorker) Audit(ctx context.Context) (int, error) {
	stale, err := w.orderRepo.FindStaleOpenOrders(ctx, w.maxAge)
	if err != nil {
		return 0, err
	}

	if len(stale) == 0 {
		return 0, nil
	}

	w.logger.Warn("found stale open orders", zap.Int("count", len(stale)))
	for _, order := range stale {
		w.logger.Warn("stale open order",
			zap.Stringer("order_id", order.ID),
			zap.String("product", order.Product.Name),
			zap.Int("thrown_in_cents", int(order.ThrownInCents())),
			zap.Int("missing_cents", int(order.Product.PriceCents-order.ThrownInCents())),
			zap.Time("updated_at", order.UpdatedAt),
		)
	}

	return len(stale), nil
}
