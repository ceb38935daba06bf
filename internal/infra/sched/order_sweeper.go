package sched

import (
	"context"
	"time"

	"tlangau-server/internal/domain/model"
	"tlangau-server/internal/domain/ports/repository"
	"tlangau-server/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// OrderSweeper periodically flips stale PENDING orders to EXPIRED so
// abandoned checkouts do not linger forever.
type OrderSweeper struct {
	orders     repository.OrderRepository
	interval   time.Duration
	staleAfter time.Duration
	now        func() time.Time
	log        zerolog.Logger
}

func NewOrderSweeper(orders repository.OrderRepository, interval, staleAfter time.Duration, logger zerolog.Logger) *OrderSweeper {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	if staleAfter <= 0 {
		staleAfter = 30 * time.Minute
	}
	return &OrderSweeper{
		orders:     orders,
		interval:   interval,
		staleAfter: staleAfter,
		now:        time.Now,
		log:        logger.With().Str("component", "order-sweeper").Logger(),
	}
}

func (w *OrderSweeper) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Msg("starting order sweeper")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("stopping order sweeper")
			return ctx.Err()
		case <-ticker.C:
			n := w.Sweep(ctx)
			if n > 0 {
				metrics.AddOrdersExpired(n)
				w.log.Info().Int("count", n).Msg("stale orders expired")
			}
		}
	}
}

// Sweep expires every stale pending order once, isolating per-order failures,
// and returns how many were flipped.
func (w *OrderSweeper) Sweep(ctx context.Context) int {
	cutoff := w.now().Add(-w.staleAfter)
	stale, err := w.orders.ListPendingOlderThan(ctx, cutoff)
	if err != nil {
		w.log.Error().Err(err).Msg("listing stale orders failed")
		return 0
	}

	expired := model.OrderStatusExpired
	n := 0
	for _, o := range stale {
		if err := w.orders.Update(ctx, o.OrderID, repository.OrderPatch{Status: &expired}); err != nil {
			w.log.Error().Err(err).Str("order_id", o.OrderID).Msg("expiring order failed")
			continue
		}
		n++
	}
	return n
}
