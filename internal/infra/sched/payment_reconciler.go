package sched

import (
	"context"
	"time"

	"tlangau-server/internal/domain/ports/repository"
	"tlangau-server/internal/usecase"

	"github.com/rs/zerolog"
)

// PaymentReconciler re-drives stale PENDING orders that already hold a
// payment request through verification. This covers webhooks that never
// arrived or a process crash mid-fulfillment.
type PaymentReconciler struct {
	fulfillment usecase.FulfillmentUseCase
	orders      repository.OrderRepository
	interval    time.Duration
	staleAfter  time.Duration
	now         func() time.Time
	log         zerolog.Logger
}

func NewPaymentReconciler(fulfillment usecase.FulfillmentUseCase, orders repository.OrderRepository, interval, staleAfter time.Duration, logger zerolog.Logger) *PaymentReconciler {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if staleAfter <= 0 {
		staleAfter = 2 * time.Minute
	}
	return &PaymentReconciler{
		fulfillment: fulfillment,
		orders:      orders,
		interval:    interval,
		staleAfter:  staleAfter,
		now:         time.Now,
		log:         logger.With().Str("component", "payment-reconciler").Logger(),
	}
}

func (w *PaymentReconciler) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Msg("starting payment reconciler")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("stopping payment reconciler")
			return ctx.Err()
		case <-ticker.C:
			w.Tick(ctx)
		}
	}
}

// Tick verifies every stale pending order that has a payment request id.
// Orders without one never reached the gateway and are left for the sweeper.
func (w *PaymentReconciler) Tick(ctx context.Context) {
	cutoff := w.now().Add(-w.staleAfter)
	pending, err := w.orders.ListPendingOlderThan(ctx, cutoff)
	if err != nil {
		w.log.Error().Err(err).Msg("listing pending orders failed")
		return
	}

	for _, o := range pending {
		if o.PaymentRequestID == "" {
			continue
		}
		res, err := w.fulfillment.VerifyPayment(ctx, o.OrderID)
		if err != nil {
			w.log.Error().Err(err).Str("order_id", o.OrderID).Msg("reconcile verification failed")
			continue
		}
		if res.PaymentStatus != o.Status {
			w.log.Info().
				Str("order_id", o.OrderID).
				Str("status", string(res.PaymentStatus)).
				Msg("order reconciled")
		}
	}
}
