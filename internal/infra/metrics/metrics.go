package metrics

import (
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	paymentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_total",
			Help: "Payment verifications by outcome (success/failed/amount_mismatch/request_id_mismatch).",
		},
		[]string{"outcome"},
	)

	codesMinted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "access_codes_minted_total",
			Help: "Access codes minted by the fulfillment engine.",
		},
	)

	redemptionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "code_redemptions_total",
			Help: "Access code redemption attempts by outcome.",
		},
		[]string{"outcome"},
	)

	webhookRejects = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_rejects_total",
			Help: "Rejected payment webhooks by reason (bad_mac/missing_field/order_not_found).",
		},
		[]string{"reason"},
	)

	emailsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "emails_total",
			Help: "Access-code email deliveries by result (sent/failed).",
		},
		[]string{"result"},
	)

	ordersExpired = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "orders_expired_total",
			Help: "Stale PENDING orders flipped to EXPIRED by the sweeper.",
		},
	)
)

// MustRegister registers collectors with the default registry (idempotent).
func MustRegister() {
	once.Do(func() {
		prometheus.MustRegister(
			paymentsTotal, codesMinted, redemptionsTotal,
			webhookRejects, emailsTotal, ordersExpired,
			cacheRequests, httpDuration, pushSends,
		)
	})
}

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// -------- Payment helpers --------

func IncPayment(outcome string) {
	paymentsTotal.WithLabelValues(norm(outcome)).Inc()
}

func IncCodeMinted() { codesMinted.Inc() }

func IncRedemption(outcome string) {
	redemptionsTotal.WithLabelValues(norm(outcome)).Inc()
}

func IncWebhookReject(reason string) {
	webhookRejects.WithLabelValues(norm(reason)).Inc()
}

func IncEmail(result string) {
	emailsTotal.WithLabelValues(norm(result)).Inc()
}

func AddOrdersExpired(n int) { ordersExpired.Add(float64(n)) }
