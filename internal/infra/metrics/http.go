package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_ms",
			Help:    "HTTP request latency distribution in milliseconds.",
			Buckets: []float64{5, 10, 25, 50, 100, 200, 400, 800, 1600, 3000, 5000},
		},
		[]string{"path", "status"},
	)

	pushSends = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "push_sends_total",
			Help: "Push notification sends by kind and result.",
		},
		[]string{"kind", "result"},
	)
)

func ObserveHTTPRequest(path string, status int, elapsed time.Duration) {
	httpDuration.WithLabelValues(path, strconv.Itoa(status)).
		Observe(float64(elapsed.Milliseconds()))
}

func IncPushSend(kind, result string) {
	pushSends.WithLabelValues(norm(kind), norm(result)).Inc()
}
