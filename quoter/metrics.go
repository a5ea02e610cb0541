package quoter

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the quoter's Prometheus collectors.
type Metrics struct {
	quoteDuration *prometheus.HistogramVec
	quotes        *prometheus.CounterVec
	failedQuotes  *prometheus.CounterVec
	pools         prometheus.Gauge
}

// NewMetrics creates and registers the quoter metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		quoteDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "fxpool",
			Subsystem: "quoter",
			Name:      "request_duration_seconds",
			Help:      "Time spent serving a quote request, including pair assembly.",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
		}, []string{"operation"}),
		quotes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fxpool",
			Subsystem: "quoter",
			Name:      "amounts_total",
			Help:      "Amounts quoted, by operation.",
		}, []string{"operation"}),
		failedQuotes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fxpool",
			Subsystem: "quoter",
			Name:      "failures_total",
			Help:      "Quote requests or amounts that failed, by operation and failure reason.",
		}, []string{"operation", "reason"}),
		pools: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "fxpool",
			Subsystem: "quoter",
			Name:      "pools",
			Help:      "Number of pools in the current snapshot.",
		}),
	}
}
