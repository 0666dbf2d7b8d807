package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// PriceNormalizationsTotal counts normalizer invocations by mode and branch.
	PriceNormalizationsTotal *prometheus.CounterVec
	// ReconcileEntriesTotal counts reconciled entries by outcome (kept/dropped).
	ReconcileEntriesTotal *prometheus.CounterVec
	// UpstreamRequestsTotal counts upstream API calls by resource and result.
	UpstreamRequestsTotal *prometheus.CounterVec
	// UpstreamLatency records upstream call latency in milliseconds.
	UpstreamLatency *prometheus.HistogramVec
	// ViewCacheTotal counts view cache lookups by resource and result.
	ViewCacheTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		PriceNormalizationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "price_normalizations_total",
			Help:      "Count of price normalizations by mode and discount branch.",
		}, []string{"mode", "branch"})
		ReconcileEntriesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconcile_entries_total",
			Help:      "Count of cart/wishlist entries processed by the reconciler.",
		}, []string{"collection", "outcome"})
		UpstreamRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      "Count of marketplace API requests by resource and result.",
		}, []string{"resource", "result"})
		UpstreamLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_request_duration_ms",
			Help:      "Latency of marketplace API requests in milliseconds.",
			Buckets:   []float64{10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		}, []string{"resource"})
		ViewCacheTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "view_cache_total",
			Help:      "Count of view cache lookups by resource and result.",
		}, []string{"resource", "result"})

		PriceNormalizationsTotal = registerCounterVec(reg, PriceNormalizationsTotal)
		ReconcileEntriesTotal = registerCounterVec(reg, ReconcileEntriesTotal)
		UpstreamRequestsTotal = registerCounterVec(reg, UpstreamRequestsTotal)
		UpstreamLatency = registerHistogramVec(reg, UpstreamLatency)
		ViewCacheTotal = registerCounterVec(reg, ViewCacheTotal)
	})
}
