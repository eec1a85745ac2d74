package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	apiRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "roomscout",
			Name:      "api_requests_total",
			Help:      "Backend API requests by operation and outcome.",
		},
		[]string{"operation", "outcome"},
	)

	searchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "roomscout",
			Name:      "search_duration_seconds",
			Help:      "Latency of room availability searches.",
			Buckets:   prometheus.DefBuckets,
		},
	)

	staleSearches = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "roomscout",
			Name:      "stale_search_responses_total",
			Help:      "Search responses discarded because a newer search superseded them.",
		},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(apiRequests, searchDuration, staleSearches)
	})
}

// IncRequest increments the counter for an API operation with outcome
// "ok" or "error".
func IncRequest(operation, outcome string) {
	apiRequests.WithLabelValues(operation, outcome).Inc()
}

// ObserveSearch records one search round-trip duration in seconds.
func ObserveSearch(seconds float64) {
	searchDuration.Observe(seconds)
}

// IncStaleSearch counts a discarded superseded search response.
func IncStaleSearch() {
	staleSearches.Inc()
}
