package rowset

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "leapxmla",
			Subsystem: "rowset",
			Name:      "requests_total",
			Help:      "Discover requests by rowset and outcome",
		},
		[]string{"rowset", "outcome"},
	)

	populateDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "leapxmla",
			Subsystem: "rowset",
			Name:      "populate_duration_seconds",
			Help:      "Time spent validating, populating and sorting a rowset",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"rowset"},
	)

	rowsEmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "leapxmla",
			Subsystem: "rowset",
			Name:      "rows_total",
			Help:      "Top-level rows produced by rowset",
		},
		[]string{"rowset"},
	)
)

// outcome labels a request result for metrics.
func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	f := AsFault(err)
	if f.Code == CodeCancelled {
		return "cancelled"
	}
	if f.FaultCode == FaultClient {
		return "client_error"
	}
	return "server_error"
}
