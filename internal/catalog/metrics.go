package catalog

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	reloadsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "leapxmla",
		Subsystem: "catalog",
		Name:      "reloads_total",
		Help:      "Catalog repositories swapped in after a reload.",
	})

	reloadFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "leapxmla",
		Subsystem: "catalog",
		Name:      "reload_failures_total",
		Help:      "Catalog reloads that failed and kept the previous repository.",
	})
)
