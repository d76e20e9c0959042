package session

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sessionsOpen = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "leapxmla",
		Subsystem: "session",
		Name:      "open",
		Help:      "Sessions currently tracked",
	})

	statementsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "leapxmla",
		Subsystem: "session",
		Name:      "statements_in_flight",
		Help:      "Statements registered and not yet finished",
	})

	sessionsEvicted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "leapxmla",
		Subsystem: "session",
		Name:      "evicted_total",
		Help:      "Sessions removed by reason",
	}, []string{"reason"})

	statementsRejected = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "leapxmla",
		Subsystem: "session",
		Name:      "statements_rejected_total",
		Help:      "Statements cancelled on arrival because their session was cancelled",
	})
)
