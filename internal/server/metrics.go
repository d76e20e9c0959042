package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var faultsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "leapxmla_soap_faults_total",
	Help: "SOAP faults returned to clients, by fault code.",
}, []string{"code"})
