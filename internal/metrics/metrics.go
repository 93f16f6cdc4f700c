// Package metrics описывает счётчики Prometheus для гейткипера.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AccessDecisions считает решения гейта по исходам.
	AccessDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gatekeeper_access_decisions_total",
		Help: "Access gate decisions by outcome.",
	}, []string{"outcome"})

	// Charges считает вызовы исполнителя списаний по пути и исходу.
	Charges = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gatekeeper_charges_total",
		Help: "Charge executor invocations by customer path and outcome.",
	}, []string{"path", "outcome"})

	// Renewals считает попытки продления по источнику и исходу.
	Renewals = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gatekeeper_renewals_total",
		Help: "Renewal attempts by trigger and outcome.",
	}, []string{"trigger", "outcome"})
)
