// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var breakerStates = []string{"closed", "open", "half-open"}

var (
	circuitBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "bbcd_circuit_breaker_state",
		Help: "1 for the current state of each circuit breaker, 0 otherwise",
	}, []string{"breaker", "state"})

	circuitBreakerTrips = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bbcd_circuit_breaker_trips_total",
		Help: "Total number of times a circuit breaker opened",
	}, []string{"breaker", "reason"})
)

// SetCircuitBreakerState marks state as the only active state of breaker.
func SetCircuitBreakerState(breaker, state string) {
	for _, s := range breakerStates {
		v := 0.0
		if s == state {
			v = 1
		}
		circuitBreakerState.WithLabelValues(breaker, s).Set(v)
	}
}

func RecordCircuitBreakerTrip(breaker, reason string) {
	circuitBreakerTrips.WithLabelValues(breaker, reason).Inc()
}
