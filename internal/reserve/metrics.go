// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Atrium Contributors

package reserve

import "github.com/prometheus/client_golang/prometheus"

var reservationsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "atrium_reservations_total",
		Help: "Reservation lifecycle events by outcome.",
	},
	[]string{"event"},
)

// RegisterMetrics registers the package's collectors with reg.
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(reservationsTotal)
}

func recordReservation(event string) {
	reservationsTotal.WithLabelValues(event).Inc()
}
