// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Atrium Contributors

package admin

import "github.com/prometheus/client_golang/prometheus"

// actionsTotal counts administrative actions by tag and outcome. Package
// level so action handlers can record without holding a server reference.
var actionsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "atrium_admin_actions_total",
		Help: "Total number of administrative actions by action tag and outcome",
	},
	[]string{"action", "outcome"},
)

// RegisterMetrics registers the admin engine metrics with the registry.
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(actionsTotal)
}

// recordOutcome increments the action counter.
func recordOutcome(action Action, res Result) {
	outcome := "applied"
	if !res.OK {
		outcome = string(res.Reason)
	}
	actionsTotal.WithLabelValues(string(action), outcome).Inc()
}
