// Package metrics exposes Prometheus metrics for the landing service.
// Labels stay low-cardinality: no session or media IDs.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// WizardTransitionsTotal counts wizard operations by name and whether they applied.
	WizardTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "landing_wizard_transitions_total",
		Help: "Total number of wizard operations, by operation and outcome (applied/refused).",
	}, []string{"op", "outcome"})

	// LeadsSubmittedTotal counts submitted demo requests by persistence result.
	LeadsSubmittedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "landing_leads_submitted_total",
		Help: "Total number of submitted demo requests, by persistence result.",
	}, []string{"result"})

	// ManifestResolutionsTotal counts manifest lookups by result.
	ManifestResolutionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "landing_manifest_resolutions_total",
		Help: "Total number of media manifest resolutions, by result (ok/error).",
	}, []string{"result"})

	// PlayerErrorsTotal counts players entering the error state.
	PlayerErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "landing_player_errors_total",
		Help: "Total number of players that entered the error state.",
	})

	// ActiveSessions tracks live wizard and player sessions.
	ActiveSessions = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "landing_active_sessions",
		Help: "Current number of live sessions, by kind (wizard/player).",
	}, []string{"kind"})
)

func outcome(applied bool) string {
	if applied {
		return "applied"
	}
	return "refused"
}

// RecordWizard records one wizard operation and passes applied through.
func RecordWizard(op string, applied bool) bool {
	WizardTransitionsTotal.WithLabelValues(op, outcome(applied)).Inc()
	return applied
}

func RecordResolution(err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	ManifestResolutionsTotal.WithLabelValues(result).Inc()
}

func RecordLead(result string) {
	LeadsSubmittedTotal.WithLabelValues(result).Inc()
}
