package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ConsentDecisionsTotal counts consent mutations by outcome
	ConsentDecisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "privacy_service",
		Name:      "consent_decisions_total",
		Help:      "Consent grant/withdraw/expire transitions by outcome.",
	}, []string{"outcome"})

	// ConsentChecksTotal counts consent checks by result
	ConsentChecksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "privacy_service",
		Name:      "consent_checks_total",
		Help:      "Consent checks by allowed/denied result.",
	}, []string{"result"})

	// DSARRequestsTotal counts processed data subject requests
	DSARRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "privacy_service",
		Name:      "dsar_requests_total",
		Help:      "Data subject requests processed by type and final status.",
	}, []string{"type", "status"})

	// DSARClaimConflictsTotal counts lost atomic claims on DSAR requests
	DSARClaimConflictsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "privacy_service",
		Name:      "dsar_claim_conflicts_total",
		Help:      "Atomic claim attempts lost to a concurrent processor.",
	})

	// DSAROverdueRequests tracks how many open requests are past deadline
	DSAROverdueRequests = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "privacy_service",
		Name:      "dsar_overdue_requests",
		Help:      "Open data subject requests past the response deadline.",
	})

	// ActivityLogFailuresTotal counts audit activity writes that failed
	ActivityLogFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "privacy_service",
		Name:      "activity_log_failures_total",
		Help:      "Processing activity log writes that failed.",
	})

	// NotificationFailuresTotal counts privacy notification sends that failed
	NotificationFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "privacy_service",
		Name:      "notification_failures_total",
		Help:      "Privacy notification emails that failed to send.",
	})

	// DatabaseConnectionsGauge tracks connection pool usage by state
	DatabaseConnectionsGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "privacy_service",
		Name:      "database_connections",
		Help:      "Database connection pool usage by state.",
	}, []string{"state"})
)

// Handler returns the HTTP handler serving the default metrics registry
func Handler() http.Handler {
	return promhttp.Handler()
}
