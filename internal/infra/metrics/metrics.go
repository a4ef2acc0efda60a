// Package metrics holds the domain counters exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	billingEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "billing_webhook_events_total",
			Help: "Billing webhook events by type and outcome",
		},
		[]string{"type", "outcome"},
	)

	provisionedLocations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crm_locations_provisioned_total",
			Help: "CRM sub-account creations by role and outcome",
		},
		[]string{"role", "outcome"},
	)

	crmEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crm_webhook_events_total",
			Help: "CRM webhook events by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	integrationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "integration_errors_total",
			Help: "Total number of integration errors",
		},
		[]string{"service"},
	)
)

func RecordBillingEvent(eventType, outcome string) {
	billingEvents.WithLabelValues(eventType, outcome).Inc()
}

func RecordProvisionedLocation(role, outcome string) {
	provisionedLocations.WithLabelValues(role, outcome).Inc()
}

func RecordCRMEvent(kind, outcome string) {
	crmEvents.WithLabelValues(kind, outcome).Inc()
}

func RecordIntegrationError(service string) {
	integrationErrors.WithLabelValues(service).Inc()
}
