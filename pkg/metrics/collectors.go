package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collectors groups the counters the workflow and list services report to.
type Collectors struct {
	BulkBatches      *prometheus.CounterVec
	BulkRowsRejected prometheus.Counter
	ListRequests     *prometheus.CounterVec
	BackendErrors    *prometheus.CounterVec
}

func NewCollectors(reg prometheus.Registerer) *Collectors {
	c := &Collectors{
		BulkBatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "legaldesk",
			Subsystem: "bulk_upload",
			Name:      "batches_total",
			Help:      "Bulk upload batches by terminal outcome.",
		}, []string{"outcome"}),
		BulkRowsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "legaldesk",
			Subsystem: "bulk_upload",
			Name:      "confirm_rejected_total",
			Help:      "Confirm attempts blocked by outstanding validation errors.",
		}),
		ListRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "legaldesk",
			Subsystem: "lists",
			Name:      "requests_total",
			Help:      "List views served, by resource.",
		}, []string{"resource"}),
		BackendErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "legaldesk",
			Subsystem: "backend",
			Name:      "errors_total",
			Help:      "Failed calls to the upstream backend API, by endpoint.",
		}, []string{"endpoint"}),
	}
	if reg != nil {
		reg.MustRegister(c.BulkBatches, c.BulkRowsRejected, c.ListRequests, c.BackendErrors)
	}
	return c
}
