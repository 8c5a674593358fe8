package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	orgWriteConflicts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "org",
		Subsystem: "store",
		Name:      "write_conflicts_total",
		Help:      "Storage write conflicts surfaced to callers, by kind.",
	}, []string{"kind"})

	changeRequestTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "org",
		Subsystem: "workflow",
		Name:      "change_request_transitions_total",
		Help:      "Structure change request state transitions, by resulting status.",
	}, []string{"status"})
)

func recordWriteConflict(kind string) {
	if kind == "" {
		kind = "other"
	}
	orgWriteConflicts.WithLabelValues(kind).Inc()
}

func recordTransition(status string) {
	changeRequestTransitions.WithLabelValues(status).Inc()
}
