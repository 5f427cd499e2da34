package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	passageNumberAllocationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "passage_number_allocations_total",
			Help: "Passage number allocation attempts by outcome (success, retry, exhausted, error).",
		},
		[]string{"outcome"},
	)

	navigationRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "navigation_requests_total",
			Help: "Navigation engine calls by operation and outcome.",
		},
		[]string{"operation", "outcome"},
	)

	csvImportRowsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "csv_import_rows_total",
			Help: "CSV rows processed by kind (passages, links) and outcome (imported, updated, failed).",
		},
		[]string{"kind", "outcome"},
	)

	visitsRecordedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "passage_visits_recorded_total",
			Help: "Visit log writes by outcome.",
		},
		[]string{"outcome"},
	)
)
