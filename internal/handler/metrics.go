package handler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var visitRecordFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "passage_visit_record_failures_total",
	Help: "Visits that could not be handed to the recorder.",
})
