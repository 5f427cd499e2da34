package messaging

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeStored  = "stored"
	outcomeDropped = "dropped"
	outcomeRetried = "requeued"
	outcomeFailed  = "failed"

	outcomePublished = "published"
)

var visitMessagesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "visit_messages_processed_total",
		Help: "Visit queue messages handled by the consumer, by outcome.",
	},
	[]string{"outcome"},
)

var visitsPublishedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "visit_messages_published_total",
		Help: "Visit events published to the queue, by outcome.",
	},
	[]string{"outcome"},
)
