package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TicketsCreated counts check-ins, labeled by flow ("entry" or "quick_exit")
	TicketsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "valet",
			Name:      "tickets_created_total",
			Help:      "The total number of tickets created",
		},
		[]string{"flow"},
	)

	// TicketTransitions counts applied lifecycle transitions, labeled by target status
	TicketTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "valet",
			Name:      "ticket_transitions_total",
			Help:      "The total number of applied ticket status transitions",
		},
		[]string{"to_status"},
	)

	// MessagesProcessed The total number of processed messages (counter)
	MessagesProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "messages",
			Name:      "processed_total",
			Help:      "The total number of processed messages",
		},
		[]string{"topic", "handler"},
	)

	// MessagesProcessingFailed total number of message processing failures (counter)
	MessagesProcessingFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "messages",
			Name:      "processing_failed_total",
			Help:      "The total number of message processing failures",
		},
		[]string{"topic", "handler"},
	)

	// MessagesProcessingDuration The total time spent processing messages (summary with quantiles 0.5, 0.9, and 0.99)
	MessagesProcessingDuration = promauto.NewSummaryVec(
		prometheus.SummaryOpts{
			Namespace:  "messages",
			Name:       "processing_duration_seconds",
			Help:       "The total time spent processing messages",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
		[]string{"topic", "handler"},
	)
)
