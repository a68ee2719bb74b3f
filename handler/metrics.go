package handler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the handler/scheduler counters named in SPEC_FULL.md §3,
// styled after kedacore/keda's heavy use of promauto for self-registering
// counters.
var (
	eventsHandled = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "funderd",
		Subsystem: "handler",
		Name:      "events_handled_total",
		Help:      "Number of input events processed by the handler, by event kind.",
	}, []string{"kind"})

	moveTokensSent = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "funderd",
		Subsystem: "scheduler",
		Name:      "move_tokens_sent_total",
		Help:      "Number of outbound move-tokens synthesised and signed.",
	})

	inconsistenciesDetected = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "funderd",
		Subsystem: "scheduler",
		Name:      "inconsistencies_detected_total",
		Help:      "Number of times a friend's channel transitioned to Inconsistent.",
	})
)

func observeEvent(kind string) {
	eventsHandled.WithLabelValues(kind).Inc()
}
