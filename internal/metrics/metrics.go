package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the client's Prometheus collectors.
	Registry = prometheus.NewRegistry()

	engageActions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tipfeed",
			Subsystem: "engage",
			Name:      "actions_total",
			Help:      "Engagement actions by kind and outcome.",
		},
		[]string{"action", "outcome"},
	)

	feedLoads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tipfeed",
			Subsystem: "feed",
			Name:      "loads_total",
			Help:      "Feed page loads by feed kind and outcome.",
		},
		[]string{"kind", "outcome"},
	)

	balanceTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tipfeed",
			Subsystem: "balance",
			Name:      "transitions_total",
			Help:      "Balance transitions by lifecycle event.",
		},
		[]string{"event"},
	)

	requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tipfeed",
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "Duration of API requests.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10), // 10ms to ~5s
		},
		[]string{"op", "outcome"},
	)
)

func init() {
	Registry.MustRegister(engageActions, feedLoads, balanceTransitions, requestDuration)
}

// Outcome labels.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeDropped = "dropped"
	OutcomeInvalid = "invalid"
)

// Balance transition events.
const (
	TransitionStarted    = "started"
	TransitionSettled    = "settled"
	TransitionSuperseded = "superseded"
)

func RecordAction(action, outcome string) {
	engageActions.WithLabelValues(action, outcome).Inc()
}

func RecordFeedLoad(kind, outcome string) {
	feedLoads.WithLabelValues(kind, outcome).Inc()
}

func RecordBalanceTransition(event string) {
	balanceTransitions.WithLabelValues(event).Inc()
}

func ObserveRequest(op, outcome string, d time.Duration) {
	requestDuration.WithLabelValues(op, outcome).Observe(d.Seconds())
}

// Handler exposes Registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
