package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "jokelist"
)

var (
	// JokesFetched counts jokes accepted by the fetch loop
	JokesFetched = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jokes_fetched_total",
			Help:      "Total number of distinct jokes accepted from the joke source",
		},
	)

	// DuplicatesSkipped counts jokes discarded because their id was already seen
	DuplicatesSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "duplicates_skipped_total",
			Help:      "Total number of duplicate jokes skipped",
		},
	)

	// SourceRequests counts requests to the joke source by result
	SourceRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_requests_total",
			Help:      "Requests to the joke source",
		},
		[]string{"status"}, // success/error
	)

	// SourceLatency measures joke source request latency
	SourceLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "source_request_duration_seconds",
			Help:      "Joke source request latency in seconds",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
	)

	// FillAttempts counts fetch loop runs by outcome
	FillAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fill_attempts_total",
			Help:      "Fetch loop attempts by outcome",
		},
		[]string{"outcome"}, // ok/retry/exhausted/cancelled
	)

	// VotesCast counts votes by direction
	VotesCast = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "votes_total",
			Help:      "Votes applied to jokes",
		},
		[]string{"direction"}, // up/down
	)

	// ActiveSessions tracks live joke lists
	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Number of live joke list sessions",
		},
	)
)

// RecordVote increments VotesCast for the sign of delta.
func RecordVote(delta int) {
	switch {
	case delta > 0:
		VotesCast.WithLabelValues("up").Add(float64(delta))
	case delta < 0:
		VotesCast.WithLabelValues("down").Add(float64(-delta))
	}
}
