package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Publisher metrics
	EventsPublishedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matchday_events_published_total",
			Help: "Total number of events published by event type",
		},
		[]string{"event_type"},
	)

	PublishFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matchday_publish_failures_total",
			Help: "Total number of publish attempts that exhausted all retries",
		},
		[]string{"event_type"},
	)

	PublishRetriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "matchday_publish_retries_total",
			Help: "Total number of publish retry attempts",
		},
	)

	// Subscriber metrics
	MessagesReceivedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matchday_messages_received_total",
			Help: "Total number of messages received by channel",
		},
		[]string{"channel"},
	)

	MalformedMessagesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "matchday_malformed_messages_total",
			Help: "Total number of messages dropped as malformed",
		},
	)

	ReconnectsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "matchday_subscriber_reconnects_total",
			Help: "Total number of subscriber reconnect attempts",
		},
	)

	// Handler metrics
	HandlerInvocationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matchday_handler_invocations_total",
			Help: "Total number of handler invocations by handler and outcome",
		},
		[]string{"handler", "outcome"},
	)

	HandlerDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "matchday_handler_duration_seconds",
			Help:    "Handler execution duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"handler"},
	)

	DuplicateEventsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "matchday_duplicate_events_total",
			Help: "Total number of events skipped via the processed-event ledger",
		},
	)

	// Queue metrics
	QueueDepth = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "matchday_queue_depth",
			Help: "Number of pending jobs per queue",
		},
		[]string{"queue"},
	)

	JobsDispatchedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matchday_jobs_dispatched_total",
			Help: "Total number of jobs dispatched by priority",
		},
		[]string{"priority"},
	)

	JobsDeadLetteredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "matchday_jobs_dead_lettered_total",
			Help: "Total number of jobs moved to the dead-letter bucket",
		},
	)

	// Standings metrics
	StandingsRecomputesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "matchday_standings_recomputes_total",
			Help: "Total number of full standings recomputations",
		},
	)

	StandingsRecomputeDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "matchday_standings_recompute_duration_seconds",
			Help:    "Time taken to recompute standings in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)
)

func init() {
	// Register all metrics
	prometheus.MustRegister(EventsPublishedTotal)
	prometheus.MustRegister(PublishFailuresTotal)
	prometheus.MustRegister(PublishRetriesTotal)
	prometheus.MustRegister(MessagesReceivedTotal)
	prometheus.MustRegister(MalformedMessagesTotal)
	prometheus.MustRegister(ReconnectsTotal)
	prometheus.MustRegister(HandlerInvocationsTotal)
	prometheus.MustRegister(HandlerDuration)
	prometheus.MustRegister(DuplicateEventsTotal)
	prometheus.MustRegister(QueueDepth)
	prometheus.MustRegister(JobsDispatchedTotal)
	prometheus.MustRegister(JobsDeadLetteredTotal)
	prometheus.MustRegister(StandingsRecomputesTotal)
	prometheus.MustRegister(StandingsRecomputeDuration)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer measures elapsed time for histogram observations
type Timer struct {
	start time.Time
}

// NewTimer creates a timer starting now
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Duration returns the elapsed time since the timer started
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}

// ObserveDuration records the elapsed time in the given histogram
func (t *Timer) ObserveDuration(h prometheus.Histogram) {
	h.Observe(t.Duration().Seconds())
}

// ObserveDurationVec records the elapsed time in the given histogram vec
func (t *Timer) ObserveDurationVec(h *prometheus.HistogramVec, labels ...string) {
	h.WithLabelValues(labels...).Observe(t.Duration().Seconds())
}
