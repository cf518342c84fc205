package queue

import (
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/openleague/matchday/pkg/event"
	"github.com/openleague/matchday/pkg/log"
	"github.com/openleague/matchday/pkg/metrics"
	"github.com/openleague/matchday/pkg/types"
)

// Dispatcher routes events onto the durable priority queues. Unlike the
// live broadcast channel, a dispatched event survives process restarts and
// is retried with backoff until its envelope's max_retries is exhausted.
type Dispatcher struct {
	queue   *Queue
	service string
	logger  zerolog.Logger
}

// NewDispatcher creates a dispatcher for the given queue
func NewDispatcher(q *Queue, service string) *Dispatcher {
	return &Dispatcher{
		queue:   q,
		service: service,
		logger:  log.WithComponent("dispatcher"),
	}
}

// Dispatch enqueues an event on the queue derived from base and priority,
// optionally delayed. Returns the envelope's event ID, or the empty string
// when the event could not be enqueued; callers must treat an empty ID as
// "not guaranteed delivered".
func (d *Dispatcher) Dispatch(base string, payload any, eventType string, priority types.Priority, delay time.Duration) string {
	if err := d.queue.Ping(); err != nil {
		d.logger.Error().
			Str("event_type", eventType).
			Err(err).
			Msg("queue unreachable, event not dispatched")
		return ""
	}

	evt, err := event.New(d.service, eventType, payload)
	if err != nil {
		d.logger.Error().
			Str("event_type", eventType).
			Err(err).
			Msg("failed to build envelope")
		return ""
	}

	queueName := Name(base, types.ParsePriority(string(priority)))
	now := time.Now().UTC()
	job := &Job{
		ID:         uuid.New().String(),
		Queue:      queueName,
		Envelope:   evt,
		MaxRetries: evt.MaxRetries,
		RunAt:      now.Add(delay),
		EnqueuedAt: now,
	}

	if err := d.queue.Enqueue(job); err != nil {
		// Log payload key names only; values may carry sensitive data
		d.logger.Error().
			Str("queue", queueName).
			Str("event_type", eventType).
			Str("event_id", evt.EventID).
			Strs("payload_keys", evt.PayloadKeys()).
			Err(err).
			Msg("failed to enqueue job")
		return ""
	}

	metrics.JobsDispatchedTotal.WithLabelValues(string(priority)).Inc()
	d.logger.Debug().
		Str("queue", queueName).
		Str("event_type", eventType).
		Str("event_id", evt.EventID).
		Dur("delay", delay).
		Msg("job dispatched")
	return evt.EventID
}

// DispatchHigh enqueues with high priority
func (d *Dispatcher) DispatchHigh(base string, payload any, eventType string) string {
	return d.Dispatch(base, payload, eventType, types.PriorityHigh, 0)
}

// DispatchNormal enqueues with normal priority
func (d *Dispatcher) DispatchNormal(base string, payload any, eventType string) string {
	return d.Dispatch(base, payload, eventType, types.PriorityNormal, 0)
}

// DispatchLow enqueues with low priority
func (d *Dispatcher) DispatchLow(base string, payload any, eventType string) string {
	return d.Dispatch(base, payload, eventType, types.PriorityLow, 0)
}
