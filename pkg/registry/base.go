package registry

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/openleague/matchday/pkg/event"
	"github.com/openleague/matchday/pkg/log"
	"github.com/openleague/matchday/pkg/metrics"
)

// EventProcessor is the business-logic half of a handler. Wrap adapts it
// into a full Handler with validation, lifecycle logging and error
// containment.
type EventProcessor interface {
	Name() string
	HandledEventTypes() []string
	ProcessEvent(evt *event.Envelope) error
}

// Wrap builds a Handler around a processor. The wrapper:
//   - rejects structurally invalid envelopes with a warning, without
//     invoking the processor (malformed envelopes never self-correct)
//   - logs start, success and failure with event context
//   - contains processor errors and panics so the listen loop never
//     crashes; only retryable errors surface to the dispatch layer, where
//     the durable queue path governs redelivery
func Wrap(p EventProcessor) Handler {
	return &baseHandler{
		processor: p,
		logger:    log.WithComponent(p.Name()),
	}
}

type baseHandler struct {
	processor EventProcessor
	logger    zerolog.Logger
}

func (h *baseHandler) CanHandle(eventType string) bool {
	for _, t := range h.processor.HandledEventTypes() {
		if t == eventType {
			return true
		}
	}
	return false
}

func (h *baseHandler) HandledEventTypes() []string {
	return h.processor.HandledEventTypes()
}

func (h *baseHandler) Handle(evt *event.Envelope) (err error) {
	if verr := evt.Validate(); verr != nil {
		h.logger.Warn().
			Str("event_id", evt.EventID).
			Str("event_type", evt.EventType).
			Err(verr).
			Msg("dropping malformed envelope")
		metrics.HandlerInvocationsTotal.WithLabelValues(h.processor.Name(), "invalid").Inc()
		return nil
	}

	h.logger.Debug().
		Str("event_id", evt.EventID).
		Str("event_type", evt.EventType).
		Str("service", evt.Service).
		Msg("handling event")

	timer := metrics.NewTimer()
	defer func() {
		timer.ObserveDurationVec(metrics.HandlerDuration, h.processor.Name())

		if r := recover(); r != nil {
			h.logger.Error().
				Str("event_id", evt.EventID).
				Str("event_type", evt.EventType).
				Interface("panic", r).
				Msg("handler panicked")
			metrics.HandlerInvocationsTotal.WithLabelValues(h.processor.Name(), "failure").Inc()
			err = nil
		}
	}()

	if perr := h.processor.ProcessEvent(evt); perr != nil {
		h.logger.Error().
			Str("event_id", evt.EventID).
			Str("event_type", evt.EventType).
			Strs("payload_keys", evt.PayloadKeys()).
			Err(perr).
			Msg("handler failed")
		metrics.HandlerInvocationsTotal.WithLabelValues(h.processor.Name(), "failure").Inc()

		if IsRetryable(perr) {
			// Surfaces so the job scheduler retries with backoff
			return fmt.Errorf("%s: %w", h.processor.Name(), perr)
		}
		// Contained: the listen loop must not crash over one bad event
		return nil
	}

	h.logger.Debug().
		Str("event_id", evt.EventID).
		Str("event_type", evt.EventType).
		Msg("event handled")
	metrics.HandlerInvocationsTotal.WithLabelValues(h.processor.Name(), "success").Inc()
	return nil
}
