package publisher

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/openleague/matchday/pkg/event"
	"github.com/openleague/matchday/pkg/log"
	"github.com/openleague/matchday/pkg/metrics"
)

// Transport is the outbound side of the pub/sub channel
type Transport interface {
	Publish(channel string, data []byte) error
	Ping() error
}

// Config holds publisher configuration
type Config struct {
	Service    string        // producing service name stamped on envelopes
	Attempts   int           // send attempts per event, default 3
	RetryDelay time.Duration // delay before the first retry, doubled per attempt
}

// Publisher emits envelopes on the pub/sub channel with bounded retries.
// Publishing is fire-and-forget relative to the caller's own state change:
// a publish failure is logged and returned but never rolls the caller back.
type Publisher struct {
	transport  Transport
	service    string
	attempts   int
	retryDelay time.Duration
	logger     zerolog.Logger
}

// NewPublisher creates a publisher for the given transport
func NewPublisher(transport Transport, cfg Config) *Publisher {
	attempts := cfg.Attempts
	if attempts <= 0 {
		attempts = 3
	}
	retryDelay := cfg.RetryDelay
	if retryDelay <= 0 {
		retryDelay = 100 * time.Millisecond
	}

	return &Publisher{
		transport:  transport,
		service:    cfg.Service,
		attempts:   attempts,
		retryDelay: retryDelay,
		logger:     log.WithComponent("publisher"),
	}
}

// Publish builds an envelope for the payload and sends it on the channel
// named after the event type. Returns the assigned event ID; the ID is
// fixed at creation and survives any retries.
func (p *Publisher) Publish(eventType string, payload any) (string, error) {
	evt, err := event.New(p.service, eventType, payload)
	if err != nil {
		return "", err
	}

	data, err := evt.Encode()
	if err != nil {
		return "", err
	}

	delay := p.retryDelay
	var lastErr error
	for attempt := 1; attempt <= p.attempts; attempt++ {
		if lastErr = p.transport.Publish(eventType, data); lastErr == nil {
			metrics.EventsPublishedTotal.WithLabelValues(eventType).Inc()
			p.logger.Debug().
				Str("event_id", evt.EventID).
				Str("event_type", eventType).
				Int("attempt", attempt).
				Msg("event published")
			return evt.EventID, nil
		}

		p.logger.Warn().
			Str("event_id", evt.EventID).
			Str("event_type", eventType).
			Int("attempt", attempt).
			Err(lastErr).
			Msg("publish attempt failed")

		if attempt < p.attempts {
			metrics.PublishRetriesTotal.Inc()
			time.Sleep(delay)
			delay *= 2
		}
	}

	metrics.PublishFailuresTotal.WithLabelValues(eventType).Inc()
	p.logger.Error().
		Str("event_id", evt.EventID).
		Str("event_type", eventType).
		Int("attempts", p.attempts).
		Err(lastErr).
		Msg("publish failed after all attempts")
	return "", fmt.Errorf("failed to publish %s after %d attempts: %w", eventType, p.attempts, lastErr)
}

// BatchItem is one event of a batch publish
type BatchItem struct {
	EventType string
	Payload   any
}

// BatchResult reports the outcome of one batch item
type BatchResult struct {
	EventType string
	EventID   string
	Err       error
}

// PublishBatch publishes each item independently; one item's failure does
// not block the others
func (p *Publisher) PublishBatch(items []BatchItem) []BatchResult {
	results := make([]BatchResult, 0, len(items))
	for _, item := range items {
		id, err := p.Publish(item.EventType, item.Payload)
		results = append(results, BatchResult{
			EventType: item.EventType,
			EventID:   id,
			Err:       err,
		})
	}
	return results
}
