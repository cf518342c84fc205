package registry

import (
	"errors"
	"fmt"
	"sync"

	"github.com/openleague/matchday/pkg/event"
	"github.com/openleague/matchday/pkg/log"
)

// Handler is a unit of business logic reacting to one or more event types
type Handler interface {
	CanHandle(eventType string) bool
	HandledEventTypes() []string
	Handle(evt *event.Envelope) error
}

// HandlerError carries a processing failure together with whether the
// dispatch layer should retry it. The flag replaces exception-subtype
// control flow: transient failures (store contention, unreachable
// collaborators) set Retryable; validation failures never do.
type HandlerError struct {
	Err       error
	Retryable bool
}

func (e *HandlerError) Error() string {
	return e.Err.Error()
}

func (e *HandlerError) Unwrap() error {
	return e.Err
}

// Retryable wraps an error so the durable queue path redelivers it
func Retryable(err error) error {
	return &HandlerError{Err: err, Retryable: true}
}

// Permanent wraps an error that must never be retried
func Permanent(err error) error {
	return &HandlerError{Err: err, Retryable: false}
}

// IsRetryable reports whether an error asks for redelivery
func IsRetryable(err error) bool {
	var he *HandlerError
	if errors.As(err, &he) {
		return he.Retryable
	}
	return false
}

// Registry maps event types to the handlers that accept them. Handlers are
// constructed once at process start and registered explicitly; every
// registered handler whose CanHandle matches is invoked, not just the
// first.
type Registry struct {
	mu       sync.RWMutex
	handlers []Handler
}

// NewRegistry creates an empty handler registry
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a constructed handler instance
func (r *Registry) Register(h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers = append(r.handlers, h)
}

// Channels returns the union of event types the registered handlers accept,
// suitable as a subscriber channel list
func (r *Registry) Channels() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]bool)
	var channels []string
	for _, h := range r.handlers {
		for _, t := range h.HandledEventTypes() {
			if !seen[t] {
				seen[t] = true
				channels = append(channels, t)
			}
		}
	}
	return channels
}

// Dispatch invokes every handler that accepts the event's type, in
// registration order. A retryable error from any handler is returned so the
// queue path can redeliver; non-retryable errors have already been
// contained by the handler wrapper. Zero matching handlers is not an
// error: producers may emit types no current consumer needs.
func (r *Registry) Dispatch(evt *event.Envelope) error {
	r.mu.RLock()
	handlers := make([]Handler, len(r.handlers))
	copy(handlers, r.handlers)
	r.mu.RUnlock()

	matched := 0
	var retryErr error
	for _, h := range handlers {
		if !h.CanHandle(evt.EventType) {
			continue
		}
		matched++
		if err := h.Handle(evt); err != nil {
			if IsRetryable(err) {
				retryErr = err
			}
		}
	}

	if matched == 0 {
		logger := log.WithComponent("registry")
		logger.Warn().
			Str("event_id", evt.EventID).
			Str("event_type", evt.EventType).
			Msg("no handler registered for event type")
		return nil
	}

	if retryErr != nil {
		return fmt.Errorf("handler requested retry: %w", retryErr)
	}
	return nil
}

// HandlerCount returns the number of registered handlers
func (r *Registry) HandlerCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handlers)
}
