package handlers

import (
	"fmt"

	"github.com/openleague/matchday/pkg/publisher"
	"github.com/openleague/matchday/pkg/queue"
	"github.com/openleague/matchday/pkg/types"
)

// Emitter publishes follow-on events after a handler's transaction commits.
// Emission is best-effort: the committed state change stands regardless of
// the emit outcome.
//
// An emitter may fan the same fact out over more than one path, each path
// carrying its own independently identified envelope. Consumers reached on
// both paths therefore see the fact twice under different event IDs and
// must be naturally idempotent, like the standings cache invalidation.
type Emitter interface {
	Emit(eventType string, payload any, priority types.Priority) (string, error)
}

// fanoutEmitter broadcasts on the live channel and also enqueues on the
// durable priority queue, so connected services hear the event immediately
// while disconnected ones pick it up from the queue path
type fanoutEmitter struct {
	publisher  *publisher.Publisher
	dispatcher *queue.Dispatcher
	base       string
}

// NewFanoutEmitter combines the broadcast publisher with the durable
// dispatcher. Either may be nil to use only the other path.
func NewFanoutEmitter(pub *publisher.Publisher, disp *queue.Dispatcher, base string) Emitter {
	return &fanoutEmitter{publisher: pub, dispatcher: disp, base: base}
}

// Emit sends the event on both paths. The durable queue is the path of
// record: when the dispatch lands, Emit reports success with the queued
// event's ID even if the broadcast failed, since queued consumers will
// still see the fact. A failed dispatch falls back to the broadcast
// outcome.
func (e *fanoutEmitter) Emit(eventType string, payload any, priority types.Priority) (string, error) {
	var id string
	var err error

	if e.publisher != nil {
		id, err = e.publisher.Publish(eventType, payload)
	}
	if e.dispatcher != nil {
		if qid := e.dispatcher.Dispatch(e.base, payload, eventType, priority, 0); qid != "" {
			return qid, nil
		}
		if err == nil {
			err = fmt.Errorf("durable dispatch failed for %s", eventType)
		}
		return id, err
	}
	return id, err
}
