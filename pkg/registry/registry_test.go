package registry

import (
	"errors"
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/openleague/matchday/pkg/event"
	"github.com/openleague/matchday/pkg/log"
)

func TestMain(m *testing.M) {
	log.Init(log.Config{Level: log.ErrorLevel, JSONOutput: true, Output: io.Discard})
	os.Exit(m.Run())
}

// recordingProcessor counts invocations and returns a configured error
type recordingProcessor struct {
	name    string
	types   []string
	err     error
	handled []*event.Envelope
}

func (p *recordingProcessor) Name() string                { return p.name }
func (p *recordingProcessor) HandledEventTypes() []string { return p.types }
func (p *recordingProcessor) ProcessEvent(evt *event.Envelope) error {
	p.handled = append(p.handled, evt)
	return p.err
}

func validEnvelope(t *testing.T, eventType string) *event.Envelope {
	t.Helper()
	evt, err := event.New("test-service", eventType, map[string]any{"id": 1})
	assert.NoError(t, err)
	return evt
}

func TestDispatchInvokesAllMatchingHandlers(t *testing.T) {
	cache := &recordingProcessor{name: "cache", types: []string{event.TypeTeamCreated}}
	audit := &recordingProcessor{name: "audit", types: []string{event.TypeTeamCreated, event.TypeMatchCompleted}}
	other := &recordingProcessor{name: "other", types: []string{event.TypeMatchCompleted}}

	reg := NewRegistry()
	reg.Register(Wrap(cache))
	reg.Register(Wrap(audit))
	reg.Register(Wrap(other))

	evt := validEnvelope(t, event.TypeTeamCreated)
	assert.NoError(t, reg.Dispatch(evt))

	// Every matching handler runs, not just the first
	assert.Len(t, cache.handled, 1)
	assert.Len(t, audit.handled, 1)
	assert.Len(t, other.handled, 0)
}

func TestDispatchNoMatchIsNotAnError(t *testing.T) {
	reg := NewRegistry()
	reg.Register(Wrap(&recordingProcessor{name: "cache", types: []string{event.TypeTeamCreated}}))

	evt := validEnvelope(t, "future.event.type")
	assert.NoError(t, reg.Dispatch(evt))
}

func TestDispatchContainsNonRetryableErrors(t *testing.T) {
	failing := &recordingProcessor{
		name:  "failing",
		types: []string{event.TypeMatchCompleted},
		err:   Permanent(errors.New("bad payload")),
	}
	reg := NewRegistry()
	reg.Register(Wrap(failing))

	evt := validEnvelope(t, event.TypeMatchCompleted)
	assert.NoError(t, reg.Dispatch(evt))
	assert.Len(t, failing.handled, 1)
}

func TestDispatchPropagatesRetryableErrors(t *testing.T) {
	failing := &recordingProcessor{
		name:  "failing",
		types: []string{event.TypeMatchCompleted},
		err:   Retryable(errors.New("db unavailable")),
	}
	reg := NewRegistry()
	reg.Register(Wrap(failing))

	evt := validEnvelope(t, event.TypeMatchCompleted)
	err := reg.Dispatch(evt)
	assert.Error(t, err)
	assert.True(t, IsRetryable(err))
}

func TestWrapRejectsMalformedEnvelope(t *testing.T) {
	p := &recordingProcessor{name: "p", types: []string{event.TypeMatchCompleted}}
	h := Wrap(p)

	evt := validEnvelope(t, event.TypeMatchCompleted)
	evt.Service = ""

	assert.NoError(t, h.Handle(evt))
	// Structural validation failed; the processor never ran
	assert.Len(t, p.handled, 0)
}

func TestWrapContainsPanics(t *testing.T) {
	p := &panickingProcessor{}
	h := Wrap(p)

	evt := validEnvelope(t, event.TypeMatchCompleted)
	assert.NotPanics(t, func() {
		assert.NoError(t, h.Handle(evt))
	})
}

type panickingProcessor struct{}

func (p *panickingProcessor) Name() string                { return "panicking" }
func (p *panickingProcessor) HandledEventTypes() []string { return []string{event.TypeMatchCompleted} }
func (p *panickingProcessor) ProcessEvent(evt *event.Envelope) error {
	panic("unexpected state")
}

func TestCanHandle(t *testing.T) {
	h := Wrap(&recordingProcessor{name: "p", types: []string{event.TypeTeamCreated, event.TypeTeamUpdated}})

	assert.True(t, h.CanHandle(event.TypeTeamCreated))
	assert.True(t, h.CanHandle(event.TypeTeamUpdated))
	assert.False(t, h.CanHandle(event.TypeMatchCompleted))
}

func TestChannels(t *testing.T) {
	reg := NewRegistry()
	reg.Register(Wrap(&recordingProcessor{name: "a", types: []string{event.TypeTeamCreated, event.TypeMatchCompleted}}))
	reg.Register(Wrap(&recordingProcessor{name: "b", types: []string{event.TypeMatchCompleted, event.TypeStandingsUpdated}}))

	channels := reg.Channels()
	assert.ElementsMatch(t, []string{
		event.TypeTeamCreated,
		event.TypeMatchCompleted,
		event.TypeStandingsUpdated,
	}, channels)
}

func TestRetryableFlag(t *testing.T) {
	assert.True(t, IsRetryable(Retryable(errors.New("x"))))
	assert.False(t, IsRetryable(Permanent(errors.New("x"))))
	assert.False(t, IsRetryable(errors.New("plain")))
	assert.False(t, IsRetryable(nil))
}
