package subscriber

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/openleague/matchday/pkg/broker"
	"github.com/openleague/matchday/pkg/event"
	"github.com/openleague/matchday/pkg/log"
	"github.com/openleague/matchday/pkg/metrics"
)

// State is the listener's lifecycle position. It is owned by the
// Subscriber and only mutated through Stop or internal transitions, read
// through an atomic so cross-goroutine cancellation is race-free.
type State int32

const (
	StateIdle State = iota
	StateConnecting
	StateListening
	StateBackoff
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateListening:
		return "listening"
	case StateBackoff:
		return "backoff"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Conn is one open transport connection delivering broadcast messages.
// The receive channel closes when the connection is lost.
type Conn interface {
	Receive() <-chan broker.Message
	Close()
}

// Transport opens connections scoped to a list of logical channels
type Transport interface {
	Connect(channels []string) (Conn, error)
}

// NewBrokerTransport adapts the in-process broker to the Transport
// interface
func NewBrokerTransport(b *broker.Broker) Transport {
	return brokerTransport{b: b}
}

type brokerTransport struct {
	b *broker.Broker
}

func (t brokerTransport) Connect(channels []string) (Conn, error) {
	return t.b.Connect(channels)
}

// HandlerFunc is invoked for every well-formed envelope received
type HandlerFunc func(evt *event.Envelope, channel string)

// Config holds subscriber configuration
type Config struct {
	Channels []string
	Handler  HandlerFunc
	Backoff  time.Duration // reconnect delay after a lost connection, default 5s
}

// Subscriber is a long-lived listener on the pub/sub transport. It
// deserializes inbound envelopes and hands them to the configured handler,
// reconnecting with a fixed backoff whenever the connection drops.
type Subscriber struct {
	transport Transport
	channels  []string
	handler   HandlerFunc
	backoff   time.Duration

	state    atomic.Int32
	stopCh   chan struct{}
	stopOnce sync.Once
	logger   zerolog.Logger
}

// New creates a subscriber; call Run to start listening
func New(transport Transport, cfg Config) *Subscriber {
	backoff := cfg.Backoff
	if backoff <= 0 {
		backoff = 5 * time.Second
	}

	return &Subscriber{
		transport: transport,
		channels:  cfg.Channels,
		handler:   cfg.Handler,
		backoff:   backoff,
		stopCh:    make(chan struct{}),
		logger:    log.WithComponent("subscriber"),
	}
}

// Run blocks, listening until Stop is called. Lost connections are retried
// indefinitely; every reconnect waits out the backoff interval first.
func (s *Subscriber) Run() {
	defer s.setState(StateStopped)

	for {
		if s.stopped() {
			return
		}

		s.setState(StateConnecting)
		conn, err := s.transport.Connect(s.channels)
		if err != nil {
			s.logger.Warn().Err(err).Msg("connect failed")
			if !s.waitBackoff() {
				return
			}
			metrics.ReconnectsTotal.Inc()
			continue
		}

		s.logger.Info().Strs("channels", s.channels).Msg("listening")
		s.setState(StateListening)

		if !s.listen(conn) {
			return
		}

		// Connection lost; back off, then reconnect
		s.logger.Warn().Dur("backoff", s.backoff).Msg("connection lost")
		if !s.waitBackoff() {
			return
		}
		metrics.ReconnectsTotal.Inc()
	}
}

// listen consumes messages until the connection closes or Stop is called.
// Returns false when the subscriber should exit.
func (s *Subscriber) listen(conn Conn) bool {
	for {
		select {
		case msg, ok := <-conn.Receive():
			if !ok {
				return true
			}
			// In-flight handling finishes even if Stop arrives now
			s.handleMessage(msg)
		case <-s.stopCh:
			conn.Close()
			return false
		}
	}
}

func (s *Subscriber) handleMessage(msg broker.Message) {
	metrics.MessagesReceivedTotal.WithLabelValues(msg.Channel).Inc()

	evt, err := event.Decode(msg.Data)
	if err != nil {
		// Malformed JSON can never become well-formed: drop, never retry
		metrics.MalformedMessagesTotal.Inc()
		s.logger.Warn().
			Str("channel", msg.Channel).
			Err(err).
			Msg("dropping malformed message")
		return
	}

	s.handler(evt, msg.Channel)
}

// waitBackoff sleeps for the reconnect interval. Returns false when Stop
// interrupted the wait.
func (s *Subscriber) waitBackoff() bool {
	s.setState(StateBackoff)
	select {
	case <-time.After(s.backoff):
		return true
	case <-s.stopCh:
		return false
	}
}

// Stop requests a graceful exit. Safe to call from any goroutine; the
// next loop or backoff check observes it.
func (s *Subscriber) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})
}

// IsRunning reports whether the state machine is anywhere other than
// Stopped
func (s *Subscriber) IsRunning() bool {
	return s.State() != StateStopped
}

// State returns the current lifecycle state
func (s *Subscriber) State() State {
	return State(s.state.Load())
}

func (s *Subscriber) setState(st State) {
	s.state.Store(int32(st))
}

func (s *Subscriber) stopped() bool {
	select {
	case <-s.stopCh:
		return true
	default:
		return false
	}
}
