package broker

import (
	"fmt"
	"sync"
)

// Message is one broadcast frame: the logical channel it was published on
// and the raw envelope bytes
type Message struct {
	Channel string
	Data    []byte
}

// Broker is an in-process pub/sub transport. It delivers messages only to
// currently connected subscribers; messages published while a subscriber is
// disconnected are lost. Durable delivery goes through the work queue
// instead.
type Broker struct {
	mu     sync.RWMutex
	conns  map[*Conn]bool
	msgCh  chan Message
	stopCh chan struct{}
	once   sync.Once
}

// Conn is a single subscriber connection scoped to a set of channels
type Conn struct {
	broker   *Broker
	channels map[string]bool
	ch       chan Message
	closed   bool
	mu       sync.Mutex
}

// NewBroker creates a new broker
func NewBroker() *Broker {
	return &Broker{
		conns:  make(map[*Conn]bool),
		msgCh:  make(chan Message, 100), // Buffer up to 100 messages
		stopCh: make(chan struct{}),
	}
}

// Start begins the broker's distribution loop
func (b *Broker) Start() {
	go b.run()
}

// Stop stops the broker and drops every connection
func (b *Broker) Stop() {
	b.once.Do(func() {
		close(b.stopCh)
	})

	b.mu.Lock()
	defer b.mu.Unlock()
	for conn := range b.conns {
		delete(b.conns, conn)
		conn.markClosed()
	}
}

// Ping reports whether the broker is accepting traffic
func (b *Broker) Ping() error {
	select {
	case <-b.stopCh:
		return fmt.Errorf("broker stopped")
	default:
		return nil
	}
}

// Connect opens a subscriber connection scoped to the given channels
func (b *Broker) Connect(channels []string) (*Conn, error) {
	if err := b.Ping(); err != nil {
		return nil, err
	}

	conn := &Conn{
		broker:   b,
		channels: make(map[string]bool, len(channels)),
		ch:       make(chan Message, 50), // Buffer per subscriber
	}
	for _, c := range channels {
		conn.channels[c] = true
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.conns[conn] = true
	return conn, nil
}

// Publish broadcasts data on the named channel to all connected subscribers
func (b *Broker) Publish(channel string, data []byte) error {
	if err := b.Ping(); err != nil {
		return err
	}

	select {
	case b.msgCh <- Message{Channel: channel, Data: data}:
		return nil
	case <-b.stopCh:
		return fmt.Errorf("broker stopped")
	}
}

// ConnCount returns the number of active connections
func (b *Broker) ConnCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.conns)
}

func (b *Broker) run() {
	for {
		select {
		case msg := <-b.msgCh:
			b.broadcast(msg)
		case <-b.stopCh:
			return
		}
	}
}

func (b *Broker) broadcast(msg Message) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for conn := range b.conns {
		if !conn.channels[msg.Channel] {
			continue
		}
		select {
		case conn.ch <- msg:
		default:
			// Subscriber buffer full, skip
		}
	}
}

func (b *Broker) remove(conn *Conn) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.conns, conn)
}

// Receive returns the connection's message channel. The channel is closed
// when the connection is dropped, either by Close or by the transport.
func (c *Conn) Receive() <-chan Message {
	return c.ch
}

// Close disconnects the subscriber
func (c *Conn) Close() {
	c.broker.remove(c)
	c.markClosed()
}

// Drop severs the connection from the transport side, as a network failure
// would. The subscriber observes a closed receive channel.
func (c *Conn) Drop() {
	c.Close()
}

func (c *Conn) markClosed() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.ch)
	}
}
