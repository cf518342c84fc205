package broker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func receiveOne(t *testing.T, conn *Conn) Message {
	t.Helper()
	select {
	case msg, ok := <-conn.Receive():
		if !ok {
			t.Fatal("connection closed while waiting for message")
		}
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
	}
	return Message{}
}

func TestPublishSubscribe(t *testing.T) {
	b := NewBroker()
	b.Start()
	defer b.Stop()

	conn, err := b.Connect([]string{"match.completed"})
	assert.NoError(t, err)
	defer conn.Close()

	assert.NoError(t, b.Publish("match.completed", []byte(`{"x":1}`)))

	msg := receiveOne(t, conn)
	assert.Equal(t, "match.completed", msg.Channel)
	assert.Equal(t, `{"x":1}`, string(msg.Data))
}

func TestChannelFiltering(t *testing.T) {
	b := NewBroker()
	b.Start()
	defer b.Stop()

	conn, err := b.Connect([]string{"team.created"})
	assert.NoError(t, err)
	defer conn.Close()

	assert.NoError(t, b.Publish("match.completed", []byte("ignored")))
	assert.NoError(t, b.Publish("team.created", []byte("wanted")))

	msg := receiveOne(t, conn)
	assert.Equal(t, "team.created", msg.Channel)
	assert.Equal(t, "wanted", string(msg.Data))
}

func TestFanOut(t *testing.T) {
	b := NewBroker()
	b.Start()
	defer b.Stop()

	a, err := b.Connect([]string{"standings.updated"})
	assert.NoError(t, err)
	defer a.Close()

	c, err := b.Connect([]string{"standings.updated"})
	assert.NoError(t, err)
	defer c.Close()

	assert.Equal(t, 2, b.ConnCount())
	assert.NoError(t, b.Publish("standings.updated", []byte("fact")))

	assert.Equal(t, "fact", string(receiveOne(t, a).Data))
	assert.Equal(t, "fact", string(receiveOne(t, c).Data))
}

func TestDropClosesReceiveChannel(t *testing.T) {
	b := NewBroker()
	b.Start()
	defer b.Stop()

	conn, err := b.Connect([]string{"match.completed"})
	assert.NoError(t, err)

	conn.Drop()

	select {
	case _, ok := <-conn.Receive():
		assert.False(t, ok, "receive channel should be closed after drop")
	case <-time.After(time.Second):
		t.Fatal("receive channel not closed after drop")
	}

	assert.Equal(t, 0, b.ConnCount())
}

func TestStoppedBrokerRejectsTraffic(t *testing.T) {
	b := NewBroker()
	b.Start()
	b.Stop()

	assert.Error(t, b.Ping())
	assert.Error(t, b.Publish("match.completed", []byte("late")))

	_, err := b.Connect([]string{"match.completed"})
	assert.Error(t, err)
}

func TestStopDropsConnections(t *testing.T) {
	b := NewBroker()
	b.Start()

	conn, err := b.Connect([]string{"match.completed"})
	assert.NoError(t, err)

	b.Stop()

	select {
	case _, ok := <-conn.Receive():
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("receive channel not closed after broker stop")
	}
}
