package event

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSSEServer_BroadcastToTopic(t *testing.T) {
	s := NewSSEServer()
	go s.Run()
	defer s.Close()

	topic := PublisherTopic("pub-1")
	subscriber := make(chan Event, 1)
	other := make(chan Event, 1)
	s.Register(topic, subscriber)
	s.Register(PublisherTopic("pub-2"), other)

	s.Broadcast(Event{Topic: topic, Type: EventTypeRecordDelivered, Data: "a"})

	select {
	case got := <-subscriber:
		assert.Equal(t, EventTypeRecordDelivered, got.Type)
		assert.Equal(t, "a", got.Data)
	case <-time.After(2 * time.Second):
		t.Fatal("event not delivered")
	}

	select {
	case <-other:
		t.Fatal("event leaked to another topic")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSSEServer_Unregister(t *testing.T) {
	s := NewSSEServer()

	topic := PublisherTopic("pub-1")
	client := make(chan Event, 1)
	s.Register(topic, client)
	require.Equal(t, 1, s.ClientCount(topic))

	s.Unregister(topic, client)
	assert.Zero(t, s.ClientCount(topic))

	_, open := <-client
	assert.False(t, open, "client channel is closed")

	// a second unregister must not close the channel again
	assert.NotPanics(t, func() { s.Unregister(topic, client) })
}

func TestSSEServer_BroadcastAfterClose(t *testing.T) {
	s := NewSSEServer()
	s.Close()
	s.Close()

	assert.NotPanics(t, func() {
		for i := 0; i < eventBufferSize*2; i++ {
			s.Broadcast(Event{Topic: "publisher:x"})
		}
	})
}

func TestSSEServer_BroadcastNeverBlocks(t *testing.T) {
	s := NewSSEServer()

	done := make(chan struct{})
	go func() {
		for i := 0; i < eventBufferSize+10; i++ {
			s.Broadcast(Event{Topic: "publisher:x"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Broadcast blocked without a running server")
	}
}
