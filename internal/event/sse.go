package event

import (
	"sync"

	"github.com/rs/zerolog/log"
)

const eventBufferSize = 256

type SSEServer struct {
	clients   map[string]map[chan Event]bool
	events    chan Event
	done      chan struct{}
	closeOnce sync.Once
	mu        sync.Mutex
}

func NewSSEServer() *SSEServer {
	return &SSEServer{
		clients: make(map[string]map[chan Event]bool),
		events:  make(chan Event, eventBufferSize),
		done:    make(chan struct{}),
	}
}

// Register subscribes client to topic.
func (s *SSEServer) Register(topic string, client chan Event) {
	s.mu.Lock()
	if _, ok := s.clients[topic]; !ok {
		s.clients[topic] = make(map[chan Event]bool)
	}
	s.clients[topic][client] = true
	total := len(s.clients[topic])
	s.mu.Unlock()
	log.Info().Str("topic", topic).Int("clients", total).Msg("sse client registered")
}

// Unregister removes client from topic and closes its channel.
func (s *SSEServer) Unregister(topic string, client chan Event) {
	s.mu.Lock()
	if clients, ok := s.clients[topic]; ok {
		if _, registered := clients[client]; registered {
			delete(clients, client)
			close(client)
		}
		if len(clients) == 0 {
			delete(s.clients, topic)
		}
	}
	remaining := len(s.clients[topic])
	s.mu.Unlock()
	log.Info().Str("topic", topic).Int("clients", remaining).Msg("sse client unregistered")
}

// Broadcast queues event for delivery. It never blocks: when the buffer is
// full or the server is closed the event is dropped.
func (s *SSEServer) Broadcast(event Event) {
	select {
	case <-s.done:
		return
	default:
	}

	select {
	case s.events <- event:
	default:
		log.Warn().Str("topic", event.Topic).Str("type", event.Type).Msg("sse buffer full, event dropped")
	}
}

// Run delivers queued events until Close is called.
func (s *SSEServer) Run() {
	for {
		select {
		case event := <-s.events:
			s.dispatch(event)
		case <-s.done:
			return
		}
	}
}

// Close stops Run. Subscribers are left to unregister themselves.
func (s *SSEServer) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
	})
}

// ClientCount reports the subscribers of topic.
func (s *SSEServer) ClientCount(topic string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients[topic])
}

func (s *SSEServer) dispatch(event Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Slow clients miss events instead of stalling the others.
	for client := range s.clients[event.Topic] {
		select {
		case client <- event:
		default:
			log.Debug().Str("topic", event.Topic).Msg("sse client not ready, event dropped")
		}
	}
}
