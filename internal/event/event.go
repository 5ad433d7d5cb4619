package event

import "fmt"

// Event is one message pushed to live-tail subscribers.
type Event struct {
	Topic string      // e.g. "publisher:123"
	Type  string      // record_delivered, record_skipped, ...
	Data  interface{} // payload, depends on Type
}

const (
	EventTypeRecordDelivered = "record_delivered" // record handed to the transport
	EventTypeRecordSkipped   = "record_skipped"   // record disabled by publisher config
	EventTypeDeliveryFailed  = "delivery_failed"  // transport returned an error
)

// PublisherTopic is the topic all records of one publisher are broadcast on.
func PublisherTopic(publisherID string) string {
	return fmt.Sprintf("publisher:%s", publisherID)
}

// EventSender fans events out to subscribers of a topic.
type EventSender interface {
	Register(topic string, client chan Event)
	Unregister(topic string, client chan Event)
	Broadcast(event Event)
	Run()
	Close()
}
