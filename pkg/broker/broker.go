package broker

import "context"

// Message is a single log entry delivered to a consumer.
type Message struct {
	Topic     string
	Partition int
	ID        string
	Key       string
	Payload   []byte
}

// Handler processes one delivered message. Returning nil acknowledges the
// message; a non-nil error leaves it pending for redelivery, so handlers
// reserve errors for transient failures and swallow everything terminal.
type Handler func(ctx context.Context, msg Message) error

type Publisher interface {
	Publish(ctx context.Context, topic, key string, payload []byte) error
}

type Subscriber interface {
	Subscribe(ctx context.Context, topic string, handler Handler) error
}

type Broker interface {
	Publisher
	Subscriber
}
