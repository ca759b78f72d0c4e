package mqtt

import (
	"context"
)

// MessageHandler processes one inbound publish. Handlers run on the receive
// goroutine, one at a time, in delivery order.
type MessageHandler func(ctx context.Context, topic string, payload []byte)

// Client is the MQTT v5 session used by the teleop bus.
type Client interface {
	// Start connects in the background and returns immediately.
	// Use AwaitConnection to wait for the first connection.
	Start(ctx context.Context) error

	// Disconnect closes the session. The will is not published.
	Disconnect(ctx context.Context)

	// Publish sends payload to topic.
	Publish(ctx context.Context, topic string, qos int, retain bool, payload []byte) error

	// Subscribe routes publishes matching filter to handler. Subscriptions are
	// restored after a reconnect.
	Subscribe(ctx context.Context, filter string, qos int, handler MessageHandler) error

	// Unsubscribe forgets the handler of filter and tells the broker.
	Unsubscribe(ctx context.Context, filter string) error

	// AwaitConnection blocks until connected or ctx is done.
	AwaitConnection(ctx context.Context) error

	// IsConnected reports whether the session is currently up.
	IsConnected() bool
}
