// Package bus carries teleop messages over MQTT.
package bus

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/autopeer-io/teleop/internal/pkg/actor"
	"github.com/autopeer-io/teleop/internal/pkg/metrics"
	"github.com/autopeer-io/teleop/internal/pkg/mqtt/paths"
	"github.com/autopeer-io/teleop/pkg/imc"
	"github.com/autopeer-io/teleop/pkg/log"
	"github.com/autopeer-io/teleop/pkg/mqtt"
	mqtttopic "github.com/autopeer-io/teleop/pkg/mqtt/topic"
)

var (
	// ErrNotStarted is returned by Send before Start succeeded or after Stop.
	ErrNotStarted = errors.New("bus not started")

	// ErrDisconnected is returned by Send while the broker connection is down.
	ErrDisconnected = errors.New("bus disconnected from broker")
)

const stopTimeout = 5 * time.Second

// Bus is the MQTT transport of the actor.
type Bus struct {
	self     imc.NodeID
	announce *imc.Announce

	mc     mqtt.Client
	topics *mqtttopic.Builder

	mu      sync.Mutex
	started bool
	deliver func(imc.Message)
	filters []string
}

var _ actor.Transport = (*Bus)(nil)

// New builds a bus for node self. announce is published, retained, once the
// connection is up; it may be nil.
func New(self imc.NodeID, announce *imc.Announce, client mqtt.Client, topics *mqtttopic.Builder) *Bus {
	return &Bus{
		self:     self,
		announce: announce,
		mc:       client,
		topics:   topics,
	}
}

// AnnounceTopic is where node publishes its retained Announce. The client's
// will should clear this topic.
func AnnounceTopic(topics *mqtttopic.Builder, node imc.NodeID) string {
	return topics.Build(paths.Announce, node.String())
}

func (b *Bus) Start(ctx context.Context, deliver func(imc.Message)) error {
	b.mu.Lock()
	b.deliver = deliver
	b.mu.Unlock()

	if err := b.mc.Start(ctx); err != nil {
		return err
	}

	if err := b.mc.AwaitConnection(ctx); err != nil {
		return err
	}

	filters := []string{
		b.topics.Wildcard(paths.Announce),
		b.topics.Wildcard(paths.Telemetry),
		b.topics.Build(paths.Inbox, b.self.String()),
	}
	for _, filter := range filters {
		if err := b.mc.Subscribe(ctx, filter, 1, b.onMessage); err != nil {
			return fmt.Errorf("failed to subscribe to %s: %w", filter, err)
		}
	}

	b.mu.Lock()
	b.started = true
	b.filters = filters
	b.mu.Unlock()

	if b.announce != nil {
		if err := b.publish(ctx, AnnounceTopic(b.topics, b.self), true, b.announce); err != nil {
			return fmt.Errorf("failed to announce: %w", err)
		}
	}

	log.Info("Bus started", "node", b.self, "root", b.topics.Root())
	return nil
}

func (b *Bus) onMessage(_ context.Context, topic string, payload []byte) {
	// A cleared retained announce.
	if len(payload) == 0 {
		log.Debug("Ignoring empty payload", "topic", topic)
		return
	}

	msg, err := imc.Unmarshal(payload)
	if err != nil {
		metrics.MessagesDropped.WithLabelValues("decode").Inc()
		log.Warn("Dropping undecodable message", "topic", topic, "err", err)
		return
	}

	if msg.Env().Src == 0 {
		b.fillOrigin(topic, msg)
	}

	b.mu.Lock()
	deliver := b.deliver
	b.mu.Unlock()

	if deliver != nil {
		deliver(msg)
	}
}

// fillOrigin takes the sender from the topic. Only announce and telemetry
// topics name their publisher; an inbox topic names the receiver.
func (b *Bus) fillOrigin(topic string, msg imc.Message) {
	segment, id, ok := b.topics.Parse(topic)
	if !ok || (segment != paths.Announce && segment != paths.Telemetry) {
		return
	}
	if n, err := strconv.ParseUint(id, 0, 16); err == nil {
		msg.Env().Src = imc.NodeID(n)
	}
}

// Send publishes msg to the inbox of dst. A broadcast goes to the node's
// telemetry topic.
func (b *Bus) Send(ctx context.Context, dst imc.NodeID, msg imc.Message) error {
	b.mu.Lock()
	started := b.started
	b.mu.Unlock()

	if !started {
		return ErrNotStarted
	}
	if !b.mc.IsConnected() {
		return ErrDisconnected
	}

	topic := b.topics.Build(paths.Inbox, dst.String())
	if dst == imc.NodeBroadcast {
		topic = b.topics.Build(paths.Telemetry, b.self.String())
	}
	return b.publish(ctx, topic, false, msg)
}

func (b *Bus) publish(ctx context.Context, topic string, retain bool, msg imc.Message) error {
	payload, err := imc.Marshal(msg)
	if err != nil {
		return err
	}
	return b.mc.Publish(ctx, topic, 1, retain, payload)
}

// Stop drops the subscriptions, clears the retained announce and disconnects.
func (b *Bus) Stop() {
	b.mu.Lock()
	started := b.started
	filters := b.filters
	b.started = false
	b.deliver = nil
	b.filters = nil
	b.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()

	if b.mc.IsConnected() {
		for _, filter := range filters {
			if err := b.mc.Unsubscribe(ctx, filter); err != nil {
				log.Warn("Failed to unsubscribe", "filter", filter, "err", err)
			}
		}
	}

	if started && b.announce != nil && b.mc.IsConnected() {
		if err := b.mc.Publish(ctx, AnnounceTopic(b.topics, b.self), 1, true, nil); err != nil {
			log.Warn("Failed to clear announce", "err", err)
		}
	}

	log.Info("Disconnecting MQTT client...")
	b.mc.Disconnect(ctx)
}
