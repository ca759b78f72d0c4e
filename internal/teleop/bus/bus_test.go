package bus

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autopeer-io/teleop/pkg/imc"
	"github.com/autopeer-io/teleop/pkg/mqtt"
	mqtttopic "github.com/autopeer-io/teleop/pkg/mqtt/topic"
)

type published struct {
	topic   string
	retain  bool
	payload []byte
}

type fakeClient struct {
	mu           sync.Mutex
	connected    bool
	subs         map[string]mqtt.MessageHandler
	order        []string
	published    []published
	disconnected bool
}

var _ mqtt.Client = (*fakeClient)(nil)

func newFakeClient() *fakeClient {
	return &fakeClient{subs: make(map[string]mqtt.MessageHandler)}
}

func (f *fakeClient) Start(context.Context) error { return nil }

func (f *fakeClient) Disconnect(context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connected = false
	f.disconnected = true
}

func (f *fakeClient) Publish(_ context.Context, topic string, _ int, retain bool, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, published{topic: topic, retain: retain, payload: payload})
	return nil
}

func (f *fakeClient) Subscribe(_ context.Context, topic string, _ int, handler mqtt.MessageHandler) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subs[topic] = handler
	f.order = append(f.order, topic)
	return nil
}

func (f *fakeClient) Unsubscribe(_ context.Context, topic string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.subs, topic)
	return nil
}

func (f *fakeClient) AwaitConnection(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connected = true
	return nil
}

func (f *fakeClient) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func (f *fakeClient) receive(filter, topic string, payload []byte) {
	f.mu.Lock()
	h := f.subs[filter]
	f.mu.Unlock()
	if h != nil {
		h(context.Background(), topic, payload)
	}
}

func (f *fakeClient) Published() []published {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]published(nil), f.published...)
}

func startBus(t *testing.T) (*Bus, *fakeClient, *[]imc.Message) {
	t.Helper()
	fc := newFakeClient()
	b := New(0x4001, &imc.Announce{SysName: "ccu-teleop"}, fc, mqtttopic.NewBuilder("imc/v1"))

	var got []imc.Message
	require.NoError(t, b.Start(context.Background(), func(m imc.Message) { got = append(got, m) }))
	return b, fc, &got
}

func TestBusStart(t *testing.T) {
	_, fc, _ := startBus(t)

	assert.Equal(t, []string{
		"imc/v1/announce/+",
		"imc/v1/telemetry/+",
		"imc/v1/inbox/0x4001",
	}, fc.order)

	pubs := fc.Published()
	require.Len(t, pubs, 1)
	assert.Equal(t, "imc/v1/announce/0x4001", pubs[0].topic)
	assert.True(t, pubs[0].retain)

	msg, err := imc.Unmarshal(pubs[0].payload)
	require.NoError(t, err)
	assert.Equal(t, "ccu-teleop", msg.(*imc.Announce).SysName)
}

func TestBusDelivers(t *testing.T) {
	_, fc, got := startBus(t)

	es := &imc.EstimatedState{Lat: 0.5}
	es.Src = 0x1f
	payload, err := imc.Marshal(es)
	require.NoError(t, err)

	fc.receive("imc/v1/telemetry/+", "imc/v1/telemetry/0x001f", payload)
	fc.receive("imc/v1/telemetry/+", "imc/v1/telemetry/0x001f", []byte("not json"))
	fc.receive("imc/v1/announce/+", "imc/v1/announce/0x001f", nil)

	require.Len(t, *got, 1)
	assert.Equal(t, imc.TypeEstimatedState, (*got)[0].Type())
	assert.EqualValues(t, 0x1f, (*got)[0].Env().Src)
}

func TestBusFillsOriginFromTopic(t *testing.T) {
	_, fc, got := startBus(t)

	payload, err := imc.Marshal(&imc.Announce{SysName: "lauv-xplore-1"})
	require.NoError(t, err)
	fc.receive("imc/v1/announce/+", "imc/v1/announce/0x001f", payload)

	require.Len(t, *got, 1)
	assert.EqualValues(t, 0x1f, (*got)[0].Env().Src)
}

func TestBusKeepsInboxOriginUnset(t *testing.T) {
	_, fc, got := startBus(t)

	payload, err := imc.Marshal(&imc.Heartbeat{})
	require.NoError(t, err)
	fc.receive("imc/v1/inbox/0x4001", "imc/v1/inbox/0x4001", payload)

	require.Len(t, *got, 1)
	assert.Zero(t, (*got)[0].Env().Src)
}

func TestBusFillsOriginFromTelemetryTopic(t *testing.T) {
	_, fc, got := startBus(t)

	payload, err := imc.Marshal(&imc.Heartbeat{})
	require.NoError(t, err)
	fc.receive("imc/v1/telemetry/+", "imc/v1/telemetry/0x001f", payload)

	require.Len(t, *got, 1)
	assert.EqualValues(t, 0x1f, (*got)[0].Env().Src)
}

func TestBusSend(t *testing.T) {
	b, fc, _ := startBus(t)

	require.NoError(t, b.Send(context.Background(), 0x1f, &imc.Abort{}))
	require.NoError(t, b.Send(context.Background(), imc.NodeBroadcast, &imc.Heartbeat{}))

	pubs := fc.Published()
	require.Len(t, pubs, 3)
	assert.Equal(t, "imc/v1/inbox/0x001f", pubs[1].topic)
	assert.False(t, pubs[1].retain)
	assert.Equal(t, "imc/v1/telemetry/0x4001", pubs[2].topic)

	fc.mu.Lock()
	fc.connected = false
	fc.mu.Unlock()
	assert.ErrorIs(t, b.Send(context.Background(), 0x1f, &imc.Abort{}), ErrDisconnected)
}

func TestBusSendBeforeStart(t *testing.T) {
	b := New(0x4001, nil, newFakeClient(), mqtttopic.NewBuilder("imc/v1"))
	assert.ErrorIs(t, b.Send(context.Background(), 0x1f, &imc.Abort{}), ErrNotStarted)
}

func TestBusStop(t *testing.T) {
	b, fc, got := startBus(t)
	b.Stop()

	pubs := fc.Published()
	require.Len(t, pubs, 2)
	assert.Equal(t, "imc/v1/announce/0x4001", pubs[1].topic)
	assert.True(t, pubs[1].retain)
	assert.Empty(t, pubs[1].payload)
	assert.True(t, fc.disconnected)
	assert.Empty(t, fc.subs)

	assert.ErrorIs(t, b.Send(context.Background(), 0x1f, &imc.Abort{}), ErrNotStarted)

	payload, err := imc.Marshal(&imc.Heartbeat{})
	require.NoError(t, err)
	fc.receive("imc/v1/telemetry/+", "imc/v1/telemetry/0x001f", payload)
	assert.Empty(t, *got)
}
