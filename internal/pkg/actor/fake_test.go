package actor

import (
	"context"
	"errors"
	"sync"

	"github.com/autopeer-io/teleop/pkg/imc"
)

type sentMessage struct {
	dst imc.NodeID
	msg imc.Message
}

// fakeTransport records outbound messages and lets tests inject inbound ones.
type fakeTransport struct {
	mu       sync.Mutex
	deliver  func(imc.Message)
	sent     []sentMessage
	sendErr  error
	startErr error
	stopped  bool
	started  chan struct{}
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{started: make(chan struct{})}
}

func (f *fakeTransport) Start(_ context.Context, deliver func(imc.Message)) error {
	if f.startErr != nil {
		return f.startErr
	}
	f.mu.Lock()
	f.deliver = deliver
	f.mu.Unlock()
	close(f.started)
	return nil
}

func (f *fakeTransport) Send(_ context.Context, dst imc.NodeID, msg imc.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, sentMessage{dst: dst, msg: msg})
	return nil
}

func (f *fakeTransport) Stop() {
	f.mu.Lock()
	f.stopped = true
	f.mu.Unlock()
}

func (f *fakeTransport) inject(msg imc.Message) {
	<-f.started
	f.mu.Lock()
	deliver := f.deliver
	f.mu.Unlock()
	deliver(msg)
}

func (f *fakeTransport) Sent() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentMessage(nil), f.sent...)
}

func (f *fakeTransport) Stopped() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stopped
}

var errBoom = errors.New("boom")

func announce(id imc.NodeID, name string) *imc.Announce {
	a := &imc.Announce{SysName: name}
	a.Src = id
	return a
}

func stateFrom(id imc.NodeID) *imc.EstimatedState {
	es := &imc.EstimatedState{Lat: 0.17, Lon: 0.34}
	es.Src = id
	return es
}
