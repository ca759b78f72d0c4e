package teleop

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	testingclock "k8s.io/utils/clock/testing"

	"github.com/autopeer-io/teleop/internal/pkg/actor"
	"github.com/autopeer-io/teleop/pkg/imc"
)

const (
	target     = "lauv-xplore-1"
	targetNode = imc.NodeID(0x001f)
	selfNode   = imc.NodeID(0x4001)
)

type sentMessage struct {
	dst imc.NodeID
	msg imc.Message
}

type fakeTransport struct {
	mu      sync.Mutex
	deliver func(imc.Message)
	sent    []sentMessage
	sendErr error
	started chan struct{}
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{started: make(chan struct{})}
}

func (f *fakeTransport) Start(_ context.Context, deliver func(imc.Message)) error {
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

func (f *fakeTransport) Stop() {}

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

func (f *fakeTransport) sentOfType(t imc.Type) []sentMessage {
	var out []sentMessage
	for _, s := range f.Sent() {
		if s.msg.Type() == t {
			out = append(out, s)
		}
	}
	return out
}

// syncBuffer is the operator output, written from the loop and read by tests.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type recordedCommand struct {
	dest string
	typ  imc.Type
}

type fakeJournal struct {
	mu      sync.Mutex
	records []recordedCommand
}

func (j *fakeJournal) Record(dest string, msg imc.Message) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.records = append(j.records, recordedCommand{dest: dest, typ: msg.Type()})
}

func (j *fakeJournal) Run(ctx context.Context) error {
	<-ctx.Done()
	return nil
}

func (j *fakeJournal) Records() []recordedCommand {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]recordedCommand(nil), j.records...)
}

type fixture struct {
	k         *KeyboardActor
	transport *fakeTransport
	journal   *fakeJournal
	out       *syncBuffer
	clock     *testingclock.FakeClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		transport: newFakeTransport(),
		journal:   &fakeJournal{},
		out:       &syncBuffer{},
		clock:     testingclock.NewFakeClock(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)),
	}

	a := actor.New(actor.Config{Name: "ccu-teleop", NodeID: selfNode, Clock: f.clock}, f.transport, &VehicleState{})

	k, err := NewKeyboardActor(a, target, 5*time.Second, f.journal, f.out)
	require.NoError(t, err)
	f.k = k
	return f
}

func announceFrom(id imc.NodeID, name string) *imc.Announce {
	a := &imc.Announce{SysName: name, SysType: "UUV"}
	a.Src = id
	return a
}

func stateFrom(id imc.NodeID) *imc.EstimatedState {
	es := &imc.EstimatedState{Lat: 0.7188, Lon: -0.1518}
	es.Src = id
	return es
}

// learnTarget binds the target name to its node as an Announce would.
func (f *fixture) learnTarget() {
	f.k.Directory().Learn(targetNode, target)
}
