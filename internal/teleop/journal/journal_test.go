package journal

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	testingclock "k8s.io/utils/clock/testing"

	"github.com/autopeer-io/teleop/pkg/imc"
	"github.com/autopeer-io/teleop/pkg/options"
)

type memStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	keys    []string
	err     error
}

func newMemStore() *memStore {
	return &memStore{objects: make(map[string][]byte)}
}

func (m *memStore) Put(_ context.Context, key string, body []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.objects[key] = body
	m.keys = append(m.keys, key)
	return nil
}

func (m *memStore) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.keys...)
}

func TestKey(t *testing.T) {
	ts := time.Date(2025, 3, 7, 9, 5, 1, 42, time.FixedZone("WET", 3600))
	assert.Equal(t, "commands/2025/03/07/080501.000000042-000012-Abort.json", Key(ts, 12, imc.TypeAbort))
}

func TestUploader(t *testing.T) {
	clk := testingclock.NewFakeClock(time.Date(2025, 3, 7, 8, 0, 0, 0, time.UTC))
	store := newMemStore()
	u := NewUploader("ccu-teleop", store, clk)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- u.Run(ctx) }()

	u.Record("lauv-xplore-1", &imc.Abort{})
	u.Record("0x001f", &imc.PlanControl{Kind: imc.PlanControlRequest, Op: imc.PlanOpStart, PlanID: "TestPlan"})

	require.Eventually(t, func() bool { return len(store.Keys()) == 2 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	keys := store.Keys()
	assert.Equal(t, "commands/2025/03/07/080000.000000000-000001-Abort.json", keys[0])

	var e Entry
	require.NoError(t, json.Unmarshal(store.objects[keys[1]], &e))
	assert.Equal(t, "ccu-teleop", e.Actor)
	assert.Equal(t, "0x001f", e.Destination)
	assert.Equal(t, imc.TypePlanControl, e.Type)

	msg, err := imc.Unmarshal(e.Message)
	require.NoError(t, err)
	assert.Equal(t, "TestPlan", msg.(*imc.PlanControl).PlanID)
}

func TestUploaderFlushesOnStop(t *testing.T) {
	store := newMemStore()
	u := NewUploader("ccu-teleop", store, nil)

	u.Record("lauv-xplore-1", &imc.Abort{})
	u.Record("lauv-xplore-1", &imc.Abort{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, u.Run(ctx))
	assert.Len(t, store.Keys(), 2)
}

func TestUploaderNeverBlocks(t *testing.T) {
	store := newMemStore()
	store.err = errors.New("unreachable")
	u := NewUploader("ccu-teleop", store, nil)

	done := make(chan struct{})
	go func() {
		for range defaultQueueSize * 2 {
			u.Record("lauv-xplore-1", &imc.Abort{})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Record blocked on a full queue")
	}
	assert.Len(t, u.queue, defaultQueueSize)
}

func TestNewDisabled(t *testing.T) {
	j, err := New(context.Background(), "ccu-teleop", options.NewS3Options())
	require.NoError(t, err)
	assert.IsType(t, Nop{}, j)

	j.Record("lauv-xplore-1", &imc.Abort{})
	assert.NoError(t, j.Run(context.Background()))
}
