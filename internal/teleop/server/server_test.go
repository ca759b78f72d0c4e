package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autopeer-io/teleop/internal/pkg/actor"
	"github.com/autopeer-io/teleop/pkg/options"
)

type fakeStatus struct {
	ready bool
	peers []PeerStatus
}

func (f *fakeStatus) Ready() bool          { return f.ready }
func (f *fakeStatus) Peers() []PeerStatus { return f.peers }

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestProbes(t *testing.T) {
	status := &fakeStatus{}
	r := NewRouter(status)

	assert.Equal(t, http.StatusOK, get(t, r, "/healthz").Code)
	assert.Equal(t, http.StatusServiceUnavailable, get(t, r, "/readyz").Code)

	status.ready = true
	assert.Equal(t, http.StatusOK, get(t, r, "/readyz").Code)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/healthz", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestPeers(t *testing.T) {
	seen := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	status := &fakeStatus{peers: []PeerStatus{
		{Peer: actor.Peer{Name: "lauv-xplore-1", NodeID: 0x1f, Resolved: true, LastSeen: seen}, Alive: true},
		{Peer: actor.Peer{Name: "caravela"}},
	}}

	rec := get(t, NewRouter(status), "/peers")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var got []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "lauv-xplore-1", got[0]["name"])
	assert.EqualValues(t, 0x1f, got[0]["node"])
	assert.Equal(t, true, got[0]["alive"])
	assert.Equal(t, false, got[1]["resolved"])
	assert.NotContains(t, got[1], "lastSeen")
}

func TestMetrics(t *testing.T) {
	rec := get(t, NewRouter(&fakeStatus{}), "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestServerStartStop(t *testing.T) {
	opts := options.NewHttpOptions()
	opts.Addr = "127.0.0.1:0"
	s := NewServer(opts, &fakeStatus{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not shut down")
	}
}
