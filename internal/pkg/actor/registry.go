package actor

import (
	"fmt"
	"sync"
	"time"

	"k8s.io/utils/clock"

	"github.com/autopeer-io/teleop/pkg/imc"
)

// Peer is one remote system the actor knows about.
type Peer struct {
	Name     string     `json:"name"`
	NodeID   imc.NodeID `json:"node"`
	Resolved bool       `json:"resolved"`
	LastSeen time.Time  `json:"lastSeen,omitzero"`
}

// Registry tracks the configured target peers and when each was last heard from.
// Entries are created by RegisterTarget and live as long as the registry.
type Registry struct {
	dir   Directory
	clock clock.PassiveClock

	mu    sync.RWMutex
	peers map[string]*Peer
	order []string
}

func NewRegistry(dir Directory, clk clock.PassiveClock) *Registry {
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &Registry{
		dir:   dir,
		clock: clk,
		peers: make(map[string]*Peer),
	}
}

// RegisterTarget adds a peer of interest before any traffic from it arrives.
func (r *Registry) RegisterTarget(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.peers[name]; ok {
		return
	}
	r.peers[name] = &Peer{Name: name}
	r.order = append(r.order, name)
}

// Resolve identifies the sender of msg through the directory. For a registered
// target the entry is updated with the node id and marked as seen.
func (r *Registry) Resolve(msg imc.Message) (Peer, error) {
	src := msg.Env().Src

	name, err := r.dir.Name(src)
	if err != nil {
		return Peer{}, fmt.Errorf("%w: %s: %w", ErrUnknownPeer, src, err)
	}

	now := r.clock.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.peers[name]
	if !ok {
		return Peer{Name: name, NodeID: src, Resolved: true, LastSeen: now}, nil
	}
	p.NodeID = src
	p.Resolved = true
	p.LastSeen = now
	return *p, nil
}

// IsFromTarget reports whether msg originates from the named peer.
// An unresolvable origin is never from the target.
func (r *Registry) IsFromTarget(msg imc.Message, name string) bool {
	p, err := r.Resolve(msg)
	if err != nil {
		return false
	}
	return p.Name == name
}

// Get returns the entry for a registered target.
func (r *Registry) Get(name string) (Peer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.peers[name]
	if !ok {
		return Peer{}, false
	}
	return *p, true
}

// Alive reports whether the named target was heard from within timeout.
func (r *Registry) Alive(name string, timeout time.Duration) bool {
	p, ok := r.Get(name)
	if !ok || p.LastSeen.IsZero() {
		return false
	}
	return r.clock.Since(p.LastSeen) <= timeout
}

// Targets returns the registered target names in registration order.
func (r *Registry) Targets() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]string(nil), r.order...)
}

// Snapshot copies every registered target in registration order.
func (r *Registry) Snapshot() []Peer {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Peer, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, *r.peers[name])
	}
	return out
}
