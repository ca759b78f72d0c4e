package actor

import (
	"fmt"
	"sync"

	"github.com/autopeer-io/teleop/pkg/imc"
)

// Directory resolves node identifiers to system names.
type Directory interface {
	Name(id imc.NodeID) (string, error)
}

// NodeDirectory is an in-memory Directory fed by Announce messages.
type NodeDirectory struct {
	mu    sync.RWMutex
	names map[imc.NodeID]string
	ids   map[string]imc.NodeID
}

var _ Directory = (*NodeDirectory)(nil)

func NewNodeDirectory() *NodeDirectory {
	return &NodeDirectory{
		names: make(map[imc.NodeID]string),
		ids:   make(map[string]imc.NodeID),
	}
}

// Learn binds name to id. A system that reappears under a new id replaces its old binding.
func (d *NodeDirectory) Learn(id imc.NodeID, name string) {
	if name == "" || id == imc.NodeBroadcast {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if old, ok := d.ids[name]; ok && old != id {
		delete(d.names, old)
	}
	if prev, ok := d.names[id]; ok && prev != name {
		delete(d.ids, prev)
	}
	d.names[id] = name
	d.ids[name] = id
}

func (d *NodeDirectory) Name(id imc.NodeID) (string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	name, ok := d.names[id]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownNode, id)
	}
	return name, nil
}

// Lookup is the reverse of Name.
func (d *NodeDirectory) Lookup(name string) (imc.NodeID, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	id, ok := d.ids[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownNode, name)
	}
	return id, nil
}
