package actor

import (
	"context"
	"fmt"

	"github.com/autopeer-io/teleop/pkg/imc"
)

// Transport moves encoded messages between the actor and the network.
type Transport interface {
	// Start begins delivering inbound messages. deliver is called from a single
	// goroutine in arrival order and may block.
	Start(ctx context.Context, deliver func(imc.Message)) error

	// Send hands msg to the network, addressed to dst.
	Send(ctx context.Context, dst imc.NodeID, msg imc.Message) error

	// Stop closes the listener. No deliver call starts after Stop returns.
	Stop()
}

// Destination names the receiver of an outbound message.
type Destination interface {
	fmt.Stringer
	resolve(dir *NodeDirectory) (imc.NodeID, error)
}

type byName string

func (d byName) String() string { return string(d) }

func (d byName) resolve(dir *NodeDirectory) (imc.NodeID, error) {
	return dir.Lookup(string(d))
}

type byNode imc.NodeID

func (d byNode) String() string { return imc.NodeID(d).String() }

func (d byNode) resolve(*NodeDirectory) (imc.NodeID, error) {
	return imc.NodeID(d), nil
}

// ToName addresses the system announced under name.
func ToName(name string) Destination { return byName(name) }

// ToNode addresses a node id directly.
func ToNode(id imc.NodeID) Destination { return byNode(id) }

// ReplyTo addresses the node that produced msg.
func ReplyTo(msg imc.Message) Destination { return byNode(msg.Env().Src) }
