// Package imc defines the typed messages exchanged between the operator actor and
// the vehicles on the network, together with their wire codec.
//
// Every message kind is its own Go type. All of them embed an Envelope that carries
// the routing header (source, destination, entity and timestamp).
package imc

import (
	"fmt"
	"time"
)

// NodeID identifies a system on the network.
type NodeID uint16

// NodeBroadcast addresses every system.
const NodeBroadcast NodeID = 0xFFFF

func (n NodeID) String() string {
	return fmt.Sprintf("0x%04x", uint16(n))
}

// Type is the tag that identifies a message kind on the wire.
type Type string

const (
	TypeHeartbeat         Type = "Heartbeat"
	TypeAnnounce          Type = "Announce"
	TypeEstimatedState    Type = "EstimatedState"
	TypeAbort             Type = "Abort"
	TypeGoto              Type = "Goto"
	TypePlanManeuver      Type = "PlanManeuver"
	TypePlanSpecification Type = "PlanSpecification"
	TypePlanControl       Type = "PlanControl"
)

// Envelope is the routing header shared by all messages.
type Envelope struct {
	Src       NodeID    `json:"src"`
	Dst       NodeID    `json:"dst"`
	SrcEntity uint8     `json:"src_ent"`
	Timestamp time.Time `json:"timestamp"`
}

// Env gives access to the header of the message embedding it.
func (e *Envelope) Env() *Envelope { return e }

// Message is implemented by every message variant.
type Message interface {
	Type() Type
	Env() *Envelope
}

// Maneuver is a message that can be the payload of a PlanManeuver.
type Maneuver interface {
	Message
	maneuver()
}

// New returns an empty message of the given type.
func New(t Type) (Message, error) {
	factory, ok := factories[t]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, t)
	}
	return factory(), nil
}

var factories = map[Type]func() Message{
	TypeHeartbeat:         func() Message { return &Heartbeat{} },
	TypeAnnounce:          func() Message { return &Announce{} },
	TypeEstimatedState:    func() Message { return &EstimatedState{} },
	TypeAbort:             func() Message { return &Abort{} },
	TypeGoto:              func() Message { return &Goto{} },
	TypePlanManeuver:      func() Message { return &PlanManeuver{} },
	TypePlanSpecification: func() Message { return &PlanSpecification{} },
	TypePlanControl:       func() Message { return &PlanControl{} },
}
