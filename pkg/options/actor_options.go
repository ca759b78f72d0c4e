package options

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/autopeer-io/teleop/pkg/imc"
)

var _ IOptions = (*ActorOptions)(nil)

// ActorOptions configures the identity of the operator actor and the peer it tracks.
type ActorOptions struct {
	// Target is the system name of the vehicle to command.
	Target string `json:"target" mapstructure:"target"`

	// Name is the system name this actor announces itself with.
	Name string `json:"name" mapstructure:"name"`

	// NodeID is this actor's address on the network.
	NodeID uint16 `json:"node-id" mapstructure:"node-id"`

	// HeartbeatInterval between heartbeats sent to the target.
	HeartbeatInterval time.Duration `json:"heartbeat-interval" mapstructure:"heartbeat-interval"`

	// PeerTimeout after which a silent target is reported as lost.
	PeerTimeout time.Duration `json:"peer-timeout" mapstructure:"peer-timeout"`

	// QueueSize bounds the inbound message and posted work queues.
	QueueSize int `json:"queue-size" mapstructure:"queue-size"`
}

func NewActorOptions() *ActorOptions {
	return &ActorOptions{
		Target:            "lauv-xplore-1",
		Name:              "ccu-teleop",
		NodeID:            0x4001,
		HeartbeatInterval: time.Second,
		PeerTimeout:       5 * time.Second,
		QueueSize:         256,
	}
}

func (o *ActorOptions) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error

	if o.Target == "" {
		errs = append(errs, errors.New("--actor.target is required"))
	}
	if o.Name == "" {
		errs = append(errs, errors.New("--actor.name is required"))
	}
	if o.Name != "" && o.Name == o.Target {
		errs = append(errs, fmt.Errorf("actor name and target must differ, both are %q", o.Name))
	}
	if o.NodeID == 0 || imc.NodeID(o.NodeID) == imc.NodeBroadcast {
		errs = append(errs, fmt.Errorf("--actor.node-id %#04x is reserved", o.NodeID))
	}
	if o.HeartbeatInterval <= 0 {
		errs = append(errs, errors.New("--actor.heartbeat-interval must be positive"))
	}
	if o.PeerTimeout < o.HeartbeatInterval {
		errs = append(errs, errors.New("--actor.peer-timeout must not be shorter than the heartbeat interval"))
	}
	if o.QueueSize <= 0 {
		errs = append(errs, errors.New("--actor.queue-size must be positive"))
	}

	return errs
}

func (o *ActorOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.Target, "actor.target", o.Target, "System name of the vehicle to command.")
	fs.StringVar(&o.Name, "actor.name", o.Name, "System name this actor announces itself with.")
	fs.Uint16Var(&o.NodeID, "actor.node-id", o.NodeID, "Node id of this actor on the network.")
	fs.DurationVar(&o.HeartbeatInterval, "actor.heartbeat-interval", o.HeartbeatInterval, "Interval between heartbeats sent to the target.")
	fs.DurationVar(&o.PeerTimeout, "actor.peer-timeout", o.PeerTimeout, "Silence after which the target is reported as lost.")
	fs.IntVar(&o.QueueSize, "actor.queue-size", o.QueueSize, "Capacity of the inbound message queue.")
}
