// Package teleop implements the operator console actor: it tracks one target
// vehicle and turns operator commands into plan and abort messages.
package teleop

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/autopeer-io/teleop/internal/pkg/actor"
	"github.com/autopeer-io/teleop/internal/pkg/metrics"
	"github.com/autopeer-io/teleop/internal/teleop/journal"
	"github.com/autopeer-io/teleop/internal/teleop/server"
	"github.com/autopeer-io/teleop/pkg/imc"
	"github.com/autopeer-io/teleop/pkg/log"
)

// VehicleState is the state owned by the actor loop.
type VehicleState struct {
	// Position is the latest EstimatedState received from the target, nil before contact.
	Position *imc.EstimatedState

	// alive remembers the liveness reported at the last heartbeat tick, per target.
	alive map[string]bool
}

// KeyboardActor drives one target vehicle from operator input.
type KeyboardActor struct {
	*actor.Actor[VehicleState]

	target      string
	peerTimeout time.Duration
	journal     journal.Journal
	out         io.Writer
}

var _ server.StatusSource = (*KeyboardActor)(nil)

// NewKeyboardActor registers target with a and subscribes the state handler.
func NewKeyboardActor(a *actor.Actor[VehicleState], target string, peerTimeout time.Duration, j journal.Journal, out io.Writer) (*KeyboardActor, error) {
	if j == nil {
		j = journal.Nop{}
	}
	if out == nil {
		out = io.Discard
	}

	k := &KeyboardActor{
		Actor:       a,
		target:      target,
		peerTimeout: peerTimeout,
		journal:     j,
		out:         out,
	}

	k.Registry().RegisterTarget(target)

	if err := k.Subscribe(imc.TypeEstimatedState, actor.Handle[*imc.EstimatedState, VehicleState](k.OnEstimatedState)); err != nil {
		return nil, err
	}
	return k, nil
}

// Target returns the name of the vehicle being commanded.
func (k *KeyboardActor) Target() string {
	return k.target
}

// OnEstimatedState keeps the latest state of the target.
func (k *KeyboardActor) OnEstimatedState(_ context.Context, msg *imc.EstimatedState, state *VehicleState) error {
	if !k.Registry().IsFromTarget(msg, k.target) {
		return nil
	}

	if state.Position == nil {
		log.Info("Target connected", "target", k.target, "node", msg.Src)
		k.notify("%s connected (node %s)", k.target, msg.Src)
	}
	state.Position = msg
	return nil
}

// send hands msg to the actor and, on success, to the journal.
func (k *KeyboardActor) send(ctx context.Context, dst actor.Destination, msg imc.Message) error {
	if err := k.Send(ctx, dst, msg); err != nil {
		return err
	}
	k.journal.Record(dst.String(), msg)
	return nil
}

// notify writes a line to the operator.
func (k *KeyboardActor) notify(format string, args ...any) {
	fmt.Fprintf(k.out, format+"\n", args...)
}

// Ready reports whether the actor runs.
func (k *KeyboardActor) Ready() bool {
	return k.Running()
}

// Peers reports the tracked targets with their liveness.
func (k *KeyboardActor) Peers() []server.PeerStatus {
	peers := k.Registry().Snapshot()
	out := make([]server.PeerStatus, 0, len(peers))
	for _, p := range peers {
		out = append(out, server.PeerStatus{Peer: p, Alive: k.Registry().Alive(p.Name, k.peerTimeout)})
	}
	return out
}

// heartbeat sends a Heartbeat to every target that resolves and reports
// targets going silent or coming back.
func (k *KeyboardActor) heartbeat(ctx context.Context, state *VehicleState) {
	if state.alive == nil {
		state.alive = make(map[string]bool)
	}

	for _, name := range k.Registry().Targets() {
		alive := k.Registry().Alive(name, k.peerTimeout)
		gauge := 0.0
		if alive {
			gauge = 1
		}
		metrics.PeerAlive.WithLabelValues(name).Set(gauge)

		if was, ok := state.alive[name]; ok && was != alive {
			if alive {
				log.Info("Target is back", "target", name)
				k.notify("%s is back", name)
			} else {
				log.Warn("Target lost", "target", name, "timeout", k.peerTimeout)
				k.notify("%s lost, no message for %s", name, k.peerTimeout)
			}
		}
		state.alive[name] = alive

		if err := k.Send(ctx, actor.ToName(name), &imc.Heartbeat{}); err != nil {
			log.Debug("Heartbeat not sent", "target", name, "err", err)
		}
	}
}

// HeartbeatTask sends heartbeats from the actor loop every interval.
func (k *KeyboardActor) HeartbeatTask(interval time.Duration) *actor.Task {
	return actor.Every("heartbeat", interval, func(context.Context) {
		k.Post(k.heartbeat)
	})
}
