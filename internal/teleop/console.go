package teleop

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gosuri/uitable"

	"github.com/autopeer-io/teleop/internal/pkg/actor"
	"github.com/autopeer-io/teleop/internal/pkg/composer"
	"github.com/autopeer-io/teleop/pkg/geo"
	"github.com/autopeer-io/teleop/pkg/log"
)

const (
	// PlanID and ManeuverID name the plan sent by the start command.
	PlanID     = "TestPlan"
	ManeuverID = "TestManeuver"

	moveNorth = 100.0
	moveEast  = 0.0
	moveSpeed = 1.2
)

const (
	CommandExit   = "exit"
	CommandStop   = "stop"
	CommandStart  = "start"
	CommandStatus = "status"
	CommandHelp   = "help"
)

var commandHelp = [][2]string{
	{CommandStart, "move the target 100 m north at 1.2 m/s"},
	{CommandStop, "abort the target's current plan"},
	{CommandStatus, "show tracked peers"},
	{CommandHelp, "show this help"},
	{CommandExit, "stop the actor and quit"},
}

// OnConsole executes one line of operator input. Failures are reported to the
// operator and never stop the actor.
func (k *KeyboardActor) OnConsole(ctx context.Context, line string, state *VehicleState) {
	cmd := strings.TrimSpace(line)

	switch cmd {
	case "":
	case CommandExit:
		log.Info("Exit requested by operator")
		k.notify("stopping")
		k.Stop()
	case CommandStop:
		k.abort(ctx)
	case CommandStart:
		k.start(ctx, state)
	case CommandStatus:
		k.status(state)
	case CommandHelp:
		k.help()
	default:
		k.notify("unknown command %q, type %q for a list", cmd, CommandHelp)
	}
}

func (k *KeyboardActor) abort(ctx context.Context) {
	if err := k.send(ctx, actor.ToName(k.target), composer.Abort()); err != nil {
		log.Error(err, "Failed to send abort", "target", k.target)
		k.notify("failed to send abort: %v", err)
		return
	}
	log.Info("Abort sent", "target", k.target)
	k.notify("abort sent to %s", k.target)
}

// start sends a one-maneuver plan to the node that produced the last state.
func (k *KeyboardActor) start(ctx context.Context, state *VehicleState) {
	if state.Position == nil {
		k.notify("vehicle not connected")
		return
	}

	move, err := composer.RelativeMove(state.Position, moveNorth, moveEast, moveSpeed)
	if err != nil {
		k.notify("cannot compose move: %v", err)
		return
	}
	plan, err := composer.Plan(move, PlanID, ManeuverID)
	if err != nil {
		log.Error(err, "Invalid plan")
		k.notify("cannot compose plan: %v", err)
		return
	}
	req, err := composer.StartRequest(plan)
	if err != nil {
		log.Error(err, "Invalid plan")
		k.notify("cannot compose plan: %v", err)
		return
	}

	dst := actor.ReplyTo(state.Position)
	if err := k.send(ctx, dst, req); err != nil {
		log.Error(err, "Failed to send plan", "plan", PlanID, "node", dst)
		k.notify("failed to send plan: %v", err)
		return
	}

	log.Info("Plan start requested", "plan", PlanID, "node", dst,
		"lat", geo.Degrees(move.Lat), "lon", geo.Degrees(move.Lon))
	k.notify("plan %s sent to %s", PlanID, dst)
}

func (k *KeyboardActor) status(state *VehicleState) {
	table := uitable.New()
	table.MaxColWidth = 48
	table.AddRow("PEER", "NODE", "ALIVE", "LAST SEEN", "POSITION")

	for _, p := range k.Peers() {
		node, seen, position := "-", "never", "-"
		if p.Resolved {
			node = p.NodeID.String()
		}
		if !p.LastSeen.IsZero() {
			seen = p.LastSeen.Format(time.RFC3339)
		}
		if p.Name == k.target && state.Position != nil {
			lat, lon, hae := geo.StateToWGS84(state.Position)
			position = fmt.Sprintf("%.6f, %.6f, %.1f m", geo.Degrees(lat), geo.Degrees(lon), hae)
		}
		table.AddRow(p.Name, node, p.Alive, seen, position)
	}

	fmt.Fprintln(k.out, table)
}

func (k *KeyboardActor) help() {
	table := uitable.New()
	for _, c := range commandHelp {
		table.AddRow(c[0], c[1])
	}
	fmt.Fprintln(k.out, table)
}

// ConsoleTask reads operator commands from r and runs them on the actor loop.
// The end of input stops the actor.
func (k *KeyboardActor) ConsoleTask(r *actor.LineReader) *actor.Task {
	return actor.NewTask("console", true, func(ctx context.Context) error {
		for {
			line, err := r.ReadLine(ctx)
			if errors.Is(err, io.EOF) {
				log.Info("Console input closed")
				k.Stop()
				return nil
			}
			if err != nil {
				return err
			}

			if !k.Post(func(ctx context.Context, state *VehicleState) {
				k.OnConsole(ctx, line, state)
			}) {
				return nil
			}
		}
	})
}
