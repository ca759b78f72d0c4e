package actor

import (
	"context"

	"github.com/looplab/fsm"

	fsmutil "github.com/autopeer-io/teleop/internal/pkg/util/fsm"
	"github.com/autopeer-io/teleop/pkg/log"
)

const (
	StateCreated  = "created"
	StateRunning  = "running"
	StateStopping = "stopping"
	StateStopped  = "stopped"
)

const (
	// EventRun starts the loop.
	EventRun = "run"
	// EventStop requests cancellation. Stopping a created actor skips straight to stopped.
	EventStop = "stop"
	// EventFinish is fired once every task has returned.
	EventFinish = "finish"
)

type lifecycle struct {
	*fsm.FSM
	name string
}

func newLifecycle(name string) *lifecycle {
	l := &lifecycle{name: name}

	events := fsm.Events{
		{Name: EventRun, Src: []string{StateCreated}, Dst: StateRunning},
		{Name: EventStop, Src: []string{StateRunning}, Dst: StateStopping},
		{Name: EventStop, Src: []string{StateCreated}, Dst: StateStopped},
		{Name: EventFinish, Src: []string{StateStopping}, Dst: StateStopped},
	}

	callbacks := fsm.Callbacks{
		"enter_state":                   fsmutil.WrapEvent(l.ActionEnterState),
		fsmutil.EnterState(StateStopped): fsmutil.WrapEvent(l.ActionStopped),
	}

	l.FSM = fsm.NewFSM(StateCreated, events, callbacks)
	return l
}

// ActionEnterState logs every lifecycle transition.
func (l *lifecycle) ActionEnterState(_ context.Context, e *fsm.Event) error {
	log.Debug("Actor lifecycle transition", "actor", l.name, "event", e.Event, "from", e.Src, "to", e.Dst)
	return nil
}

// ActionStopped reports the end of the actor.
func (l *lifecycle) ActionStopped(_ context.Context, e *fsm.Event) error {
	log.Info("Actor stopped", "actor", l.name, "from", e.Src)
	return nil
}

// fire runs a transition. The transition must not be skipped because the caller's
// context is already cancelled, so it always runs on a fresh context.
func (l *lifecycle) fire(event string) error {
	return l.Event(context.Background(), event)
}
