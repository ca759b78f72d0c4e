// Package fsm holds helpers for building looplab/fsm callback tables.
package fsm

import (
	"context"

	"github.com/looplab/fsm"
)

// WrapEvent adapts an action that can fail into a callback. A returned error is
// stored on the event, which makes fsm.Event report it to the caller.
func WrapEvent(fn func(ctx context.Context, event *fsm.Event) error) fsm.Callback {
	return func(ctx context.Context, event *fsm.Event) {
		if err := fn(ctx, event); err != nil {
			event.Err = err
		}
	}
}

// EnterState is the callback key run after entering state.
func EnterState(state string) string {
	return "enter_" + state
}

// BeforeEvent is the callback key run before event, where the transition can
// still be cancelled.
func BeforeEvent(event string) string {
	return "before_" + event
}
