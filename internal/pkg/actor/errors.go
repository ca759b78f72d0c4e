package actor

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownPeer is returned when a message origin cannot be resolved to a peer name.
	ErrUnknownPeer = errors.New("unknown peer")

	// ErrUnknownNode is returned by the node directory on a lookup miss.
	ErrUnknownNode = errors.New("unknown node")

	// ErrSendFailed is returned when an outbound message could not be handed to the transport.
	ErrSendFailed = errors.New("send failed")

	// ErrSubscriptionsFrozen is returned when a handler is registered after the actor started.
	ErrSubscriptionsFrozen = errors.New("subscriptions are frozen once the actor runs")

	// ErrAlreadyStarted is returned when Run is called more than once.
	ErrAlreadyStarted = errors.New("actor already started")
)

// TaskError records a task that terminated with an error or a panic.
type TaskError struct {
	Task string
	Err  error
}

func (e *TaskError) Error() string {
	return fmt.Sprintf("task %q failed: %v", e.Task, e.Err)
}

func (e *TaskError) Unwrap() error {
	return e.Err
}

// PanicError wraps a value recovered from a panicking handler or task.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}
