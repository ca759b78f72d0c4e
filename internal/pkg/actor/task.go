package actor

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"k8s.io/apimachinery/pkg/util/wait"
)

// TaskFunc is the body of a long-running input task. It blocks in its own
// goroutine and hands work to the actor loop with Post.
type TaskFunc func(ctx context.Context) error

// Task is a named input source launched when the actor runs.
type Task struct {
	Name string
	// Once limits the task to a single active instance.
	Once bool
	Run  TaskFunc

	active atomic.Int32
}

func NewTask(name string, once bool, fn TaskFunc) *Task {
	return &Task{Name: name, Once: once, Run: fn}
}

// Running reports whether an instance of the task is active.
func (t *Task) Running() bool {
	return t.active.Load() > 0
}

// acquire marks a run-once task active. It fails if an instance already is.
func (t *Task) acquire() bool {
	if !t.Once {
		t.active.Add(1)
		return true
	}
	return t.active.CompareAndSwap(0, 1)
}

func (t *Task) release() {
	t.active.Add(-1)
}

// Every builds a task that calls fn immediately and then once per interval until cancelled.
func Every(name string, interval time.Duration, fn func(ctx context.Context)) *Task {
	return NewTask(name, true, func(ctx context.Context) error {
		wait.UntilWithContext(ctx, fn, interval)
		return nil
	})
}

// run executes the task body, converting a panic into an error. Returning because
// the context was cancelled is a clean termination.
func (t *Task) run(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &TaskError{Task: t.Name, Err: &PanicError{Value: r}}
		}
	}()

	if err = t.Run(ctx); err != nil {
		if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			return nil
		}
		return &TaskError{Task: t.Name, Err: err}
	}
	return nil
}
