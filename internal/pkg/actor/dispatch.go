package actor

import (
	"context"
	"fmt"
	"sync"

	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	"github.com/autopeer-io/teleop/internal/pkg/metrics"
	"github.com/autopeer-io/teleop/pkg/imc"
	"github.com/autopeer-io/teleop/pkg/log"
)

// HandlerFunc reacts to one inbound message. state is owned by the actor and
// must only be touched from inside a handler or posted work.
type HandlerFunc[S any] func(ctx context.Context, msg imc.Message, state *S) error

// TypedHandlerFunc is a handler bound to one concrete message type.
type TypedHandlerFunc[T imc.Message, S any] func(ctx context.Context, msg T, state *S) error

// Handle adapts a typed handler so it can be subscribed to its message type.
func Handle[T imc.Message, S any](handler TypedHandlerFunc[T, S]) HandlerFunc[S] {
	return func(ctx context.Context, msg imc.Message, state *S) error {
		typed, ok := msg.(T)
		if !ok {
			return fmt.Errorf("%w: handler expects %T, got %T", imc.ErrMalformed, typed, msg)
		}
		return handler(ctx, typed, state)
	}
}

// Dispatcher maps message types to the handlers subscribed to them.
type Dispatcher[S any] struct {
	mu       sync.RWMutex
	handlers map[imc.Type][]HandlerFunc[S]
	frozen   bool
}

func NewDispatcher[S any]() *Dispatcher[S] {
	return &Dispatcher[S]{handlers: make(map[imc.Type][]HandlerFunc[S])}
}

// Subscribe appends handler to the list for t. Handlers fire in subscription order.
func (d *Dispatcher[S]) Subscribe(t imc.Type, handler HandlerFunc[S]) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.frozen {
		return fmt.Errorf("%w: %s", ErrSubscriptionsFrozen, t)
	}
	d.handlers[t] = append(d.handlers[t], handler)
	return nil
}

// Freeze rejects every later Subscribe.
func (d *Dispatcher[S]) Freeze() {
	d.mu.Lock()
	d.frozen = true
	d.mu.Unlock()
}

// Dispatch invokes every handler subscribed to the type of msg exactly once.
// A failing or panicking handler is logged and isolated; the remaining handlers
// still run. The isolated failures are returned as an aggregate.
func (d *Dispatcher[S]) Dispatch(ctx context.Context, msg imc.Message, state *S) error {
	t := msg.Type()

	d.mu.RLock()
	handlers := d.handlers[t]
	d.mu.RUnlock()

	metrics.MessagesDispatched.WithLabelValues(string(t)).Inc()

	var errs []error
	for i, handler := range handlers {
		if err := invoke(ctx, handler, msg, state); err != nil {
			metrics.HandlerFailures.WithLabelValues(string(t)).Inc()
			log.Error(err, "Handler failed", "type", t, "handler", i, "src", msg.Env().Src)
			errs = append(errs, err)
		}
	}
	return utilerrors.NewAggregate(errs)
}

func invoke[S any](ctx context.Context, handler HandlerFunc[S], msg imc.Message, state *S) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r}
		}
	}()
	return handler(ctx, msg, state)
}
