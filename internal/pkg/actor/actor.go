// Package actor runs a message-driven actor: one loop goroutine owns the actor
// state and executes, one at a time, the handlers for inbound messages and the
// work posted by input tasks.
package actor

import (
	"context"
	"fmt"
	"sync"

	"k8s.io/utils/clock"

	"github.com/autopeer-io/teleop/internal/pkg/metrics"
	"github.com/autopeer-io/teleop/pkg/imc"
	"github.com/autopeer-io/teleop/pkg/log"
)

const defaultQueueSize = 256

// WorkFunc is work executed on the actor loop.
type WorkFunc[S any] func(ctx context.Context, state *S)

// Config holds the identity and tunables of an actor.
type Config struct {
	// Name is the system name the actor announces itself with.
	Name string
	// NodeID is stamped as source on every outbound message.
	NodeID imc.NodeID
	// QueueSize bounds the inbox and the posted work queue.
	QueueSize int
	// Clock drives peer liveness. Defaults to the real clock.
	Clock clock.PassiveClock
}

// Actor couples a transport, a dispatcher and a set of input tasks around a
// single state value of type S.
type Actor[S any] struct {
	name  string
	self  imc.NodeID
	clock clock.PassiveClock

	state      *S
	transport  Transport
	directory  *NodeDirectory
	registry   *Registry
	dispatcher *Dispatcher[S]
	lc         *lifecycle

	tasks  []*Task
	inbox  chan imc.Message
	posted chan WorkFunc[S]

	stopOnce sync.Once
	stopping chan struct{}
	done     chan struct{}

	// taskMu guards taskCtx and tasksClosed against concurrent Launch calls.
	taskMu      sync.Mutex
	taskCtx     context.Context
	tasksClosed bool
	taskWG      sync.WaitGroup
}

// New builds an actor in the created state.
func New[S any](cfg Config, transport Transport, state *S) *Actor[S] {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaultQueueSize
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.RealClock{}
	}
	if state == nil {
		state = new(S)
	}

	dir := NewNodeDirectory()
	a := &Actor[S]{
		name:       cfg.Name,
		self:       cfg.NodeID,
		clock:      cfg.Clock,
		state:      state,
		transport:  transport,
		directory:  dir,
		registry:   NewRegistry(dir, cfg.Clock),
		dispatcher: NewDispatcher[S](),
		lc:         newLifecycle(cfg.Name),
		inbox:      make(chan imc.Message, cfg.QueueSize),
		posted:     make(chan WorkFunc[S], cfg.QueueSize),
		stopping:   make(chan struct{}),
		done:       make(chan struct{}),
	}

	_ = a.dispatcher.Subscribe(imc.TypeAnnounce, Handle[*imc.Announce, S](a.handleAnnounce))
	return a
}

func (a *Actor[S]) handleAnnounce(_ context.Context, msg *imc.Announce, _ *S) error {
	a.directory.Learn(msg.Src, msg.SysName)
	return nil
}

func (a *Actor[S]) Name() string               { return a.name }
func (a *Actor[S]) NodeID() imc.NodeID         { return a.self }
func (a *Actor[S]) Registry() *Registry        { return a.registry }
func (a *Actor[S]) Directory() *NodeDirectory  { return a.directory }
func (a *Actor[S]) Dispatcher() *Dispatcher[S] { return a.dispatcher }

// State returns the actor state. It is only safe to touch from handlers, posted
// work, or after the actor stopped.
func (a *Actor[S]) State() *S { return a.state }

// Current returns the lifecycle state.
func (a *Actor[S]) Current() string { return a.lc.Current() }

// Running reports whether the actor accepts messages.
func (a *Actor[S]) Running() bool { return a.lc.Is(StateRunning) }

// Done is closed once the actor reached the stopped state.
func (a *Actor[S]) Done() <-chan struct{} { return a.done }

// Subscribe registers handler for messages of type t. It fails once the actor runs.
func (a *Actor[S]) Subscribe(t imc.Type, handler HandlerFunc[S]) error {
	return a.dispatcher.Subscribe(t, handler)
}

// AddTask registers a task to be launched by Run.
func (a *Actor[S]) AddTask(tasks ...*Task) {
	a.tasks = append(a.tasks, tasks...)
}

// Run starts the transport and the registered tasks, then executes handlers and
// posted work until the actor is stopped or ctx is cancelled. It returns after
// every task has returned.
func (a *Actor[S]) Run(ctx context.Context) error {
	if err := a.lc.fire(EventRun); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrAlreadyStarted, a.lc.Current(), err)
	}
	a.dispatcher.Freeze()

	logger := log.WithValues("actor", a.name, "node", a.self)
	logger.Info("Actor starting")

	taskCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		select {
		case <-taskCtx.Done():
			a.Stop()
		case <-a.stopping:
		}
		cancel()
	}()

	a.taskMu.Lock()
	a.taskCtx = taskCtx
	a.taskMu.Unlock()

	var startErr error
	if err := a.transport.Start(taskCtx, a.deliver); err != nil {
		if !a.isStopping() {
			startErr = fmt.Errorf("failed to start transport: %w", err)
			logger.Error(startErr, "Actor cannot run")
		}
		a.Stop()
	} else {
		for _, task := range a.tasks {
			a.Launch(task)
		}
		a.loop(taskCtx)
	}

	a.transport.Stop()

	a.taskMu.Lock()
	a.tasksClosed = true
	a.taskMu.Unlock()
	a.taskWG.Wait()

	if err := a.lc.fire(EventFinish); err != nil {
		logger.Error(err, "Unexpected lifecycle state on finish")
	}
	close(a.done)
	logger.Info("Actor stopped")

	return startErr
}

func (a *Actor[S]) loop(ctx context.Context) {
	for {
		select {
		case <-a.stopping:
			a.drain()
			return
		case msg := <-a.inbox:
			a.handle(ctx, msg)
		case work := <-a.posted:
			if !a.isStopping() {
				work(ctx, a.state)
			}
		}
	}
}

// drain discards everything queued but not yet executed.
func (a *Actor[S]) drain() {
	for {
		select {
		case <-a.inbox:
			metrics.MessagesDropped.WithLabelValues("stopping").Inc()
		case <-a.posted:
		default:
			return
		}
	}
}

func (a *Actor[S]) handle(ctx context.Context, msg imc.Message) {
	if a.isStopping() {
		metrics.MessagesDropped.WithLabelValues("stopping").Inc()
		return
	}

	// Errors are logged and counted by the dispatcher.
	_ = a.dispatcher.Dispatch(ctx, msg, a.state)

	// Keeps liveness fresh for targets no handler asked about.
	_, _ = a.registry.Resolve(msg)
}

// deliver queues an inbound message for dispatch. Messages arriving after the
// actor began stopping are dropped, as are the actor's own messages.
func (a *Actor[S]) deliver(msg imc.Message) {
	if msg == nil {
		return
	}
	if msg.Env().Src == a.self {
		metrics.MessagesDropped.WithLabelValues("loopback").Inc()
		return
	}
	if a.isStopping() {
		metrics.MessagesDropped.WithLabelValues("stopping").Inc()
		return
	}

	select {
	case a.inbox <- msg:
	case <-a.stopping:
		metrics.MessagesDropped.WithLabelValues("stopping").Inc()
	}
}

// Post queues work for the actor loop. It reports false if the actor is stopping
// and the work will never run. Post must not be called from the loop itself
// while the queue may be full.
func (a *Actor[S]) Post(work WorkFunc[S]) bool {
	if a.isStopping() {
		return false
	}

	select {
	case a.posted <- work:
		return true
	case <-a.stopping:
		return false
	}
}

// Launch starts task in its own goroutine. A run-once task that already has an
// active instance is not started again. Launch reports whether the task started.
func (a *Actor[S]) Launch(task *Task) bool {
	a.taskMu.Lock()
	defer a.taskMu.Unlock()

	if a.taskCtx == nil || a.tasksClosed || a.isStopping() {
		log.Debug("Task not launched, actor is not running", "actor", a.name, "task", task.Name)
		return false
	}
	if !task.acquire() {
		log.Debug("Task already running, skipping launch", "actor", a.name, "task", task.Name)
		return false
	}

	ctx := a.taskCtx
	a.taskWG.Add(1)
	go func() {
		defer a.taskWG.Done()
		defer task.release()

		if err := task.run(ctx); err != nil {
			metrics.TaskFailures.WithLabelValues(task.Name).Inc()
			log.Error(err, "Task terminated", "actor", a.name, "task", task.Name)
			return
		}
		log.Debug("Task finished", "actor", a.name, "task", task.Name)
	}()
	return true
}

// Stop moves the actor to stopping: inbound messages are dropped from now on,
// tasks are cancelled and the loop exits. It is safe to call from any goroutine
// and more than once.
func (a *Actor[S]) Stop() {
	a.stopOnce.Do(func() {
		if err := a.lc.fire(EventStop); err != nil {
			log.Error(err, "Unexpected lifecycle state on stop", "actor", a.name)
		}
		// An actor stopped before it ran has nothing to wait for.
		neverRan := a.lc.Is(StateStopped)

		close(a.stopping)
		if neverRan {
			close(a.done)
		}
	})
}

func (a *Actor[S]) isStopping() bool {
	select {
	case <-a.stopping:
		return true
	default:
		return false
	}
}

// Send stamps msg with the actor's identity and hands it to the transport.
// Any failure is reported as ErrSendFailed.
func (a *Actor[S]) Send(ctx context.Context, dst Destination, msg imc.Message) error {
	id, err := dst.resolve(a.directory)
	if err != nil {
		metrics.CommandSentTotal.WithLabelValues("failed", string(msg.Type())).Inc()
		return fmt.Errorf("%w: %s: %w", ErrSendFailed, dst, err)
	}

	env := msg.Env()
	env.Src = a.self
	env.Dst = id
	env.Timestamp = a.clock.Now()

	if err := a.transport.Send(ctx, id, msg); err != nil {
		metrics.CommandSentTotal.WithLabelValues("failed", string(msg.Type())).Inc()
		return fmt.Errorf("%w: %s to %s: %w", ErrSendFailed, msg.Type(), dst, err)
	}

	metrics.CommandSentTotal.WithLabelValues("success", string(msg.Type())).Inc()
	return nil
}
