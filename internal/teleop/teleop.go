package teleop

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/autopeer-io/teleop/internal/teleop/server"
	"github.com/autopeer-io/teleop/pkg/log"
)

// Teleop runs the keyboard actor and, when enabled, the status server.
type Teleop struct {
	keyboard *KeyboardActor
	server   *server.Server
}

// Keyboard returns the actor.
func (t *Teleop) Keyboard() *KeyboardActor {
	return t.keyboard
}

// Run blocks until the actor stopped, either on operator request or because
// ctx was cancelled. A failing status server stops the actor too.
func (t *Teleop) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer cancel()
		return t.keyboard.Run(ctx)
	})

	if t.server != nil {
		g.Go(func() error {
			return t.server.Start(ctx)
		})
	}

	log.Info("Teleop running", "target", t.keyboard.Target(), "node", t.keyboard.NodeID())
	return g.Wait()
}
