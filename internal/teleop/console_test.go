package teleop

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autopeer-io/teleop/internal/pkg/actor"
	"github.com/autopeer-io/teleop/pkg/imc"
)

func countLines(s, substr string) int {
	n := 0
	for _, line := range strings.Split(s, "\n") {
		if strings.Contains(line, substr) {
			n++
		}
	}
	return n
}

func TestStartWithoutState(t *testing.T) {
	f := newFixture(t)
	f.learnTarget()

	f.k.OnConsole(context.Background(), "start", &VehicleState{})

	assert.Contains(t, f.out.String(), "vehicle not connected")
	assert.Empty(t, f.transport.Sent())
	assert.Empty(t, f.journal.Records())
}

func TestStartSendsPlanToStateSource(t *testing.T) {
	f := newFixture(t)
	f.learnTarget()
	state := &VehicleState{}
	require.NoError(t, f.k.OnEstimatedState(context.Background(), stateFrom(targetNode), state))

	f.k.OnConsole(context.Background(), "  start\n", state)

	sent := f.transport.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, targetNode, sent[0].dst)

	pc, ok := sent[0].msg.(*imc.PlanControl)
	require.True(t, ok)
	assert.Equal(t, imc.PlanControlRequest, pc.Kind)
	assert.Equal(t, imc.PlanOpStart, pc.Op)
	// PlanControl names the plan, not its start maneuver.
	assert.Equal(t, "TestPlan", pc.PlanID)
	assert.NotEqual(t, ManeuverID, pc.PlanID)
	assert.Equal(t, selfNode, pc.Src)
	assert.Equal(t, targetNode, pc.Dst)

	spec, ok := pc.Arg.(*imc.PlanSpecification)
	require.True(t, ok)
	assert.Equal(t, ManeuverID, spec.StartManID)
	require.Len(t, spec.Maneuvers, 1)
	g, ok := spec.Maneuvers[0].Data.(*imc.Goto)
	require.True(t, ok)
	assert.Greater(t, g.Lat, state.Position.Lat)
	assert.InDelta(t, moveSpeed, g.Speed, 1e-6)

	assert.Equal(t, []recordedCommand{{dest: targetNode.String(), typ: imc.TypePlanControl}}, f.journal.Records())
	assert.Contains(t, f.out.String(), "plan TestPlan sent to 0x001f")
}

func TestStartSendFailure(t *testing.T) {
	f := newFixture(t)
	f.learnTarget()
	state := &VehicleState{}
	require.NoError(t, f.k.OnEstimatedState(context.Background(), stateFrom(targetNode), state))
	f.transport.sendErr = io.ErrClosedPipe

	f.k.OnConsole(context.Background(), "start", state)

	assert.Contains(t, f.out.String(), "failed to send plan")
	assert.Empty(t, f.journal.Records())
}

func TestStop(t *testing.T) {
	t.Run("unresolved target", func(t *testing.T) {
		f := newFixture(t)

		f.k.OnConsole(context.Background(), "stop", &VehicleState{})

		assert.Contains(t, f.out.String(), "failed to send abort")
		assert.Empty(t, f.transport.Sent())
		assert.Empty(t, f.journal.Records())
	})

	t.Run("resolved target", func(t *testing.T) {
		f := newFixture(t)
		f.learnTarget()

		f.k.OnConsole(context.Background(), "stop", &VehicleState{})

		sent := f.transport.Sent()
		require.Len(t, sent, 1)
		assert.Equal(t, targetNode, sent[0].dst)
		assert.Equal(t, imc.TypeAbort, sent[0].msg.Type())
		assert.Equal(t, []recordedCommand{{dest: target, typ: imc.TypeAbort}}, f.journal.Records())
		assert.Contains(t, f.out.String(), "abort sent to "+target)
	})
}

func TestUnknownAndEmptyCommands(t *testing.T) {
	f := newFixture(t)

	f.k.OnConsole(context.Background(), "", &VehicleState{})
	f.k.OnConsole(context.Background(), "   ", &VehicleState{})
	assert.Empty(t, f.out.String())

	f.k.OnConsole(context.Background(), "jump", &VehicleState{})
	assert.Contains(t, f.out.String(), `unknown command "jump"`)
	assert.Empty(t, f.transport.Sent())
}

func TestStatusAndHelp(t *testing.T) {
	f := newFixture(t)
	f.learnTarget()
	state := &VehicleState{}
	require.NoError(t, f.k.OnEstimatedState(context.Background(), stateFrom(targetNode), state))

	f.k.OnConsole(context.Background(), "status", state)
	out := f.out.String()
	assert.Contains(t, out, "PEER")
	assert.Contains(t, out, target)
	assert.Contains(t, out, "0x001f")

	f.k.OnConsole(context.Background(), "help", state)
	for _, c := range commandHelp {
		assert.Contains(t, f.out.String(), c[1])
	}
}

func TestExitStopsActor(t *testing.T) {
	f := newFixture(t)

	f.k.OnConsole(context.Background(), "exit", &VehicleState{})

	// Never ran, so it is stopped right away.
	assert.Equal(t, actor.StateStopped, f.k.Current())
	assert.Contains(t, f.out.String(), "stopping")
}

func TestConsoleSession(t *testing.T) {
	f := newFixture(t)
	in, operator := io.Pipe()
	f.k.AddTask(f.k.ConsoleTask(actor.NewLineReader(in)))

	errCh := make(chan error, 1)
	go func() { errCh <- f.k.Run(context.Background()) }()

	f.transport.inject(announceFrom(targetNode, target))
	f.transport.inject(stateFrom(targetNode))
	require.Eventually(t, func() bool {
		return strings.Contains(f.out.String(), target+" connected")
	}, time.Second, 5*time.Millisecond)
	assert.True(t, f.k.Ready())

	_, err := io.WriteString(operator, "start\n")
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		return len(f.transport.sentOfType(imc.TypePlanControl)) == 1
	}, time.Second, 5*time.Millisecond)

	_, err = io.WriteString(operator, "exit\n")
	require.NoError(t, err)

	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("actor did not stop on exit")
	}
	assert.Equal(t, actor.StateStopped, f.k.Current())
	assert.Equal(t, targetNode, f.transport.sentOfType(imc.TypePlanControl)[0].dst)
}

func TestConsoleEndOfInputStopsActor(t *testing.T) {
	f := newFixture(t)
	f.k.AddTask(f.k.ConsoleTask(actor.NewLineReader(strings.NewReader("help\n"))))

	done := make(chan error, 1)
	go func() { done <- f.k.Run(context.Background()) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("actor did not stop at end of input")
	}
}
