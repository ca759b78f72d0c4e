package actor

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLineReader(t *testing.T) {
	r := NewLineReader(strings.NewReader("start\nstop\r\nexit"))
	ctx := context.Background()

	for _, want := range []string{"start", "stop", "exit"} {
		got, err := r.ReadLine(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := r.ReadLine(ctx)
	assert.ErrorIs(t, err, io.EOF)
	_, err = r.ReadLine(ctx)
	assert.ErrorIs(t, err, io.EOF)
}

func TestLineReaderCancelWhileBlocked(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	r := NewLineReader(pr)
	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() {
		_, err := r.ReadLine(ctx)
		errCh <- err
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("ReadLine did not return after cancellation")
	}

	// The line written later is still available to the next caller.
	go func() { _, _ = pw.Write([]byte("status\n")) }()
	got, err := r.ReadLine(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "status", got)
}

func TestConsoleTaskDoesNotDelayStop(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	a, _ := newTestActor(t)
	r := NewLineReader(pr)
	a.AddTask(NewTask("console", true, func(ctx context.Context) error {
		for {
			if _, err := r.ReadLine(ctx); err != nil {
				return err
			}
		}
	}))

	errCh := runActor(t, a)
	a.Stop()

	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("actor waited for the next input line")
	}
}
