package actor

import (
	"bufio"
	"context"
	"io"
	"sync"
)

type line struct {
	text string
	err  error
}

// LineReader reads lines from a blocking source without tying the caller to the
// blocking call. A single goroutine owns the underlying reader; ReadLine returns
// as soon as its context is cancelled, even while that goroutine is still blocked.
type LineReader struct {
	src   io.Reader
	once  sync.Once
	lines chan line
}

func NewLineReader(r io.Reader) *LineReader {
	return &LineReader{src: r, lines: make(chan line)}
}

func (l *LineReader) start() {
	go func() {
		defer close(l.lines)

		scanner := bufio.NewScanner(l.src)
		for scanner.Scan() {
			l.lines <- line{text: scanner.Text()}
		}
		if err := scanner.Err(); err != nil {
			l.lines <- line{err: err}
		}
	}()
}

// ReadLine returns the next line without its terminator, io.EOF once the source
// is exhausted, or the context error if ctx is done first. A line read while no
// caller is waiting is kept for the next call.
func (l *LineReader) ReadLine(ctx context.Context) (string, error) {
	l.once.Do(l.start)

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case ln, ok := <-l.lines:
		if !ok {
			return "", io.EOF
		}
		return ln.text, ln.err
	}
}
