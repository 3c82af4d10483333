package logger

import (
	"bufio"
	"errors"
	"io"
	"sync"
)

// asyncWriter moves log lines off the caller's goroutine. A single loop
// writes them to every sink, draining whatever is queued before flushing so
// bursts cost one flush per sink. The first sink error is latched and
// returned from later calls.
type asyncWriter struct {
	lines   chan []byte
	flushes chan chan error
	done    chan struct{}

	// gate keeps Write from sending on lines after Close.
	gate   sync.RWMutex
	closed bool

	sinks []*bufio.Writer

	mu  sync.Mutex
	err error
}

const writerQueue = 256

var errWriterClosed = errors.New("logger: writer closed")

func newAsyncWriter(writers []io.Writer, bufSize int) *asyncWriter {
	if bufSize <= 0 {
		bufSize = 64 * 1024
	}
	w := &asyncWriter{
		lines:   make(chan []byte, writerQueue),
		flushes: make(chan chan error),
		done:    make(chan struct{}),
	}
	for _, out := range writers {
		if out != nil {
			w.sinks = append(w.sinks, bufio.NewWriterSize(out, bufSize))
		}
	}
	go w.run()
	return w
}

func (w *asyncWriter) run() {
	defer close(w.done)
	for {
		select {
		case line, ok := <-w.lines:
			if !ok {
				w.latch(w.flush())
				return
			}
			w.latch(w.write(line))
			if !w.drain() {
				w.latch(w.flush())
				return
			}
			w.latch(w.flush())
		case ack := <-w.flushes:
			ack <- w.flush()
		}
	}
}

// drain writes everything already queued. It reports false once the queue is closed.
func (w *asyncWriter) drain() bool {
	for {
		select {
		case line, ok := <-w.lines:
			if !ok {
				return false
			}
			w.latch(w.write(line))
		default:
			return true
		}
	}
}

// Write queues a copy of p. It blocks when the queue is full rather than drop lines.
func (w *asyncWriter) Write(p []byte) error {
	if err := w.failure(); err != nil {
		return err
	}
	if len(p) == 0 {
		return nil
	}
	w.gate.RLock()
	defer w.gate.RUnlock()
	if w.closed {
		return errWriterClosed
	}
	w.lines <- append([]byte(nil), p...)
	return nil
}

// Flush waits until queued lines reached the sinks.
func (w *asyncWriter) Flush() error {
	if err := w.failure(); err != nil {
		return err
	}
	ack := make(chan error, 1)
	select {
	case w.flushes <- ack:
		return <-ack
	case <-w.done:
		return w.failure()
	}
}

// Close drains the queue and stops the loop.
func (w *asyncWriter) Close() error {
	w.gate.Lock()
	if !w.closed {
		w.closed = true
		close(w.lines)
	}
	w.gate.Unlock()
	<-w.done
	return w.failure()
}

func (w *asyncWriter) write(line []byte) error {
	for _, s := range w.sinks {
		if _, err := s.Write(line); err != nil {
			return err
		}
	}
	return nil
}

func (w *asyncWriter) flush() error {
	var errs []error
	for _, s := range w.sinks {
		if err := s.Flush(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (w *asyncWriter) latch(err error) {
	if err == nil {
		return
	}
	w.mu.Lock()
	if w.err == nil {
		w.err = err
	}
	w.mu.Unlock()
}

func (w *asyncWriter) failure() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}
