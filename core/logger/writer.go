package logger

import (
	"bufio"
	"errors"
	"io"
	"log/slog"
	"sync"
)

// output is a destination together with the lowest level it accepts.
type output struct {
	w   io.Writer
	min slog.Level
}

type sink struct {
	buf *bufio.Writer
	min slog.Level
}

type entry struct {
	level slog.Level
	line  []byte
}

// asyncWriter fans formatted lines out to level-filtered sinks from a single goroutine.
type asyncWriter struct {
	queue    chan entry
	flushReq chan chan error
	done     chan struct{}
	once     sync.Once

	mu       sync.Mutex
	sinks    []sink
	writeErr error
}

func newAsyncWriter(outputs []output, bufSize int) *asyncWriter {
	if bufSize <= 0 {
		bufSize = 64 * 1024
	}
	sinks := make([]sink, 0, len(outputs))
	for _, o := range outputs {
		if o.w == nil {
			continue
		}
		sinks = append(sinks, sink{buf: bufio.NewWriterSize(o.w, bufSize), min: o.min})
	}
	w := &asyncWriter{
		queue:    make(chan entry, 256),
		flushReq: make(chan chan error),
		done:     make(chan struct{}),
		sinks:    sinks,
	}
	go w.run()
	return w
}

func (w *asyncWriter) run() {
	defer close(w.done)
	for {
		select {
		case e, ok := <-w.queue:
			if !ok {
				_ = w.flushSinks()
				return
			}
			w.setErr(w.dispatch(e))
		case ack := <-w.flushReq:
			ack <- w.flushSinks()
		}
	}
}

// Write copies line and queues it. When the queue is full the call blocks
// rather than dropping the record.
func (w *asyncWriter) Write(level slog.Level, line []byte) error {
	if err := w.err(); err != nil {
		return err
	}
	if len(line) == 0 {
		return nil
	}
	w.queue <- entry{level: level, line: append([]byte(nil), line...)}
	return nil
}

// Flush blocks until everything queued so far has reached the sinks.
func (w *asyncWriter) Flush() error {
	if err := w.err(); err != nil {
		return err
	}
	ack := make(chan error, 1)
	select {
	case w.flushReq <- ack:
		return <-ack
	case <-w.done:
		return w.err()
	}
}

// Close drains the queue and reports the first write error seen.
func (w *asyncWriter) Close() error {
	w.once.Do(func() { close(w.queue) })
	<-w.done
	return w.err()
}

func (w *asyncWriter) dispatch(e entry) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, s := range w.sinks {
		if e.level < s.min {
			continue
		}
		if _, err := s.buf.Write(e.line); err != nil {
			return err
		}
		if err := s.buf.Flush(); err != nil {
			return err
		}
	}
	return nil
}

func (w *asyncWriter) flushSinks() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	var errs []error
	for _, s := range w.sinks {
		if err := s.buf.Flush(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (w *asyncWriter) err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.writeErr
}

func (w *asyncWriter) setErr(err error) {
	if err == nil {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.writeErr == nil {
		w.writeErr = err
	}
}
