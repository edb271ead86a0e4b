package sender

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"regexp"
	"sync"
	"sync/atomic"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/hungrylogs/core/logger"
	"github.com/m3rciful/hungrylogs/core/telegram/netutil"
)

var (
	// ErrQueueClosed is returned when a job is submitted after Close.
	ErrQueueClosed = errors.New("telegram sender: queue closed")
	// ErrQueueFull is returned when the queue cannot take another job.
	ErrQueueFull = errors.New("telegram sender: queue full")

	tokenRe = regexp.MustCompile(`bot[0-9]+:[A-Za-z0-9_-]+`)
)

// Options controls the outbound dispatcher. Zero values get defaults.
type Options struct {
	QueueSize    int
	Workers      int
	MaxRetries   int
	RetryBackoff time.Duration
	// MaxDuration bounds the time spent retrying a single job.
	MaxDuration time.Duration
}

type job struct {
	ctx      context.Context
	action   string
	endpoint string
	run      func() error
	done     func(error)
}

// Dispatcher executes outbound Telegram calls on a worker pool with retries.
type Dispatcher struct {
	opts Options
	jobs chan job

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
	errs   atomic.Uint64
}

// NewDispatcher starts the workers.
func NewDispatcher(opts Options) *Dispatcher {
	if opts.QueueSize <= 0 {
		opts.QueueSize = 256
	}
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = 2 * time.Second
	}
	if opts.MaxDuration <= 0 {
		opts.MaxDuration = 12 * time.Second
	}

	d := &Dispatcher{opts: opts, jobs: make(chan job, opts.QueueSize)}
	d.wg.Add(opts.Workers)
	for i := 0; i < opts.Workers; i++ {
		go func() {
			defer d.wg.Done()
			for j := range d.jobs {
				d.handle(j)
			}
		}()
	}
	return d
}

// Enqueue schedules run without waiting for its outcome.
// run must be safe to repeat because transient failures are retried.
func (d *Dispatcher) Enqueue(ctx context.Context, action, endpoint string, run func() error) error {
	return d.Submit(ctx, action, endpoint, run, nil)
}

// Submit is Enqueue with a done callback that receives the final error once
// the job has succeeded or given up. done is not called when Submit fails.
func (d *Dispatcher) Submit(ctx context.Context, action, endpoint string, run func() error, done func(error)) error {
	if run == nil {
		return errors.New("telegram sender: nil run function")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrQueueClosed
	}
	select {
	case d.jobs <- job{ctx: ctx, action: action, endpoint: endpoint, run: run, done: done}:
		return nil
	default:
		return ErrQueueFull
	}
}

// ErrorCount returns the number of jobs that failed permanently.
func (d *Dispatcher) ErrorCount() uint64 {
	return d.errs.Load()
}

// Close stops accepting jobs and waits for queued ones to finish.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.jobs)
	d.mu.Unlock()
	d.wg.Wait()
}

func (d *Dispatcher) handle(j job) {
	start := time.Now()
	err := d.attempt(j)
	attrs := jobAttrs(j, time.Since(start))
	if err != nil {
		d.errs.Add(1)
		logger.Error(j.ctx, logger.CompTGSender, "send.fail", append(attrs,
			slog.String("err", Redact(err.Error())),
			slog.String("err_code", classifyError(err)),
		)...)
	} else {
		logger.Debug(j.ctx, logger.CompTGSender, "send.success", attrs...)
	}
	if j.done != nil {
		j.done(err)
	}
}

func (d *Dispatcher) attempt(j job) error {
	ctx, cancel := context.WithTimeout(j.ctx, d.opts.MaxDuration)
	defer cancel()

	var lastErr error
	for n := 1; n <= d.opts.MaxRetries+1; n++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		lastErr = j.run()
		if lastErr == nil || !netutil.ShouldRetry(lastErr) {
			return lastErr
		}
		delay := d.opts.RetryBackoff * time.Duration(n)
		logger.Debug(j.ctx, logger.CompTGSender, "send.retry",
			slog.String("action", j.action),
			slog.Int("attempts", n),
			slog.Duration("backoff", delay),
		)
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return lastErr
}

func jobAttrs(j job, elapsed time.Duration) []slog.Attr {
	attrs := []slog.Attr{slog.String("action", j.action), slog.Duration("elapsed", elapsed)}
	if j.endpoint != "" {
		attrs = append(attrs, slog.String("endpoint", j.endpoint))
	}
	return attrs
}

// Redact masks bot tokens that net/http embeds in URL errors.
func Redact(msg string) string {
	return tokenRe.ReplaceAllString(msg, "bot<redacted>")
}

// IsBlocked reports whether Telegram refused delivery because the user blocked
// the bot or deleted their account.
func IsBlocked(err error) bool {
	return errors.Is(err, tele.ErrBlockedByUser) || errors.Is(err, tele.ErrUserIsDeactivated)
}

func classifyError(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "TIMEOUT"
	case IsBlocked(err):
		return "BLOCKED"
	}
	var floodErr tele.FloodError
	if errors.As(err, &floodErr) {
		return "HTTP_429"
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return "TIMEOUT"
		}
		return "NETWORK"
	}
	var apiErr *tele.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code >= http.StatusInternalServerError:
			return "HTTP_5XX"
		case apiErr.Code >= http.StatusBadRequest:
			return "HTTP_4XX"
		}
	}
	return "UNKNOWN"
}
