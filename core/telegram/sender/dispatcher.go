// Package sender runs outbound Telegram calls on a pool of workers with
// bounded retries. Jobs for one chat always land on the same worker, so a
// chat sees its messages in the order they were enqueued.
package sender

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/m3rciful/mydotainfo/core/logger"
	"github.com/m3rciful/mydotainfo/core/metrics"
	"github.com/m3rciful/mydotainfo/core/telegram/netutil"
)

var (
	// ErrQueueClosed is returned by Enqueue after Close.
	ErrQueueClosed = errors.New("telegram sender: queue closed")
	// ErrQueueFull is returned when the owning worker's queue has no room.
	ErrQueueFull = errors.New("telegram sender: queue full")
)

const component = "tg.sender"

// Options tunes the dispatcher. Zero values get defaults.
type Options struct {
	// QueueSize is the per-worker queue length.
	QueueSize int
	Workers   int
	// MaxRetries caps retries after the first attempt.
	MaxRetries int
	// RetryBackoff is the first wait; later waits grow exponentially.
	RetryBackoff time.Duration
	// MaxDuration bounds the time spent on a single job, retries included.
	MaxDuration time.Duration
}

func (o Options) withDefaults() Options {
	if o.QueueSize <= 0 {
		o.QueueSize = 64
	}
	if o.Workers <= 0 {
		o.Workers = 4
	}
	o.MaxRetries = max(o.MaxRetries, 0)
	if o.RetryBackoff <= 0 {
		o.RetryBackoff = 2 * time.Second
	}
	if o.MaxDuration <= 0 {
		o.MaxDuration = 12 * time.Second
	}
	return o
}

type job struct {
	ctx      context.Context
	action   string
	endpoint string
	run      func() error
}

// Dispatcher executes outbound Telegram calls asynchronously.
type Dispatcher struct {
	opts   Options
	queues []chan job

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
	failed atomic.Uint64
}

// NewDispatcher starts opts.Workers workers.
func NewDispatcher(opts Options) *Dispatcher {
	opts = opts.withDefaults()
	d := &Dispatcher{opts: opts, queues: make([]chan job, opts.Workers)}
	for i := range d.queues {
		d.queues[i] = make(chan job, opts.QueueSize)
		d.wg.Add(1)
		go func(q <-chan job) {
			defer d.wg.Done()
			for j := range q {
				d.process(j)
			}
		}(d.queues[i])
	}
	return d
}

// Enqueue schedules run on the worker owning the chat found in ctx. It never
// blocks: a full queue yields ErrQueueFull. run may be called more than once.
func (d *Dispatcher) Enqueue(ctx context.Context, action, endpoint string, run func() error) error {
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
	case d.queues[d.shard(logger.ChatIDFrom(ctx))] <- job{ctx: ctx, action: action, endpoint: endpoint, run: run}:
		return nil
	default:
		return ErrQueueFull
	}
}

func (d *Dispatcher) shard(chatID int64) int {
	n := int64(len(d.queues))
	return int((chatID%n + n) % n)
}

// ErrorCount returns the number of jobs that failed for good.
func (d *Dispatcher) ErrorCount() uint64 {
	return d.failed.Load()
}

// Close stops accepting jobs and waits for queued ones to finish. It is idempotent.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		for _, q := range d.queues {
			close(q)
		}
	}
	d.mu.Unlock()
	d.wg.Wait()
}

func (d *Dispatcher) policy(ctx context.Context) backoff.BackOff {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = d.opts.RetryBackoff
	eb.MaxElapsedTime = d.opts.MaxDuration
	return backoff.WithContext(backoff.WithMaxRetries(eb, uint64(d.opts.MaxRetries)), ctx)
}

func (d *Dispatcher) process(j job) {
	ctx, cancel := context.WithTimeout(j.ctx, d.opts.MaxDuration)
	defer cancel()

	start := time.Now()
	attempts := 0
	op := func() error {
		attempts++
		err := j.run()
		if err != nil && !netutil.ShouldRetry(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	onRetry := func(err error, wait time.Duration) {
		logger.Debug(j.ctx, component, "send.retry.backoff", append(j.attrs(),
			slog.Int("attempts", attempts),
			slog.Int64("backoff_ms", wait.Milliseconds()),
			slog.String("err_code", netutil.Classify(err)),
		)...)
	}

	err := backoff.RetryNotify(op, d.policy(ctx), onRetry)
	if err == nil {
		metrics.SendsTotal.WithLabelValues(j.action, "ok").Inc()
		switch {
		case attempts > 1:
			logger.Info(j.ctx, component, "send.retry.success", append(j.attrs(), slog.Int("attempts", attempts))...)
		case logger.ShouldSampleDebug():
			logger.Debug(j.ctx, component, "send.success", append(j.attrs(), slog.Duration("duration", time.Since(start)))...)
		}
		return
	}

	d.failed.Add(1)
	metrics.SendsTotal.WithLabelValues(j.action, "fail").Inc()
	logger.Error(j.ctx, component, "send.fail", append(j.attrs(),
		slog.String("status", "fail"),
		slog.Any("err", err),
		slog.String("err_code", netutil.Classify(err)),
		slog.Int("attempts", attempts),
		slog.Duration("duration", time.Since(start)),
	)...)
}

// attrs names the job; update and chat ids come from the context.
func (j job) attrs() []slog.Attr {
	attrs := []slog.Attr{slog.String("handler", j.action)}
	if j.endpoint != "" {
		attrs = append(attrs, slog.String("endpoint", j.endpoint))
	}
	return attrs
}
