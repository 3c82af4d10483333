package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	coreconfig "github.com/m3rciful/mydotainfo/core/config"
	"github.com/m3rciful/mydotainfo/core/logger"
)

const (
	defaultInitialInterval = 500 * time.Millisecond
	defaultMaxInterval     = 5 * time.Second
	defaultMaxElapsed      = 30 * time.Second
)

// RetryOptions bounds how long a warmup is retried.
type RetryOptions struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxElapsed      time.Duration
}

// Options control the generic bootstrap pipeline shared between bots.
type Options struct {
	Config *coreconfig.Config

	LoggerInit func(*coreconfig.Config) error
	Warmups    []Warmup
	Retry      RetryOptions
}

// Run initializes the logger and runs warmups with exponential backoff.
// Optional warmups that keep failing are logged and skipped.
func Run(ctx context.Context, opts Options) error {
	if opts.Config == nil {
		return fmt.Errorf("bootstrap: nil config provided")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	loggerInit := opts.LoggerInit
	if loggerInit == nil {
		loggerInit = logger.Init
	}
	if err := loggerInit(opts.Config); err != nil {
		return fmt.Errorf("bootstrap: logger init failed: %w", err)
	}

	for _, w := range opts.Warmups {
		if w == nil {
			continue
		}
		if err := runWarmup(ctx, w, opts.Retry); err != nil {
			if isRequired(w) {
				return fmt.Errorf("bootstrap: warmup %s failed: %w", w.Name(), err)
			}
			logger.APP.Warn("warmup skipped",
				slog.String("event", "warmup.skip"),
				slog.String("status", "skip"),
				slog.String("service", w.Name()),
				slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
			)
		}
	}
	return nil
}

func runWarmup(ctx context.Context, w Warmup, retry RetryOptions) error {
	start := time.Now()
	attempts := 0
	op := func() error {
		attempts++
		return w.Warm(ctx)
	}
	notify := func(err error, wait time.Duration) {
		logger.APP.Warn("warmup retry",
			slog.String("event", "warmup.retry"),
			slog.String("status", "retry"),
			slog.String("service", w.Name()),
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
			slog.Int("attempts", attempts),
			slog.Int64("backoff_ms", wait.Milliseconds()),
		)
	}
	if err := backoff.RetryNotify(op, backoff.WithContext(newBackOff(retry), ctx), notify); err != nil {
		return err
	}
	logger.APP.Info("warmup done",
		slog.String("event", "warmup.done"),
		slog.String("status", "ok"),
		slog.String("service", w.Name()),
		slog.Int("attempts", attempts),
		slog.Int64("duration_ms", logger.RoundMS(time.Since(start)).Milliseconds()),
	)
	return nil
}

func newBackOff(o RetryOptions) *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = defaultInitialInterval
	b.MaxInterval = defaultMaxInterval
	b.MaxElapsedTime = defaultMaxElapsed
	if o.InitialInterval > 0 {
		b.InitialInterval = o.InitialInterval
	}
	if o.MaxInterval > 0 {
		b.MaxInterval = o.MaxInterval
	}
	if o.MaxElapsed > 0 {
		b.MaxElapsedTime = o.MaxElapsed
	}
	b.Reset()
	return b
}
