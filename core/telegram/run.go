package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	coreconfig "github.com/m3rciful/mydotainfo/core/config"
	"github.com/m3rciful/mydotainfo/core/logger"
	"github.com/m3rciful/mydotainfo/core/metrics"
	tghelpers "github.com/m3rciful/mydotainfo/core/telegram/helpers"
	tgsender "github.com/m3rciful/mydotainfo/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

// Middleware is a named global middleware installed with bot.Use.
type Middleware struct {
	Name string
	Use  func(next tele.HandlerFunc) tele.HandlerFunc
}

// Route binds Handler to a telebot endpoint: a command string, a
// *tele.Btn or one of the tele.On* constants.
type Route struct {
	Endpoint any
	Handler  tele.HandlerFunc
}

// RunOptions describes everything RunTelegram wires onto the bot.
type RunOptions struct {
	Config   *coreconfig.Config
	Registry *Registry

	// Sender configures the outbound dispatcher when Dispatcher is nil.
	Sender     tgsender.Options
	Dispatcher *tgsender.Dispatcher

	Middlewares []Middleware
	Routes      []Route

	// KeepWebhook leaves a previously registered webhook in place in longpoll mode.
	KeepWebhook bool
	// DisableMetricsServer skips the scrape endpoint even when metrics.listen is set.
	DisableMetricsServer bool

	OnStart func(ctx context.Context, rt Runtime) error
	OnStop  func(ctx context.Context, rt Runtime) error
}

// Runtime is what lifecycle hooks get to see of the running bot.
type Runtime struct {
	Dispatcher *tgsender.Dispatcher
	Registry   *Registry
}

const shutdownTimeout = 5 * time.Second

// RunTelegram starts the bot and blocks until ctx is cancelled or the poller
// stops on its own. Cancellation is a clean exit and returns nil.
func RunTelegram(ctx context.Context, opts RunOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := opts.Config
	if cfg == nil {
		return errors.New("telegram: nil config provided")
	}
	if opts.Registry == nil {
		opts.Registry = NewRegistry()
	}

	started := time.Now()
	bot, err := tele.NewBot(tele.Settings{
		Token:  cfg.Telegram.Token,
		Poller: BuildPoller(cfg),
		Client: BuildHTTPClient(),
	})
	if err != nil {
		return fmt.Errorf("telegram: bot initialization failed: %w", err)
	}
	logMode(ctx, bot, time.Since(started))

	if cfg.Telegram.RunMode == coreconfig.RunModeLongpoll && !opts.KeepWebhook {
		dropWebhook(ctx, bot)
	}

	// Teardown runs in reverse order of setup.
	var teardown []func()
	defer func() {
		for i := len(teardown) - 1; i >= 0; i-- {
			teardown[i]()
		}
	}()

	d := opts.Dispatcher
	if d == nil {
		d = tgsender.NewDispatcher(opts.Sender)
	}
	tghelpers.SetDispatcher(d)
	teardown = append(teardown, func() {
		d.Close()
		tghelpers.SetDispatcher(nil)
	})

	for _, mw := range opts.Middlewares {
		if mw.Use != nil {
			bot.Use(mw.Use)
		}
	}
	for _, r := range opts.Routes {
		if r.Endpoint != nil && r.Handler != nil {
			bot.Handle(r.Endpoint, r.Handler)
		}
	}
	InitBotCommands(bot, opts.Registry)

	if !opts.DisableMetricsServer && cfg.Metrics.Listen != "" {
		srv := metrics.NewServer(cfg.Metrics.Listen, cfg.Metrics.Path)
		if err := srv.Start(); err != nil {
			return fmt.Errorf("telegram: metrics server: %w", err)
		}
		teardown = append(teardown, func() { stopMetrics(srv) })
	}

	rt := Runtime{Dispatcher: d, Registry: opts.Registry}
	if opts.OnStart != nil {
		if err := opts.OnStart(ctx, rt); err != nil {
			return err
		}
	}

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		bot.Start()
	}()
	select {
	case <-ctx.Done():
		bot.Stop()
		<-stopped
	case <-stopped:
	}

	if opts.OnStop != nil {
		stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := opts.OnStop(stopCtx, rt); err != nil {
			return err
		}
	}
	if cerr := ctx.Err(); cerr != nil && !errors.Is(cerr, context.Canceled) {
		return cerr
	}
	return nil
}

func logMode(ctx context.Context, bot *tele.Bot, took time.Duration) {
	attrs := []slog.Attr{slog.Duration("duration", logger.RoundMS(took))}
	switch p := bot.Poller.(type) {
	case *tele.Webhook:
		attrs = append(attrs,
			slog.String("mode", "webhook"),
			slog.String("listen", p.Listen),
			slog.String("public_url", p.Endpoint.PublicURL),
		)
	case *tele.LongPoller:
		attrs = append(attrs,
			slog.String("mode", "polling"),
			slog.Int("timeout_seconds", int(p.Timeout/time.Second)),
		)
	}
	logger.LogEvent(ctx, logger.TG, slog.LevelInfo, "mode", attrs...)
}

// dropWebhook clears a webhook left over from an earlier deployment, which
// would otherwise make getUpdates fail with a conflict.
func dropWebhook(ctx context.Context, bot *tele.Bot) {
	if err := bot.RemoveWebhook(false); err != nil {
		logger.LogEvent(ctx, logger.TG, slog.LevelWarn, "delete_webhook",
			slog.String("status", "fail"),
			slog.Any("err", err),
		)
		return
	}
	logger.LogEvent(ctx, logger.TG, slog.LevelInfo, "delete_webhook", slog.String("status", "ok"))
}

func stopMetrics(s *metrics.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		logger.LogEvent(ctx, logger.METRICS, slog.LevelWarn, "metrics.stop",
			slog.String("status", "fail"),
			slog.Any("err", err),
		)
	}
}
