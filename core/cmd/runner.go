// Package cmd is the shared main for bots built on core: env files, config,
// bootstrap, signal handling and the Telegram runtime.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	coreconfig "github.com/m3rciful/mydotainfo/core/config"
	"github.com/m3rciful/mydotainfo/core/logger"
	coretelegram "github.com/m3rciful/mydotainfo/core/telegram"
)

// ConfigCarrier is a bot config that embeds the core config.
type ConfigCarrier interface {
	CoreConfig() *coreconfig.Config
}

// TelegramApp supplies the routes and hooks for RunTelegram.
type TelegramApp interface {
	TelegramRunOptions() (coretelegram.RunOptions, error)
}

// Options configures Run. LoadConfig and Bootstrap are required.
type Options struct {
	// ConfigEnvVar names the variable holding the config path; CONFIG_PATH by default.
	ConfigEnvVar      string
	DefaultConfigPath string
	// EnvFiles are loaded into the environment first. Missing files are skipped
	// and variables already set win.
	EnvFiles []string

	LoadConfig func(path string) (ConfigCarrier, error)
	Bootstrap  func(ctx context.Context, cfg ConfigCarrier) (TelegramApp, error)

	// ShutdownLogger and RunTelegram default to logger.Shutdown and
	// coretelegram.RunTelegram.
	ShutdownLogger func() error
	RunTelegram    func(ctx context.Context, opts coretelegram.RunOptions) error
}

// Run executes the whole process lifecycle and returns when the bot stops.
// SIGINT and SIGTERM stop it cleanly.
func Run(opts Options) error {
	switch {
	case opts.LoadConfig == nil:
		return errors.New("cmd: LoadConfig is required")
	case opts.Bootstrap == nil:
		return errors.New("cmd: Bootstrap is required")
	}
	for _, f := range opts.EnvFiles {
		if err := loadEnvFile(f); err != nil {
			return fmt.Errorf("cmd: env file %s: %w", f, err)
		}
	}

	path, err := configPath(opts)
	if err != nil {
		return err
	}
	log.Printf("loading config: %s", path)
	cfg, err := opts.LoadConfig(path)
	if err != nil {
		return fmt.Errorf("cmd: failed to load config: %w", err)
	}
	if cfg.CoreConfig() == nil {
		return errors.New("cmd: loaded config is missing core configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdown := opts.ShutdownLogger
	if shutdown == nil {
		shutdown = logger.Shutdown
	}
	defer func() {
		if err := shutdown(); err != nil {
			log.Printf("logger shutdown: %v", err)
		}
	}()

	startedAt := time.Now()
	app, err := opts.Bootstrap(ctx, cfg)
	if err != nil {
		return fmt.Errorf("cmd: bootstrap failed: %w", err)
	}
	runOpts, err := app.TelegramRunOptions()
	if err != nil {
		return fmt.Errorf("cmd: telegram options: %w", err)
	}
	runOpts.OnStart = announceReady(runOpts.OnStart, startedAt)
	runOpts.OnStop = announceShutdown(runOpts.OnStop)

	run := opts.RunTelegram
	if run == nil {
		run = coretelegram.RunTelegram
	}
	return run(ctx, runOpts)
}

type hook func(ctx context.Context, rt coretelegram.Runtime) error

func announceReady(next hook, startedAt time.Time) hook {
	return func(ctx context.Context, rt coretelegram.Runtime) error {
		if next != nil {
			if err := next(ctx, rt); err != nil {
				return err
			}
		}
		logger.LogEvent(ctx, logger.APP, slog.LevelInfo, "ready",
			slog.Duration("startup_duration", logger.RoundMS(time.Since(startedAt))),
		)
		return nil
	}
}

func announceShutdown(next hook) hook {
	return func(ctx context.Context, rt coretelegram.Runtime) error {
		logger.LogEvent(ctx, logger.APP, slog.LevelInfo, "shutdown")
		if next == nil {
			return nil
		}
		return next(ctx, rt)
	}
}

func configPath(opts Options) (string, error) {
	env := opts.ConfigEnvVar
	if env == "" {
		env = "CONFIG_PATH"
	}
	if p := os.Getenv(env); p != "" {
		return p, nil
	}
	if opts.DefaultConfigPath != "" {
		return opts.DefaultConfigPath, nil
	}
	return "", fmt.Errorf("cmd: config path not provided via %s or DefaultConfigPath", env)
}

func loadEnvFile(name string) error {
	if name == "" {
		return nil
	}
	if err := godotenv.Load(name); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
