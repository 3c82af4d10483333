// Package logger is the process-wide structured logger: a slog handler that
// writes ordered key=value or JSON lines through an async writer, plus one
// pre-scoped logger per component.
package logger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/m3rciful/mydotainfo/core/buildinfo"
	coreconfig "github.com/m3rciful/mydotainfo/core/config"
)

var (
	initOnce sync.Once
	stopOnce sync.Once

	out     *asyncWriter
	closers []io.Closer

	level slog.LevelVar

	debugSampler = newRatioSampler(1, 50)
	traceAll     bool

	// L is the base logger; prefer the component loggers below.
	L *slog.Logger

	// APP logs process lifecycle events.
	APP *slog.Logger
	// TG logs Telegram transport events.
	TG *slog.Logger
	// TWire logs Telegram wiring steps.
	TWire *slog.Logger
	// FSM logs dialogue transitions.
	FSM *slog.Logger
	// STATS logs OpenDota requests.
	STATS *slog.Logger
	// STEAM logs Steam Web API requests.
	STEAM *slog.Logger
	// REPORT logs report generation.
	REPORT *slog.Logger
	// REF logs reference data loading.
	REF *slog.Logger
	// METRICS logs the metrics endpoint lifecycle.
	METRICS *slog.Logger
)

func init() {
	// Until Init runs everything is discarded, so packages can log from tests.
	L = slog.New(slog.NewTextHandler(io.Discard, nil))
	scopeComponents()
}

// settings is the logging section of the config after defaults.
type settings struct {
	format  logFormat
	order   []string
	level   slog.Level
	num     int
	den     int
	profile string
	file    string
}

func settingsFrom(cfg *coreconfig.Config) settings {
	s := settings{format: formatJSON, order: defaultKeyOrder, level: slog.LevelInfo, num: 1, den: 50, profile: "prod"}
	if cfg == nil {
		return s
	}
	lc := cfg.Logging
	if p := strings.ToLower(strings.TrimSpace(lc.Profile)); p != "" {
		s.profile = p
	}
	switch strings.ToLower(strings.TrimSpace(lc.Format)) {
	case "kv", "text", "pretty":
		s.format = formatKV
	case "json":
	default:
		if s.profile == "debug" || s.profile == "dev" {
			s.format = formatKV
		}
	}
	if order := splitKeys(lc.KeysOrder); len(order) > 0 {
		s.order = order
	}
	switch levelName(lc.Level) {
	case LevelDebug:
		s.level = slog.LevelDebug
	case LevelWarn:
		s.level = slog.LevelWarn
	case LevelError:
		s.level = slog.LevelError
	}
	if spec := strings.TrimSpace(lc.DebugSample); spec != "" {
		// An unparsable ratio disables sampling.
		s.num, s.den = parseRatioSpec(spec)
	}
	if dir, name := strings.TrimSpace(lc.Dir), strings.TrimSpace(lc.BotFile); dir != "" && name != "" {
		s.file = filepath.Join(dir, name)
	}
	return s
}

func splitKeys(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "default" {
		return nil
	}
	var keys []string
	for _, k := range strings.Split(raw, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

// Init configures the global logger from cfg. Only the first call has effect.
func Init(cfg *coreconfig.Config) error {
	var err error
	initOnce.Do(func() {
		s := settingsFrom(cfg)
		level.Set(s.level)
		debugSampler.Set(s.num, s.den)
		traceAll = truthy(os.Getenv("TRACE")) || truthy(os.Getenv("LOG_TRACE"))

		sinks := []io.Writer{os.Stdout}
		if s.file != "" {
			f, ferr := openLogFile(s.file)
			if ferr != nil {
				// Stdout keeps working; the caller decides whether a missing file sink is fatal.
				err = fmt.Errorf("logger: open %s: %w", s.file, ferr)
			} else {
				sinks = append(sinks, f)
				closers = append(closers, f)
			}
		}
		out = newAsyncWriter(sinks, 64*1024)

		L = slog.New(newLineHandler(handlerConfig{
			level:    &level,
			writer:   out,
			format:   s.format,
			keyOrder: s.order,
		}))
		slog.SetDefault(L)
		scopeComponents()

		L.LogAttrs(context.Background(), slog.LevelInfo, "startup",
			slog.String("component", "app"),
			slog.String("event", "startup"),
			slog.String("go_version", runtime.Version()),
			slog.String("build", buildinfo.Summary()),
			slog.String("cfg_profile", s.profile),
		)
	})
	return err
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
}

func scopeComponents() {
	APP = L.With("component", "app")
	TG = L.With("component", "tg")
	TWire = L.With("component", "tg.wire")
	FSM = L.With("component", "dialogue")
	STATS = L.With("component", "client.opendota")
	STEAM = L.With("component", "client.steam")
	REPORT = L.With("component", "report")
	REF = L.With("component", "refdata")
	METRICS = L.With("component", "metrics")
}

// Shutdown flushes queued lines and closes file sinks. Later calls are no-ops.
func Shutdown() error {
	var errs []error
	stopOnce.Do(func() {
		if out != nil {
			errs = append(errs, out.Flush(), out.Close())
		}
		for _, c := range closers {
			errs = append(errs, c.Close())
		}
	})
	return errors.Join(errs...)
}

// LogEvent logs attrs under an explicit event name. A nil logg falls back to
// the logger carried by ctx.
func LogEvent(ctx context.Context, logg *slog.Logger, lvl slog.Level, event string, attrs ...slog.Attr) {
	if logg == nil {
		logg = FromContext(ctx)
	}
	if event != "" {
		attrs = append([]slog.Attr{slog.String("event", event)}, attrs...)
	}
	logg.LogAttrs(ctx, lvl, "", attrs...)
}

// Component returns L scoped to name.
func Component(name string) *slog.Logger {
	if name = strings.TrimSpace(name); name == "" {
		return L
	}
	return L.With("component", name)
}

// Debug logs a debug event for component.
func Debug(ctx context.Context, component, event string, attrs ...slog.Attr) {
	LogEvent(ctx, Component(component), slog.LevelDebug, event, attrs...)
}

// Info logs an info event for component.
func Info(ctx context.Context, component, event string, attrs ...slog.Attr) {
	LogEvent(ctx, Component(component), slog.LevelInfo, event, attrs...)
}

// Warn logs a warning event for component.
func Warn(ctx context.Context, component, event string, attrs ...slog.Attr) {
	LogEvent(ctx, Component(component), slog.LevelWarn, event, attrs...)
}

// Error logs an error event for component.
func Error(ctx context.Context, component, event string, attrs ...slog.Attr) {
	LogEvent(ctx, Component(component), slog.LevelError, event, attrs...)
}

func truthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}

// ShouldSampleDebug reports whether a high-volume debug event should be logged.
// TRACE=1 lets every event through.
func ShouldSampleDebug() bool {
	return traceAll || debugSampler.Allow()
}
