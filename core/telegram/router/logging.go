// Package router turns the registry into telebot routes. Every routed update
// ends with one "handler.handled" summary line and a handlers_total sample.
package router

import (
	"errors"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"github.com/m3rciful/mydotainfo/core/logger"
	"github.com/m3rciful/mydotainfo/core/metrics"
	tghelpers "github.com/m3rciful/mydotainfo/core/telegram/helpers"
	"github.com/m3rciful/mydotainfo/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// serve runs h under name and logs its summary.
func serve(c tele.Context, name string, h tele.HandlerFunc, extras ...slog.Attr) error {
	start := time.Now()
	tghelpers.WithHandler(c, name)
	err := h(c)
	summarize(c, name, start, err, extras...)
	return err
}

// skip logs a summary for an update nobody handles.
func skip(c tele.Context, name string) {
	summarize(c, name, time.Now(), nil, slog.String("status", "skip"))
}

func summarize(c tele.Context, name string, start time.Time, err error, extras ...slog.Attr) {
	ctx := tghelpers.WithHandler(c, name)

	status, outcome, reported := "ok", "ok", err
	if err != nil {
		status, outcome = "fail", "fail"
	} else if soft, ok := tghelpers.OutcomeFrom(c); ok {
		// The handler answered the user itself; only the summary sees the cause.
		outcome, reported = soft.Name, soft.Err
	}
	metrics.HandlersTotal.WithLabelValues(name, outcome).Inc()

	msgs, kb := middleware.GetCounters(c)
	attrs := []slog.Attr{
		slog.String("status", status),
		slog.String("outcome", outcome),
		slog.Int("messages", msgs),
		slog.Bool("kb", kb),
		slog.Duration("duration", time.Since(start)),
	}
	if reported != nil {
		attrs = append(attrs,
			slog.String("err", logger.SanitizeLimit(reported.Error(), 256)),
			slog.String("err_code", deriveErrorCode(reported)),
		)
	}
	// extras come last so they can override status.
	attrs = append(attrs, extras...)

	level := slog.LevelInfo
	if err != nil {
		level = slog.LevelWarn
	}
	logger.LogEvent(ctx, logger.TG, level, "handler.handled", attrs...)
}

// normalizeHandlerName turns "/Start Game" into "start_game".
func normalizeHandlerName(name string) string {
	name = strings.TrimPrefix(strings.TrimSpace(name), "/")
	if name == "" {
		return "unknown"
	}
	return strings.ToLower(strings.ReplaceAll(name, " ", "_"))
}

type coder interface{ Code() string }

// deriveErrorCode prefers a Code() from the error chain and falls back to
// the concrete type name.
func deriveErrorCode(err error) string {
	if err == nil {
		return ""
	}
	code := ""
	var c coder
	if errors.As(err, &c) {
		code = strings.TrimSpace(c.Code())
	}
	if code == "" {
		t := reflect.TypeOf(err)
		for t.Kind() == reflect.Pointer {
			t = t.Elem()
		}
		code = t.Name()
	}
	if code == "" {
		return "UNKNOWN_ERROR"
	}
	return strings.ToUpper(strings.ReplaceAll(code, " ", "_"))
}
