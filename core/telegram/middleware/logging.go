package middleware

import (
	"log/slog"

	"github.com/m3rciful/mydotainfo/core/logger"
	"github.com/m3rciful/mydotainfo/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/mydotainfo/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// LoggerMiddleware builds the update's logging context (rid, ids) for every
// downstream helper and logs a sampled debug receipt line.
func LoggerMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		ctx := tghelpers.BuildContext(c)
		if logger.ShouldSampleDebug() {
			logger.LogEvent(ctx, logger.TG, slog.LevelDebug, "update.received", receipt(c)...)
		}
		return next(c)
	}
}

func receipt(c tele.Context) []slog.Attr {
	attrs := []slog.Attr{slog.String("status", "ok")}
	if chat := c.Chat(); chat != nil {
		attrs = append(attrs, slog.String("chat_type", string(chat.Type)))
	}
	if user := c.Sender(); user != nil {
		if user.Username != "" {
			attrs = append(attrs, slog.String("username", logger.SanitizeLimit(user.Username, 64)))
		}
		if user.LanguageCode != "" {
			attrs = append(attrs, slog.String("lang", user.LanguageCode))
		}
	}
	upd := c.Update()
	switch {
	case upd.Callback != nil:
		key, payload := callbacks.ParseCallbackData(upd.Callback)
		attrs = append(attrs,
			slog.String("cb_key", logger.SanitizeLimit(key, 128)),
			slog.String("payload", logger.SanitizeLimit(payload, 256)),
		)
	case upd.Message != nil:
		attrs = append(attrs, slog.String("payload", logger.SanitizeLimit(c.Text(), 256)))
	}
	return attrs
}
