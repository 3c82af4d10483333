package middleware

import (
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/m3rciful/mydotainfo/core/logger"
	"github.com/m3rciful/mydotainfo/core/metrics"
	tghelpers "github.com/m3rciful/mydotainfo/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// RecoverMiddleware turns a handler panic into an error so one update cannot
// stop the bot.
func RecoverMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) (err error) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			metrics.HandlersTotal.WithLabelValues("panic", "fail").Inc()
			logger.LogEvent(tghelpers.BuildContext(c), logger.TG, slog.LevelError, "tg.panic",
				slog.String("status", "fail"),
				slog.String("err", fmt.Sprint(r)),
				slog.String("stack", string(debug.Stack())),
			)
			err = fmt.Errorf("telegram: handler panic: %v", r)
		}()
		return next(c)
	}
}
