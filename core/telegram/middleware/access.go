package middleware

import (
	"log/slog"

	"github.com/m3rciful/mydotainfo/core/logger"
	"github.com/m3rciful/mydotainfo/core/metrics"
	tghelpers "github.com/m3rciful/mydotainfo/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// AdminOptions defines how admin-only checks should behave.
type AdminOptions struct {
	AdminID  int64
	OnReject tele.HandlerFunc
}

// AdminOnlyMiddleware lets only AdminID through. Without a configured admin
// every caller is rejected.
func AdminOnlyMiddleware(opts AdminOptions) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			if u := c.Sender(); opts.AdminID != 0 && u != nil && u.ID == opts.AdminID {
				return next(c)
			}
			metrics.HandlersTotal.WithLabelValues("admin_check", "rejected").Inc()
			logger.LogEvent(tghelpers.BuildContext(c), logger.TG, slog.LevelWarn, "tg.admin_reject",
				slog.String("outcome", "rejected"),
			)
			if opts.OnReject != nil {
				return opts.OnReject(c)
			}
			return nil
		}
	}
}
