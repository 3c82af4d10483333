package middleware

import (
	"log/slog"
	"sync"
	"time"

	"github.com/m3rciful/mydotainfo/core/logger"
	"github.com/m3rciful/mydotainfo/core/metrics"
	tghelpers "github.com/m3rciful/mydotainfo/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// sweepAbove is the table size above which expired entries are removed.
const sweepAbove = 4096

// RateLimitOptions configures RateLimitMiddleware.
type RateLimitOptions struct {
	Interval time.Duration
	// Exclude lists update kinds ("callback", "message") that bypass the limit.
	Exclude   map[string]struct{}
	OnLimited tele.HandlerFunc
}

// limiter admits one update per user per interval.
type limiter struct {
	interval time.Duration

	mu   sync.Mutex
	last map[int64]time.Time
}

func newLimiter(interval time.Duration) *limiter {
	return &limiter{interval: interval, last: make(map[int64]time.Time)}
}

func (l *limiter) allow(userID int64, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if t, ok := l.last[userID]; ok && now.Sub(t) < l.interval {
		return false
	}
	l.last[userID] = now
	if len(l.last) > sweepAbove {
		for id, t := range l.last {
			if now.Sub(t) >= l.interval {
				delete(l.last, id)
			}
		}
	}
	return true
}

func updateKind(upd tele.Update) string {
	switch {
	case upd.Callback != nil:
		return "callback"
	case upd.Message != nil:
		return "message"
	}
	return "other"
}

// RateLimitMiddleware drops updates that arrive within Interval of the
// previous admitted update from the same user.
func RateLimitMiddleware(opts RateLimitOptions) tele.MiddlewareFunc {
	lim := newLimiter(opts.Interval)
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			user := c.Sender()
			if user == nil || opts.Interval <= 0 {
				return next(c)
			}
			if _, skip := opts.Exclude[updateKind(c.Update())]; skip {
				return next(c)
			}
			if lim.allow(user.ID, time.Now()) {
				return next(c)
			}

			metrics.HandlersTotal.WithLabelValues("rate_limit", "rate_limited").Inc()
			logger.LogEvent(tghelpers.BuildContext(c), logger.TG, slog.LevelWarn, "tg.rate_limit",
				slog.String("status", "rate_limited"),
				slog.String("outcome", "rate_limited"),
			)
			if opts.OnLimited != nil {
				_ = opts.OnLimited(c)
			}
			return nil
		}
	}
}
