package telegram

import (
	"time"

	coreconfig "github.com/m3rciful/mydotainfo/core/config"
	"github.com/m3rciful/mydotainfo/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// DefaultMiddlewares returns the global chain in the order bot.Use applies it:
// panic recovery, the per-user rate limit when configured, update logging and
// message counters. onLimited may be nil.
func DefaultMiddlewares(cfg *coreconfig.Config, onLimited func(tele.Context) error) []Middleware {
	chain := []Middleware{{Name: "recover", Use: middleware.RecoverMiddleware}}
	if rl := rateLimit(cfg, onLimited); rl != nil {
		chain = append(chain, Middleware{Name: "rate_limit", Use: rl})
	}
	return append(chain,
		Middleware{Name: "logger", Use: middleware.LoggerMiddleware},
		Middleware{Name: "metrics", Use: middleware.MessageMetricsMiddleware},
	)
}

func rateLimit(cfg *coreconfig.Config, onLimited func(tele.Context) error) tele.MiddlewareFunc {
	if cfg == nil || cfg.RateLimit.IntervalMS <= 0 {
		return nil
	}
	// Normalize has already lowercased and validated the exclusions.
	skip := make(map[string]struct{}, len(cfg.RateLimit.ExcludeUpdates))
	for _, kind := range cfg.RateLimit.ExcludeUpdates {
		skip[kind] = struct{}{}
	}
	return middleware.RateLimitMiddleware(middleware.RateLimitOptions{
		Interval:  time.Duration(cfg.RateLimit.IntervalMS) * time.Millisecond,
		Exclude:   skip,
		OnLimited: onLimited,
	})
}
