// Package helpers carries request context and outbound sends for handlers.
package helpers

import (
	"context"

	"github.com/m3rciful/mydotainfo/core/logger"

	tele "gopkg.in/telebot.v4"
)

// Keys under which values live in the telebot context store.
const (
	contextKey = "logger_ctx"
	outcomeKey = "handler_outcome"
	ridKey     = "rid"
)

// StoreContext caches ctx on c for later handlers and middlewares.
func StoreContext(c tele.Context, ctx context.Context) {
	if c != nil && ctx != nil {
		c.Set(contextKey, ctx)
	}
}

// ContextFrom returns the context cached by StoreContext.
func ContextFrom(c tele.Context) (context.Context, bool) {
	if c == nil {
		return nil, false
	}
	ctx, ok := c.Get(contextKey).(context.Context)
	return ctx, ok
}

// BuildContext returns the update's logging context, creating and caching it
// on first use. It carries the rid, the update, user and chat ids and the tg
// component logger.
func BuildContext(c tele.Context) context.Context {
	if ctx, ok := ContextFrom(c); ok {
		return ctx
	}
	var userID, chatID int64
	if u := c.Sender(); u != nil {
		userID = u.ID
	}
	if ch := c.Chat(); ch != nil {
		chatID = ch.ID
	}
	updateID := c.Update().ID

	rid, _ := c.Get(ridKey).(string)
	if rid == "" {
		rid = logger.BuildRID(updateID, chatID, userID)
	}
	ctx := logger.WithUpdateMeta(logger.WithRID(context.Background(), rid), updateID, userID, chatID)
	ctx = logger.WithLogger(ctx, logger.TG)
	StoreContext(c, ctx)
	return ctx
}

// WithHandler tags the update's context with the handler serving it.
func WithHandler(c tele.Context, handler string) context.Context {
	ctx := BuildContext(c)
	if handler != "" {
		ctx = logger.WithHandler(ctx, handler)
		StoreContext(c, ctx)
	}
	return ctx
}

// Outcome is a failure the handler already answered to the user, so it is
// not returned as an error but still belongs in the summary log.
type Outcome struct {
	Name string
	Err  error
}

// SetOutcome records a soft outcome such as "rejected" or "fail".
func SetOutcome(c tele.Context, name string, err error) {
	if c != nil && name != "" {
		c.Set(outcomeKey, Outcome{Name: name, Err: err})
	}
}

// OutcomeFrom returns the outcome recorded by SetOutcome.
func OutcomeFrom(c tele.Context) (Outcome, bool) {
	if c == nil {
		return Outcome{}, false
	}
	o, ok := c.Get(outcomeKey).(Outcome)
	return o, ok
}
