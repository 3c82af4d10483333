package middleware

import (
	"github.com/m3rciful/mydotainfo/core/metrics"

	tele "gopkg.in/telebot.v4"
)

const (
	sentKey     = "messages"
	keyboardKey = "kb"
)

// countingContext counts successful sends on the wrapped context so the
// handler summary can report how many messages an update produced.
type countingContext struct{ tele.Context }

func (c countingContext) record(opts []interface{}) {
	metrics.MessagesSent.Inc()
	n, _ := c.Get(sentKey).(int)
	c.Set(sentKey, n+1)
	if withKeyboard(opts) {
		c.Set(keyboardKey, true)
	}
}

func withKeyboard(opts []interface{}) bool {
	for _, o := range opts {
		switch v := o.(type) {
		case *tele.SendOptions:
			if v != nil && v.ReplyMarkup != nil {
				return true
			}
		case *tele.ReplyMarkup:
			if v != nil {
				return true
			}
		}
	}
	return false
}

// Send counts the message after it was delivered.
func (c countingContext) Send(what interface{}, opts ...interface{}) error {
	if err := c.Context.Send(what, opts...); err != nil {
		return err
	}
	c.record(opts)
	return nil
}

// Reply counts the message after it was delivered.
func (c countingContext) Reply(what interface{}, opts ...interface{}) error {
	if err := c.Context.Reply(what, opts...); err != nil {
		return err
	}
	c.record(opts)
	return nil
}

// MessageMetricsMiddleware hands downstream handlers a counting context.
func MessageMetricsMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		c.Set(sentKey, 0)
		c.Set(keyboardKey, false)
		return next(countingContext{Context: c})
	}
}

// GetCounters returns how many messages were sent for the update and
// whether any of them carried a keyboard.
func GetCounters(c tele.Context) (int, bool) {
	n, _ := c.Get(sentKey).(int)
	kb, _ := c.Get(keyboardKey).(bool)
	return n, kb
}
