package helpers

import (
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/m3rciful/mydotainfo/core/logger"
	"github.com/m3rciful/mydotainfo/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

var dispatcher atomic.Pointer[sender.Dispatcher]

// SetDispatcher routes the send helpers through d; nil makes them synchronous.
func SetDispatcher(d *sender.Dispatcher) {
	dispatcher.Store(d)
}

// deliver hands run to the dispatcher. A full or closed queue degrades to a
// synchronous call so the user still gets an answer.
func deliver(c tele.Context, action, endpoint string, run func() error) error {
	d := dispatcher.Load()
	if d == nil {
		return run()
	}
	ctx := BuildContext(c)
	err := d.Enqueue(ctx, action, endpoint, run)
	if errors.Is(err, sender.ErrQueueFull) || errors.Is(err, sender.ErrQueueClosed) {
		logger.Warn(ctx, "tg.sender", "queue.fallback",
			slog.String("handler", action),
			slog.String("endpoint", endpoint),
			slog.Any("err", err),
		)
		return run()
	}
	return err
}

// SendText sends text as is, without a parse mode.
func SendText(c tele.Context, text string) error {
	return deliver(c, "send.text", "sendMessage", func() error {
		return c.Send(text, &tele.SendOptions{DisableWebPagePreview: true})
	})
}

// SendChunks sends texts in order as one job with markup on the last one.
// A retried job resumes at the first text that was not delivered.
func SendChunks(c tele.Context, texts []string, markup *tele.ReplyMarkup) error {
	if len(texts) == 0 {
		return nil
	}
	sent := 0
	return deliver(c, "send.chunks", "sendMessage", func() error {
		for ; sent < len(texts); sent++ {
			opts := &tele.SendOptions{DisableWebPagePreview: true}
			if sent == len(texts)-1 {
				opts.ReplyMarkup = markup
			}
			if err := c.Send(texts[sent], opts); err != nil {
				return err
			}
		}
		return nil
	})
}

// Typing shows the "typing" chat action and does not wait for it.
func Typing(c tele.Context) {
	notify := func() error { return c.Notify(tele.Typing) }
	if dispatcher.Load() == nil {
		go func() { _ = notify() }()
		return
	}
	_ = deliver(c, "notify.typing", "sendChatAction", notify)
}
