package router

import (
	"strings"

	tg "github.com/m3rciful/mydotainfo/core/telegram"
	"github.com/m3rciful/mydotainfo/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// Conversation receives free text that is not a registered command.
type Conversation interface {
	HandleText(c tele.Context) error
}

// TextOptions configures TextRoutes.
type TextOptions struct {
	// UnknownCommand defaults to the registry's command fallback.
	UnknownCommand  tele.HandlerFunc
	UnexpectedMedia tele.HandlerFunc
}

// commandWord returns the command in text without arguments or the
// "@botname" suffix Telegram adds in groups.
func commandWord(text string) (string, bool) {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return "", false
	}
	word, _, _ := strings.Cut(fields[0], "@")
	return word, true
}

// TextRoutes returns the text and media routes. Slash commands resolve through
// the registry, including aliases; unknown ones go to UnknownCommand and all
// other text to conv.
func TextRoutes(conv Conversation, reg *tg.Registry, opts TextOptions) []tg.Route {
	if reg == nil {
		reg = tg.NewRegistry()
	}
	unknown := opts.UnknownCommand
	if unknown == nil {
		unknown = reg.CommandNotFound()
	}

	text := func(c tele.Context) error {
		if word, ok := commandWord(c.Text()); ok {
			if name, cmd, found := reg.LookupCommand(word); found {
				return serve(c, normalizeHandlerName(name), cmd.Handler)
			}
			if unknown != nil {
				return serve(c, "unknown_command", unknown)
			}
		}
		if conv == nil {
			skip(c, "unknown_text")
			return nil
		}
		return serve(c, "conversation", conv.HandleText)
	}

	media := func(c tele.Context) error {
		if opts.UnexpectedMedia == nil {
			skip(c, "unexpected_media")
			return nil
		}
		return serve(c, "unexpected_media", opts.UnexpectedMedia)
	}

	return []tg.Route{
		{Endpoint: tele.OnText, Handler: middleware.RecoverMiddleware(text)},
		{Endpoint: tele.OnMedia, Handler: middleware.RecoverMiddleware(media)},
	}
}
