// Package ui declares the hooks a bot supplies for updates nothing else handles.
package ui

import tele "gopkg.in/telebot.v4"

// FallbackProvider exposes handlers used when incoming updates cannot be
// mapped to a registered command or callback.
type FallbackProvider interface {
	// UnknownCommand handles slash commands missing from the registry.
	UnknownCommand() tele.HandlerFunc
	// UnknownCallback handles buttons whose unique key is not registered.
	UnknownCallback() tele.HandlerFunc
	// UnexpectedMedia handles photos, stickers, documents and other non-text messages.
	UnexpectedMedia() tele.HandlerFunc
}
