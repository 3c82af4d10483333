// Package callbacks decodes inline button payloads.
package callbacks

import (
	"strings"

	tele "gopkg.in/telebot.v4"
)

// ParseCallbackData returns the unique key and payload of cb. Raw data uses
// telebot's "\f<unique>|<payload>" layout; when telebot already matched a
// button, Unique and Data hold the split parts.
func ParseCallbackData(cb *tele.Callback) (unique, payload string) {
	switch {
	case cb == nil:
		return "", ""
	case cb.Unique != "":
		return cb.Unique, cb.Data
	}
	unique, payload, _ = strings.Cut(strings.TrimPrefix(cb.Data, "\f"), "|")
	return strings.TrimSpace(unique), payload
}

// CallbackKey is the unique part of the current callback.
func CallbackKey(c tele.Context) string {
	k, _ := ParseCallbackData(c.Callback())
	return k
}

// CallbackPayload is the payload part of the current callback.
func CallbackPayload(c tele.Context) string {
	_, p := ParseCallbackData(c.Callback())
	return p
}
