// Package commands describes slash commands exposed through the registry.
package commands

import (
	tele "gopkg.in/telebot.v4"
)

// Command is a slash command with the metadata the registry and the command
// menu need.
type Command struct {
	Handler     tele.HandlerFunc
	Description string
	// AdminOnly commands are wrapped with the admin check and never listed.
	AdminOnly bool
	// Hidden commands work but are not listed in the command menu.
	Hidden  bool
	Aliases []string
}
