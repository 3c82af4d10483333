// Package bot binds the dialogue machine to Telegram: slash commands, button
// callbacks and free text all become machine inputs, and replies go out in
// order with the keyboard of the new state.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/m3rciful/mydotainfo/core/buildinfo"
	"github.com/m3rciful/mydotainfo/core/logger"
	tg "github.com/m3rciful/mydotainfo/core/telegram"
	"github.com/m3rciful/mydotainfo/core/telegram/callbacks"
	"github.com/m3rciful/mydotainfo/core/telegram/commands"
	"github.com/m3rciful/mydotainfo/core/telegram/helpers"
	"github.com/m3rciful/mydotainfo/internal/apperr"
	"github.com/m3rciful/mydotainfo/internal/dialogue"

	tele "gopkg.in/telebot.v4"
)

const (
	msgUnsupportedAction = "Unsupported action"
	msgUnexpectedMedia   = "Only text and buttons are supported. /start if unsure"
	msgAdminOnly         = "This command is for the bot administrator."
)

// Machine is the conversation engine the bot drives.
type Machine interface {
	Handle(ctx context.Context, userID int64, in dialogue.Input) dialogue.Reply
	Sessions() int
}

// Counter reports the size of a loaded table.
type Counter interface {
	Len() int
}

// Bot translates Telegram updates into machine inputs.
type Bot struct {
	machine Machine
	heroes  Counter
}

// New returns a Bot over m. heroes may be nil; /status then omits the table size.
func New(m Machine, heroes Counter) *Bot {
	return &Bot{machine: m, heroes: heroes}
}

// Register adds the bot's commands, callbacks and fallbacks to reg.
func (b *Bot) Register(reg *tg.Registry) error {
	cmds := []struct {
		name string
		def  commands.Command
	}{
		{"/start", commands.Command{Handler: b.command(dialogue.CmdStart), Description: "Main menu", Aliases: []string{"menu"}}},
		{"/about", commands.Command{Handler: b.command(dialogue.CmdInfo), Description: "About this bot"}},
		{"/back", commands.Command{Handler: b.command(dialogue.CmdBack), Description: "Back to the main menu"}},
		{"/status", commands.Command{Handler: b.status, Description: "Bot status", AdminOnly: true, Hidden: true}},
	}
	for _, c := range cmds {
		if err := reg.RegisterCommand(c.name, c.def); err != nil {
			return fmt.Errorf("bot: %w", err)
		}
	}

	for _, cmd := range []dialogue.Command{
		dialogue.CmdBegin, dialogue.CmdInfo, dialogue.CmdRecent, dialogue.CmdWords,
		dialogue.CmdHeroes, dialogue.CmdMore, dialogue.CmdBack, dialogue.CmdStart,
	} {
		if err := reg.RegisterCallback(cmd.String(), b.command(cmd)); err != nil {
			return fmt.Errorf("bot: %w", err)
		}
	}
	if err := reg.RegisterCallback(countKey, b.count); err != nil {
		return fmt.Errorf("bot: %w", err)
	}

	reg.ApplyFallbacks(b)
	return nil
}

// HandleText feeds free text to the machine.
func (b *Bot) HandleText(c tele.Context) error {
	return b.dispatch(c, dialogue.TextInput(c.Text()))
}

// UnknownCommand answers slash commands that are not registered.
func (b *Bot) UnknownCommand() tele.HandlerFunc {
	return b.command(dialogue.CmdUnknown)
}

// UnknownCallback answers buttons from keyboards the bot no longer serves.
func (b *Bot) UnknownCallback() tele.HandlerFunc {
	return func(c tele.Context) error {
		helpers.SetOutcome(c, "rejected", apperr.ErrUnrecognizedCommand)
		return c.Respond(&tele.CallbackResponse{Text: msgUnsupportedAction})
	}
}

// UnexpectedMedia answers photos, stickers and other non-text messages.
func (b *Bot) UnexpectedMedia() tele.HandlerFunc {
	return func(c tele.Context) error {
		helpers.SetOutcome(c, "rejected", apperr.ErrUnrecognizedText)
		return helpers.SendText(c, msgUnexpectedMedia)
	}
}

func (b *Bot) command(cmd dialogue.Command) tele.HandlerFunc {
	return func(c tele.Context) error {
		return b.dispatch(c, dialogue.CommandInput(cmd))
	}
}

// count turns a match count quick pick into the same input as typing the number.
func (b *Bot) count(c tele.Context) error {
	n, err := callbacks.PayloadInt(c)
	if err != nil {
		return b.dispatch(c, dialogue.TextInput(callbacks.CallbackPayload(c)))
	}
	return b.dispatch(c, dialogue.TextInput(strconv.Itoa(n)))
}

func (b *Bot) dispatch(c tele.Context, in dialogue.Input) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}
	ctx := helpers.BuildContext(c)
	helpers.Typing(c)

	reply := b.machine.Handle(ctx, sender.ID, in)
	if reply.Err != nil {
		helpers.SetOutcome(c, outcomeOf(reply.Err), reply.Err)
	}
	return helpers.SendChunks(c, reply.Messages, Markup(reply.Keyboard))
}

// outcomeOf separates user mistakes from provider failures in the summary log.
func outcomeOf(err error) string {
	if errors.Is(err, apperr.ErrUpstreamUnavailable) {
		return "fail"
	}
	return "rejected"
}

func (b *Bot) status(c tele.Context) error {
	ctx := helpers.BuildContext(c)
	var sb strings.Builder
	fmt.Fprintf(&sb, "Build: %s\n", buildinfo.Summary())
	fmt.Fprintf(&sb, "Active sessions: %d\n", b.machine.Sessions())
	if b.heroes != nil {
		fmt.Fprintf(&sb, "Heroes loaded: %d", b.heroes.Len())
	}
	logger.Info(ctx, "app", "status.requested", slog.Int("count", b.machine.Sessions()))
	return helpers.SendText(c, strings.TrimRight(sb.String(), "\n"))
}

// AdminReject answers non-admins who call an admin command.
func AdminReject(c tele.Context) error {
	helpers.SetOutcome(c, "rejected", nil)
	return helpers.SendText(c, msgAdminOnly)
}
