package bot

import (
	"strconv"

	"github.com/m3rciful/mydotainfo/core/telegram/keyboard"
	"github.com/m3rciful/mydotainfo/internal/dialogue"

	tele "gopkg.in/telebot.v4"
)

// countKey is the callback key of the match count quick picks; the payload is the count.
const countKey = "count"

var matchCountPicks = []int{5, 10, 20}

func cmdBtn(label string, cmd dialogue.Command) keyboard.Button {
	return keyboard.Button{Text: label, Unique: cmd.String()}
}

// Markup returns the inline keyboard for kb, nil when none is shown.
func Markup(kb dialogue.Keyboard) *tele.ReplyMarkup {
	var l keyboard.Layout
	switch kb {
	case dialogue.KeyboardMenu:
		l.Row(cmdBtn("Let's Go 🎮", dialogue.CmdBegin), cmdBtn("Info ℹ️", dialogue.CmdInfo))
	case dialogue.KeyboardPlayer:
		l.Row(
			cmdBtn("Recent Matches 👁", dialogue.CmdRecent),
			cmdBtn("Word Count 💬", dialogue.CmdWords),
			cmdBtn("Heroes", dialogue.CmdHeroes),
		).Row(cmdBtn("More Info ℹ", dialogue.CmdMore), cmdBtn("Back", dialogue.CmdBack))
	case dialogue.KeyboardMatchCount:
		picks := make([]keyboard.Button, 0, len(matchCountPicks))
		for _, n := range matchCountPicks {
			s := strconv.Itoa(n)
			picks = append(picks, keyboard.Button{Text: s, Unique: countKey, Data: s})
		}
		l.Row(picks...).Row(cmdBtn("Back", dialogue.CmdBack))
	}
	return l.Markup()
}
