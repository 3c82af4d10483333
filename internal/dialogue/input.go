package dialogue

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

// Command is the tagged form of every button and slash command the bot
// understands. Button payloads carry the tag, never the label.
type Command int

const (
	CmdUnknown Command = iota
	CmdBegin
	CmdInfo
	CmdRecent
	CmdWords
	CmdHeroes
	CmdMore
	CmdBack
	CmdStart
)

var commandTags = map[Command]string{
	CmdUnknown: "unknown",
	CmdBegin:   "begin",
	CmdInfo:    "info",
	CmdRecent:  "recent",
	CmdWords:   "words",
	CmdHeroes:  "heroes",
	CmdMore:    "more",
	CmdBack:    "back",
	CmdStart:   "start",
}

// String returns the callback tag of c.
func (c Command) String() string {
	if s, ok := commandTags[c]; ok {
		return s
	}
	return "unknown"
}

// ParseCommand maps a callback tag back to its Command.
func ParseCommand(tag string) Command {
	tag = strings.ToLower(strings.TrimSpace(tag))
	for c, s := range commandTags {
		if s == tag && c != CmdUnknown {
			return c
		}
	}
	return CmdUnknown
}

// Kind separates commands from free text.
type Kind int

const (
	KindCommand Kind = iota
	KindText
)

// Input is one user event as seen by the machine.
type Input struct {
	Kind    Kind
	Command Command
	Text    string
}

// CommandInput wraps a command.
func CommandInput(c Command) Input { return Input{Kind: KindCommand, Command: c} }

// TextInput wraps free text.
func TextInput(s string) Input { return Input{Kind: KindText, Text: s} }

// category is the column of the transition table an input falls into.
type category string

const (
	catBegin          category = "begin"
	catInfo           category = "info"
	catRecent         category = "recent"
	catWords          category = "words"
	catHeroes         category = "heroes"
	catMore           category = "more"
	catBack           category = "back"
	catStart          category = "start"
	catInteger        category = "integer"
	catText           category = "text"
	catUnknownCommand category = "unknown_command"
)

// categorize returns the input's category and, for integer text, its value.
func categorize(in Input) (category, int) {
	if in.Kind == KindText {
		if n, ok := parseCount(in.Text); ok {
			return catInteger, n
		}
		return catText, 0
	}
	switch in.Command {
	case CmdUnknown:
		return catUnknownCommand, 0
	default:
		return category(in.Command.String()), 0
	}
}

// parseCount reads signed decimal text. Values outside int saturate so the
// report clamps still apply to them.
func parseCount(text string) (int, bool) {
	text = strings.TrimSpace(text)
	n, err := strconv.Atoi(text)
	if err == nil {
		return n, true
	}
	if !errors.Is(err, strconv.ErrRange) {
		return 0, false
	}
	// Overflow is reported before the remaining bytes are checked.
	digits := strings.TrimLeft(text, "+-")
	if len(text)-len(digits) > 1 || strings.TrimLeft(digits, "0123456789") != "" {
		return 0, false
	}
	if text[0] == '-' {
		return math.MinInt, true
	}
	return math.MaxInt, true
}
