package callbacks

import (
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v4"
)

// PayloadInt parses the callback payload as int.
func PayloadInt(c tele.Context) (int, error) {
	return strconv.Atoi(strings.TrimSpace(CallbackPayload(c)))
}
