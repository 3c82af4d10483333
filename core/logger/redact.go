package logger

import "regexp"

const redacted = "<redacted>"

var (
	botTokenRe = regexp.MustCompile(`bot\d+:[A-Za-z0-9_-]+`)
	queryKeyRe = regexp.MustCompile(`((?:^|[?&\s])(?:api_)?key=)[^&\s"]+`)
	secretKeys = newSet("token", "api_key", "password", "secret")
)

// Redact masks Telegram bot tokens and key/api_key query values in s.
func Redact(s string) string {
	s = botTokenRe.ReplaceAllString(s, "bot"+redacted)
	return queryKeyRe.ReplaceAllString(s, "${1}"+redacted)
}
