package logger

import "strings"

const (
	// LevelDebug represents the debug severity level name.
	LevelDebug = "DEBUG"
	// LevelInfo represents the info severity level name.
	LevelInfo = "INFO"
	// LevelWarn represents the warning severity level name.
	LevelWarn = "WARN"
	// LevelError represents the error severity level name.
	LevelError = "ERROR"
)

type set map[string]struct{}

func newSet(items ...string) set {
	s := make(set, len(items))
	for _, it := range items {
		s[it] = struct{}{}
	}
	return s
}

func (s set) has(v string) bool {
	_, ok := s[v]
	return ok
}

// knownStatuses and knownOutcomes are the values dashboards filter on.
// Unknown statuses pass through lowercased; unknown outcomes are dropped.
var (
	knownStatuses = newSet("ok", "fail", "skip", "retry", "rate_limited", "cancelled")
	knownOutcomes = newSet("ok", "fail", "rejected", "cancelled", "rate_limited")
)

func levelName(level string) string {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "", "info":
		return LevelInfo
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	}
	return strings.ToUpper(level)
}

func cleanStatus(status string) string {
	return strings.ToLower(strings.TrimSpace(status))
}

func cleanOutcome(outcome string) (string, bool) {
	outcome = strings.ToLower(strings.TrimSpace(outcome))
	return outcome, knownOutcomes.has(outcome)
}

// defaultKeyOrder puts identity first, then correlation, the conversation,
// provider calls and errors. Keys not listed follow alphabetically.
var defaultKeyOrder = []string{
	"ts", "level", "component", "event", "status",
	"rid", "rid_full", "ts_unix_nano",
	"update_id", "user_id", "chat_id", "chat_type",
	"handler", "cb_key", "outcome", "duration_ms", "messages", "kb",
	"state", "input", "next_state",
	"account_id", "report", "count", "chunks",
	"service", "endpoint", "http_code",
	"payload", "lang", "username",
	"mode", "listen", "public_url",
	"err", "err_code", "cause", "retryable", "attempts", "backoff_ms", "rate_limited",
}
