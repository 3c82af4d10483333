package logger

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"unicode"
)

type ctxKey int

const (
	keyRID ctxKey = iota
	keyMeta
	keyLogger
	keyHandler
)

// updateMeta identifies the Telegram update a context belongs to.
type updateMeta struct {
	updateID int
	userID   int64
	chatID   int64
}

func orBackground(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}

func value[T any](ctx context.Context, key ctxKey) T {
	var zero T
	if ctx == nil {
		return zero
	}
	v, _ := ctx.Value(key).(T)
	return v
}

// WithLogger stores log in ctx; FromContext returns it.
func WithLogger(ctx context.Context, log *slog.Logger) context.Context {
	ctx = orBackground(ctx)
	if log == nil {
		return ctx
	}
	return context.WithValue(ctx, keyLogger, log)
}

// FromContext returns the logger stored by WithLogger, or L.
func FromContext(ctx context.Context) *slog.Logger {
	if l := value[*slog.Logger](ctx, keyLogger); l != nil {
		return l
	}
	return L
}

// WithRID attaches the request correlation id.
func WithRID(ctx context.Context, rid string) context.Context {
	return context.WithValue(orBackground(ctx), keyRID, rid)
}

// RIDFrom returns the correlation id, if any.
func RIDFrom(ctx context.Context) string {
	return value[string](ctx, keyRID)
}

// WithUpdateMeta attaches the update, user and chat ids.
func WithUpdateMeta(ctx context.Context, updateID int, userID, chatID int64) context.Context {
	return context.WithValue(orBackground(ctx), keyMeta, updateMeta{updateID: updateID, userID: userID, chatID: chatID})
}

func metaFrom(ctx context.Context) updateMeta {
	return value[updateMeta](ctx, keyMeta)
}

// WithHandler records which handler is serving the update.
func WithHandler(ctx context.Context, handler string) context.Context {
	ctx = orBackground(ctx)
	if handler == "" {
		return ctx
	}
	return context.WithValue(ctx, keyHandler, handler)
}

// HandlerFrom returns the handler recorded by WithHandler.
func HandlerFrom(ctx context.Context) string {
	return value[string](ctx, keyHandler)
}

// UserIDFrom returns the Telegram user id.
func UserIDFrom(ctx context.Context) int64 { return metaFrom(ctx).userID }

// ChatIDFrom returns the chat id.
func ChatIDFrom(ctx context.Context) int64 { return metaFrom(ctx).chatID }

// UpdateIDFrom returns the update id.
func UpdateIDFrom(ctx context.Context) int { return metaFrom(ctx).updateID }

// Sanitize drops control and format runes except tab and newline.
func Sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) || unicode.Is(unicode.Cf, r) {
			return -1
		}
		return r
	}, s)
}

// SanitizeLimit sanitizes s and cuts it to max runes.
func SanitizeLimit(s string, max int) string {
	if max <= 0 {
		return ""
	}
	r := []rune(Sanitize(s))
	if len(r) > max {
		r = r[:max]
	}
	return string(r)
}

// BuildRID formats the correlation id as updateID:chatID:userID.
func BuildRID(updateID int, chatID, userID int64) string {
	return fmt.Sprintf("%d:%d:%d", updateID, chatID, userID)
}

// CompactRID rewrites each part of a BuildRID id in base36, joined by dots.
// Anything else is returned trimmed but otherwise unchanged.
func CompactRID(rid string) string {
	rid = strings.TrimSpace(rid)
	parts := strings.Split(rid, ":")
	if len(parts) != 3 {
		return rid
	}
	for i, p := range parts {
		n, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil {
			return rid
		}
		parts[i] = strconv.FormatInt(n, 36)
	}
	return strings.Join(parts, ".")
}
