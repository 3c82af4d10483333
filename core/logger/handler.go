package logger

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"
)

type logFormat string

const (
	formatJSON logFormat = "json"
	formatKV   logFormat = "kv"

	tsLayout = "2006-01-02T15:04:05.000Z07:00"
)

type handlerConfig struct {
	level    slog.Leveler
	writer   *asyncWriter
	format   logFormat
	keyOrder []string
}

// lineHandler renders each record as one flat line: nested groups become
// dotted keys, durations become *_ms integers and well-known keys come first
// in a fixed order.
type lineHandler struct {
	cfg    handlerConfig
	enc    encoder
	preset record
	prefix string
}

func newLineHandler(cfg handlerConfig) *lineHandler {
	if cfg.level == nil {
		cfg.level = slog.LevelInfo
	}
	if cfg.keyOrder == nil {
		cfg.keyOrder = append([]string(nil), defaultKeyOrder...)
	}
	h := &lineHandler{cfg: cfg, enc: kvEncoder{}}
	if cfg.format == formatJSON {
		h.enc = jsonEncoder{}
	}
	return h
}

// Enabled reports whether level passes the configured minimum.
func (h *lineHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.cfg.level.Level()
}

// Handle renders r and queues the line.
func (h *lineHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.cfg.writer == nil {
		return fmt.Errorf("logger: writer not initialized")
	}
	rec := make(record, 16+len(h.preset))
	ts := r.Time.UTC()
	rec["ts"] = ts.Truncate(time.Millisecond).Format(tsLayout)
	rec["level"] = levelName(r.Level.String())
	if h.cfg.format == formatJSON {
		rec["ts_unix_nano"] = ts.UnixNano()
	}
	for k, v := range h.preset {
		rec[k] = v
	}
	r.Attrs(func(a slog.Attr) bool {
		rec.add(h.prefix, a)
		return true
	})
	rec.fromContext(ctx)
	rec.finish(r.Message, h.cfg.format == formatJSON)

	line, err := h.enc.encode(rec, h.cfg.keyOrder)
	if err != nil {
		return err
	}
	return h.cfg.writer.Write(append(line, '\n'))
}

// WithAttrs resolves attrs once so every later record only copies them.
func (h *lineHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.preset = make(record, len(h.preset)+len(attrs))
	for k, v := range h.preset {
		clone.preset[k] = v
	}
	for _, a := range attrs {
		clone.preset.add(h.prefix, a)
	}
	return &clone
}

// WithGroup prefixes later attribute keys with name.
func (h *lineHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.prefix = joinKey(h.prefix, name)
	return &clone
}

// record is one log line before encoding.
type record map[string]any

func joinKey(prefix, key string) string {
	switch {
	case prefix == "":
		return key
	case key == "":
		return prefix
	}
	return prefix + "." + key
}

func (r record) add(prefix string, a slog.Attr) {
	key := joinKey(prefix, a.Key)
	v := a.Value.Resolve()
	if v.Kind() == slog.KindGroup {
		for _, child := range v.Group() {
			r.add(key, child)
		}
		return
	}
	if key == "" {
		return
	}
	if secretKeys.has(a.Key) {
		r[key] = redacted
		return
	}
	if k, val, ok := plain(key, v); ok {
		r[k] = val
	}
}

// plain converts v to a JSON-friendly value, renaming duration keys.
func plain(key string, v slog.Value) (string, any, bool) {
	switch v.Kind() {
	case slog.KindString:
		return key, scrub(v.String()), true
	case slog.KindBool:
		return key, v.Bool(), true
	case slog.KindInt64:
		return key, v.Int64(), true
	case slog.KindUint64:
		if u := v.Uint64(); u <= math.MaxInt64 {
			return key, int64(u), true
		}
		return key, v.Uint64(), true
	case slog.KindFloat64:
		return key, v.Float64(), true
	case slog.KindDuration:
		return msKey(key), RoundMS(v.Duration()).Milliseconds(), true
	case slog.KindTime:
		return key, v.Time().UTC().Format(time.RFC3339Nano), true
	}
	switch x := v.Any().(type) {
	case nil:
		return key, nil, false
	case error:
		return key, scrub(x.Error()), true
	case time.Duration:
		return msKey(key), RoundMS(x).Milliseconds(), true
	case fmt.Stringer:
		return key, scrub(x.String()), true
	default:
		return key, scrub(fmt.Sprint(x)), true
	}
}

func scrub(s string) string {
	s = strings.TrimSpace(s)
	if strings.Contains(s, "key=") || strings.Contains(s, "bot") {
		return Redact(s)
	}
	return s
}

// msKey makes the unit of a duration key explicit.
func msKey(key string) string {
	if strings.HasSuffix(key, "_ms") {
		return key
	}
	return key + "_ms"
}

func (r record) fromContext(ctx context.Context) {
	if ctx == nil {
		return
	}
	r.setDefault("rid", RIDFrom(ctx))
	r.setDefault("handler", HandlerFrom(ctx))
	m := metaFrom(ctx)
	if m.updateID != 0 {
		r.setDefault("update_id", int64(m.updateID))
	}
	if m.userID != 0 {
		r.setDefault("user_id", m.userID)
	}
	if m.chatID != 0 {
		r.setDefault("chat_id", m.chatID)
	}
}

func (r record) setDefault(key string, v any) {
	if s, ok := v.(string); ok && s == "" {
		return
	}
	if _, ok := r[key]; !ok {
		r[key] = v
	}
}

func (r record) str(key string) string {
	switch v := r[key].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// finish applies defaults, compacts the rid and drops empty or unknown values.
func (r record) finish(msg string, keepFullRID bool) {
	if rid := r.str("rid"); rid != "" {
		if short := CompactRID(rid); short != rid {
			r["rid"] = short
			if keepFullRID {
				r.setDefault("rid_full", rid)
			}
		}
	}
	if r.str("event") == "" {
		r["event"] = msg
		if msg == "" {
			r["event"] = "unknown"
		}
	}
	if r.str("component") == "" {
		r["component"] = "app"
	}
	if _, ok := r["status"]; ok {
		r["status"] = cleanStatus(r.str("status"))
	}
	if _, ok := r["outcome"]; ok {
		if o, known := cleanOutcome(r.str("outcome")); known {
			r["outcome"] = o
		} else {
			delete(r, "outcome")
		}
	}
	for k, v := range r {
		if s, ok := v.(string); ok && s == "" {
			delete(r, k)
		}
	}
}
