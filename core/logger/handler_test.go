package logger

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"
)

// render logs one event through a fresh handler and returns the line.
func render(t *testing.T, format logFormat, ctx context.Context, event string, attrs ...slog.Attr) string {
	t.Helper()
	var buf bytes.Buffer
	w := newAsyncWriter([]io.Writer{&buf}, 1024)
	h := newLineHandler(handlerConfig{level: slog.LevelDebug, writer: w, format: format})
	LogEvent(ctx, slog.New(h).With("component", "dialogue"), slog.LevelInfo, event, attrs...)
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	return strings.TrimSpace(buf.String())
}

func TestKVKeyOrder(t *testing.T) {
	ctx := WithUpdateMeta(WithRID(context.Background(), "rid-123"), 42, 7, 9)
	line := render(t, formatKV, ctx, "test.event",
		slog.String("cause", "unit"),
		slog.String("status", "OK"),
	)
	tokens := strings.Fields(line)
	want := []string{"ts=", "level=INFO", "component=dialogue", "event=test.event", "status=ok", "rid=rid-123", "update_id=42", "user_id=7", "chat_id=9"}
	if len(tokens) < len(want) {
		t.Fatalf("line too short: %s", line)
	}
	for i, prefix := range want {
		if !strings.HasPrefix(tokens[i], prefix) {
			t.Fatalf("token %d = %s, want prefix %s (%s)", i, tokens[i], prefix, line)
		}
	}
}

func TestJSONKeyOrderAndRID(t *testing.T) {
	raw := "12:34:56"
	line := render(t, formatJSON, WithRID(context.Background(), raw), "service.failed",
		slog.String("err_code", "UPSTREAM_UNAVAILABLE"),
		slog.String("status", "fail"),
	)
	pos := -1
	for _, part := range []string{`{"ts":`, `"level":"INFO"`, `"component":"dialogue"`, `"event":"service.failed"`, `"status":"fail"`, `"rid":"` + CompactRID(raw) + `"`, `"rid_full":"` + raw + `"`, `"ts_unix_nano":`} {
		idx := strings.Index(line, part)
		if idx == -1 || idx < pos {
			t.Fatalf("%s missing or out of order in %s", part, line)
		}
		pos = idx
	}
}

func TestKVOmitsFullRID(t *testing.T) {
	line := render(t, formatKV, WithRID(context.Background(), "123:456:789"), "rid.test")
	if !strings.Contains(line, "rid="+CompactRID("123:456:789")) || strings.Contains(line, "rid_full=") {
		t.Fatalf("unexpected rid rendering: %s", line)
	}
}

func TestDurationsGroupsAndOutcomes(t *testing.T) {
	line := render(t, formatKV, context.Background(), "transition",
		slog.String("next_state", "awaiting_match_count"),
		slog.String("state", "player_menu"),
		slog.Duration("duration", 1500*time.Microsecond),
		slog.Group("http", slog.Int("code", 503)),
		slog.String("outcome", "bogus"),
		slog.String("empty", " "),
	)
	for _, want := range []string{"duration_ms=2", "http.code=503"} {
		if !strings.Contains(line, want) {
			t.Fatalf("missing %s in %s", want, line)
		}
	}
	if strings.Index(line, "state=player_menu") > strings.Index(line, "next_state=") {
		t.Fatalf("state must precede next_state: %s", line)
	}
	if strings.Contains(line, "outcome=") || strings.Contains(line, "empty=") {
		t.Fatalf("unknown outcome and empty values must be dropped: %s", line)
	}
}

func TestSecretsRedacted(t *testing.T) {
	line := render(t, formatKV, context.Background(), "upstream.fail",
		slog.String("api_key", "s3cret"),
		slog.Any("err", errors.New(`GET https://api.steampowered.com/ISteamUser/ResolveVanityURL/v0001/?key=ABC123&vanityurl=x: timeout`)),
		slog.String("cause", "https://api.telegram.org/bot123456:AAH-secret/sendMessage"),
	)
	for _, leak := range []string{"s3cret", "ABC123", "AAH-secret"} {
		if strings.Contains(line, leak) {
			t.Fatalf("secret %q leaked: %s", leak, line)
		}
	}
	if !strings.Contains(line, "vanityurl=x") {
		t.Fatalf("non-secret query values must survive: %s", line)
	}
}

func TestWithAttrsAndGroup(t *testing.T) {
	var buf bytes.Buffer
	w := newAsyncWriter([]io.Writer{&buf}, 1024)
	log := slog.New(newLineHandler(handlerConfig{writer: w, format: formatKV})).
		With("component", "client.opendota").
		WithGroup("req").
		With("endpoint", "players")
	log.Info("call", "http_code", 200)
	log.Debug("hidden")
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	out := buf.String()
	if strings.Count(out, "\n") != 1 {
		t.Fatalf("debug line must be filtered at info level: %q", out)
	}
	if !strings.Contains(out, "req.endpoint=players") || !strings.Contains(out, "req.http_code=200") || !strings.Contains(out, "event=call") {
		t.Fatalf("unexpected line: %s", out)
	}
}

func TestWriterRejectsAfterClose(t *testing.T) {
	var buf bytes.Buffer
	w := newAsyncWriter([]io.Writer{&buf}, 16)
	for i := 0; i < 500; i++ {
		if err := w.Write([]byte("x\n")); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if got := strings.Count(buf.String(), "\n"); got != 500 {
		t.Fatalf("lines = %d, want 500", got)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := w.Write([]byte("late\n")); err == nil {
		t.Fatal("write after close must fail")
	}
}

func TestRatioSampler(t *testing.T) {
	s := newRatioSampler(1, 3)
	want := []bool{true, false, false, true}
	for i, w := range want {
		if got := s.Allow(); got != w {
			t.Fatalf("Allow() #%d = %v, want %v", i, got, w)
		}
	}
	s.Set(0, 0)
	if !s.Allow() {
		t.Fatal("disabled sampler must allow everything")
	}
}

func TestParseRatioSpec(t *testing.T) {
	cases := map[string][2]int{
		"1/10": {1, 10},
		"25":   {1, 25},
		"0":    {0, 0},
		"a/b":  {0, 0},
		"junk": {0, 0},
	}
	for in, want := range cases {
		num, den := parseRatioSpec(in)
		if num != want[0] || den != want[1] {
			t.Fatalf("parseRatioSpec(%q) = %d/%d, want %d/%d", in, num, den, want[0], want[1])
		}
	}
}

func TestCompactRIDAndSanitize(t *testing.T) {
	if got := CompactRID("35:36:1"); got != "z.10.1" {
		t.Fatalf("CompactRID = %q", got)
	}
	if got := CompactRID("not-a-rid"); got != "not-a-rid" {
		t.Fatalf("CompactRID passthrough = %q", got)
	}
	if got := SanitizeLimit("a\x00b\tc\u200bd", 4); got != "ab\tc" {
		t.Fatalf("SanitizeLimit = %q", got)
	}
}
