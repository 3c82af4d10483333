package middleware

import (
	"errors"
	"testing"
	"time"

	tele "gopkg.in/telebot.v4"
)

// quietContext accepts sends without reaching Telegram.
type quietContext struct{ tele.Context }

func (quietContext) Send(interface{}, ...interface{}) error  { return nil }
func (quietContext) Reply(interface{}, ...interface{}) error { return nil }

func newContext(t *testing.T, userID int64) tele.Context {
	t.Helper()
	b, err := tele.NewBot(tele.Settings{Token: "test", Offline: true})
	if err != nil {
		t.Fatalf("bot: %v", err)
	}
	return quietContext{b.NewContext(tele.Update{ID: 5, Message: &tele.Message{
		Text:   "hi",
		Sender: &tele.User{ID: userID},
		Chat:   &tele.Chat{ID: userID},
	}})}
}

func TestLimiter(t *testing.T) {
	l := newLimiter(time.Second)
	now := time.Unix(1000, 0)
	if !l.allow(1, now) {
		t.Fatal("first update must pass")
	}
	if l.allow(1, now.Add(500*time.Millisecond)) {
		t.Fatal("second update within interval must be dropped")
	}
	if !l.allow(2, now.Add(500*time.Millisecond)) {
		t.Fatal("other users are limited independently")
	}
	if !l.allow(1, now.Add(1500*time.Millisecond)) {
		t.Fatal("update after interval must pass")
	}
}

func TestRateLimitMiddlewareExclusions(t *testing.T) {
	calls := 0
	next := func(tele.Context) error { calls++; return nil }
	limited := 0
	mw := RateLimitMiddleware(RateLimitOptions{
		Interval:  time.Hour,
		OnLimited: func(tele.Context) error { limited++; return nil },
	})(next)
	c := newContext(t, 9)
	_ = mw(c)
	_ = mw(c)
	if calls != 1 || limited != 1 {
		t.Fatalf("calls=%d limited=%d", calls, limited)
	}

	calls = 0
	free := RateLimitMiddleware(RateLimitOptions{
		Interval: time.Hour,
		Exclude:  map[string]struct{}{"message": {}},
	})(next)
	_ = free(c)
	_ = free(c)
	if calls != 2 {
		t.Fatalf("excluded kind was limited: calls=%d", calls)
	}
}

func TestAdminOnly(t *testing.T) {
	passed, rejected := false, false
	mw := AdminOnlyMiddleware(AdminOptions{
		AdminID:  1,
		OnReject: func(tele.Context) error { rejected = true; return nil },
	})(func(tele.Context) error { passed = true; return nil })

	_ = mw(newContext(t, 2))
	if passed || !rejected {
		t.Fatalf("non-admin: passed=%v rejected=%v", passed, rejected)
	}
	rejected = false
	_ = mw(newContext(t, 1))
	if !passed || rejected {
		t.Fatalf("admin: passed=%v rejected=%v", passed, rejected)
	}

	passed = false
	open := AdminOnlyMiddleware(AdminOptions{})(func(tele.Context) error { passed = true; return nil })
	_ = open(newContext(t, 1))
	if passed {
		t.Fatal("without an admin id everyone is rejected")
	}
}

func TestRecover(t *testing.T) {
	err := RecoverMiddleware(func(tele.Context) error { panic("boom") })(newContext(t, 1))
	if err == nil {
		t.Fatal("expected panic turned into error")
	}
	want := errors.New("plain")
	if got := RecoverMiddleware(func(tele.Context) error { return want })(newContext(t, 1)); !errors.Is(got, want) {
		t.Fatalf("err = %v", got)
	}
}

func TestMessageCounters(t *testing.T) {
	c := newContext(t, 1)
	err := MessageMetricsMiddleware(func(c tele.Context) error {
		_ = c.Send("one")
		_ = c.Send("two", &tele.SendOptions{ReplyMarkup: &tele.ReplyMarkup{}})
		return nil
	})(c)
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	n, kb := GetCounters(c)
	if n != 2 || !kb {
		t.Fatalf("counters = %d %v", n, kb)
	}
}

func TestLoggerMiddlewareStoresContext(t *testing.T) {
	c := newContext(t, 3)
	called := false
	_ = LoggerMiddleware(func(tele.Context) error { called = true; return nil })(c)
	if !called {
		t.Fatal("next not called")
	}
	if c.Get("logger_ctx") == nil {
		t.Fatal("logging context not stored")
	}
}
