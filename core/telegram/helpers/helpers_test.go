package helpers

import (
	"errors"
	"testing"

	"github.com/m3rciful/mydotainfo/core/logger"

	tele "gopkg.in/telebot.v4"
)

type recorder struct {
	tele.Context
	sent   []string
	markup []*tele.ReplyMarkup
	failAt int
}

func (r *recorder) Send(what any, opts ...any) error {
	if r.failAt > 0 && len(r.sent)+1 == r.failAt {
		r.failAt = 0
		return errors.New("telegram: Internal Server Error (500)")
	}
	r.sent = append(r.sent, what.(string))
	var kb *tele.ReplyMarkup
	if len(opts) > 0 {
		if so, ok := opts[0].(*tele.SendOptions); ok {
			kb = so.ReplyMarkup
		}
	}
	r.markup = append(r.markup, kb)
	return nil
}

func newRecorder(t *testing.T) *recorder {
	t.Helper()
	b, err := tele.NewBot(tele.Settings{Token: "test", Offline: true})
	if err != nil {
		t.Fatalf("bot: %v", err)
	}
	upd := tele.Update{ID: 11, Message: &tele.Message{
		Sender: &tele.User{ID: 7},
		Chat:   &tele.Chat{ID: 9},
		Text:   "hi",
	}}
	return &recorder{Context: b.NewContext(upd)}
}

func TestBuildContextCaches(t *testing.T) {
	c := newRecorder(t)
	ctx := BuildContext(c)
	if logger.UpdateIDFrom(ctx) != 11 || logger.UserIDFrom(ctx) != 7 || logger.ChatIDFrom(ctx) != 9 {
		t.Fatalf("meta = %d/%d/%d", logger.UpdateIDFrom(ctx), logger.UserIDFrom(ctx), logger.ChatIDFrom(ctx))
	}
	if logger.RIDFrom(ctx) != "11:9:7" {
		t.Fatalf("rid = %q", logger.RIDFrom(ctx))
	}
	if again := BuildContext(c); again != ctx {
		t.Fatal("context not cached")
	}
	if h := logger.HandlerFrom(WithHandler(c, "words")); h != "words" {
		t.Fatalf("handler = %q", h)
	}
}

func TestOutcome(t *testing.T) {
	c := newRecorder(t)
	if _, ok := OutcomeFrom(c); ok {
		t.Fatal("unexpected outcome")
	}
	cause := errors.New("not found")
	SetOutcome(c, "rejected", cause)
	o, ok := OutcomeFrom(c)
	if !ok || o.Name != "rejected" || !errors.Is(o.Err, cause) {
		t.Fatalf("outcome = %+v", o)
	}
}

func TestSendChunksStopsAtFailure(t *testing.T) {
	SetDispatcher(nil)
	c := newRecorder(t)
	c.failAt = 2
	kb := &tele.ReplyMarkup{}
	texts := []string{"a", "b", "c"}

	if err := SendChunks(c, texts, kb); err == nil {
		t.Fatal("expected the injected failure")
	}
	if len(c.sent) != 1 {
		t.Fatalf("sent = %v", c.sent)
	}
	if err := SendChunks(c, texts[1:], kb); err != nil {
		t.Fatalf("resend: %v", err)
	}
	if len(c.sent) != 3 || c.markup[0] != nil || c.markup[1] != nil || c.markup[2] != kb {
		t.Fatalf("sent = %v markup = %v", c.sent, c.markup)
	}
}
