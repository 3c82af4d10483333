package telegram

import (
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	coreconfig "github.com/m3rciful/mydotainfo/core/config"
	"github.com/m3rciful/mydotainfo/core/telegram/commands"

	tele "gopkg.in/telebot.v4"
)

func noop(tele.Context) error { return nil }

func TestRegistryCommands(t *testing.T) {
	reg := NewRegistry()
	if err := reg.RegisterCommand("/start", commands.Command{Handler: noop, Description: "Main menu", Aliases: []string{"menu"}}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := reg.RegisterCommand("/status", commands.Command{Handler: noop, Description: "Status", AdminOnly: true, Hidden: true}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := reg.RegisterCommand("about", commands.Command{Handler: noop, Description: "About"}); err == nil {
		t.Fatal("expected error for missing slash")
	}
	if err := reg.RegisterCommand("/back", commands.Command{Handler: noop}); err == nil {
		t.Fatal("expected error for missing description")
	}
	if err := reg.RegisterCommand("/menu", commands.Command{Handler: noop, Description: "Clash"}); err == nil {
		t.Fatal("expected error for a name taken by an alias")
	}

	if len(reg.Commands()) != 2 {
		t.Fatalf("commands = %d, want 2", len(reg.Commands()))
	}
	visible := reg.ListCommands(true)
	if len(visible) != 1 || visible[0].Text != "/start" {
		t.Fatalf("visible = %+v", visible)
	}
	if all := reg.ListCommands(false); len(all) != 2 {
		t.Fatalf("all = %+v", all)
	}

	key, _, ok := reg.LookupCommand("/menu")
	if !ok || key != "/start" {
		t.Fatalf("alias lookup = %q %v", key, ok)
	}
	if _, _, ok := reg.LookupCommand("start"); !ok {
		t.Fatal("lookup without slash failed")
	}
	if _, _, ok := reg.LookupCommand("/nope"); ok {
		t.Fatal("unexpected match for /nope")
	}
}

func TestRegistryCallbacks(t *testing.T) {
	reg := NewRegistry()
	if err := reg.RegisterCallback("recent", noop); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := reg.RegisterCallback("recent", noop); err == nil {
		t.Fatal("expected duplicate error")
	}
	if err := reg.RegisterCallback("", noop); err == nil {
		t.Fatal("expected error for empty key")
	}
	if _, ok := reg.GetCallback("recent"); !ok {
		t.Fatal("callback not found")
	}
	if got := reg.ListCallbacks(); len(got) != 1 || got[0] != "recent" {
		t.Fatalf("callbacks = %v", got)
	}
	if reg.CallbackNotFound() == nil {
		t.Fatal("default callback fallback missing")
	}
}

type fallbacks struct{ cmd, cb, media tele.HandlerFunc }

func (f fallbacks) UnknownCommand() tele.HandlerFunc  { return f.cmd }
func (f fallbacks) UnknownCallback() tele.HandlerFunc { return f.cb }
func (f fallbacks) UnexpectedMedia() tele.HandlerFunc { return f.media }

func TestApplyFallbacks(t *testing.T) {
	reg := NewRegistry()
	if reg.CommandNotFound() != nil {
		t.Fatal("command fallback should start empty")
	}
	reg.ApplyFallbacks(fallbacks{cmd: noop, cb: noop, media: noop})
	if reg.CommandNotFound() == nil {
		t.Fatal("command fallback not applied")
	}
}

func TestBuildPoller(t *testing.T) {
	wh, ok := BuildPoller(&coreconfig.Config{
		Telegram: coreconfig.TelegramConfig{RunMode: coreconfig.RunModeWebhook},
		Webhook:  coreconfig.WebhookConfig{Listen: "0.0.0.0", Port: 8443, URL: "https://example.org/hook"},
	}).(*tele.Webhook)
	if !ok {
		t.Fatal("expected webhook poller")
	}
	if wh.Listen != "0.0.0.0:8443" || wh.Endpoint.PublicURL != "https://example.org/hook" {
		t.Fatalf("webhook = %+v", wh)
	}

	lp, ok := BuildPoller(&coreconfig.Config{}).(*tele.LongPoller)
	if !ok {
		t.Fatal("expected long poller")
	}
	if lp.Timeout != defaultPollTimeoutSeconds*time.Second {
		t.Fatalf("timeout = %v", lp.Timeout)
	}

	lp = BuildPoller(&coreconfig.Config{Telegram: coreconfig.TelegramConfig{LongPollTimeoutSeconds: 25}}).(*tele.LongPoller)
	if lp.Timeout != 25*time.Second {
		t.Fatalf("timeout = %v", lp.Timeout)
	}
}

func TestTelegramMethodHidesToken(t *testing.T) {
	req, _ := http.NewRequest(http.MethodPost, "https://api.telegram.org/bot123:secret/sendMessage", nil)
	if got := telegramMethod(req); got != "sendMessage" {
		t.Fatalf("method = %q", got)
	}
}

type flakyTransport struct {
	calls int
	fails int
}

func (f *flakyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	f.calls++
	if f.calls <= f.fails {
		return nil, &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}
	}
	return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(strings.NewReader("{}")), Request: req}, nil
}

func TestRetryTransport(t *testing.T) {
	base := &flakyTransport{fails: 1}
	rt := &retryTransport{base: base, attempts: 2}
	req, _ := http.NewRequest(http.MethodPost, "https://api.telegram.org/botX/getMe", strings.NewReader("a=b"))
	resp, err := rt.RoundTrip(req)
	if err != nil {
		t.Fatalf("round trip: %v", err)
	}
	resp.Body.Close()
	if base.calls != 2 {
		t.Fatalf("calls = %d, want 2", base.calls)
	}
}

func TestRetryTransportGivesUpOnPermanentErrors(t *testing.T) {
	perm := errors.New("bad request")
	rt := &retryTransport{base: roundTripFunc(func(*http.Request) (*http.Response, error) { return nil, perm }), attempts: 3}
	req, _ := http.NewRequest(http.MethodGet, "https://api.telegram.org/botX/getMe", nil)
	if _, err := rt.RoundTrip(req); !errors.Is(err, perm) {
		t.Fatalf("err = %v, want %v", err, perm)
	}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }
