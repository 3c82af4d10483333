package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/m3rciful/mydotainfo/core/logger"
	"github.com/m3rciful/mydotainfo/core/telegram/commands"
	"github.com/m3rciful/mydotainfo/core/telegram/ui"

	tele "gopkg.in/telebot.v4"
)

// Registry maps slash commands and callback keys to handlers. Registration
// happens during wiring; lookups are safe from any goroutine.
type Registry struct {
	mu        sync.RWMutex
	commands  map[string]commands.Command
	aliases   map[string]string // "/alias" -> "/command"
	callbacks map[string]tele.HandlerFunc

	onUnknownCommand  tele.HandlerFunc
	onUnknownCallback tele.HandlerFunc
}

// NewRegistry returns an empty registry whose unknown callback fallback
// shows a short toast.
func NewRegistry() *Registry {
	return &Registry{
		commands:  map[string]commands.Command{},
		aliases:   map[string]string{},
		callbacks: map[string]tele.HandlerFunc{},
		onUnknownCallback: func(c tele.Context) error {
			_ = c.Respond(&tele.CallbackResponse{Text: "Unsupported action"})
			return nil
		},
	}
}

func slash(name string) string {
	if strings.HasPrefix(name, "/") {
		return name
	}
	return "/" + name
}

func wireWarn(event string, attrs ...slog.Attr) {
	logger.LogEvent(context.Background(), logger.TWire, slog.LevelWarn, event, attrs...)
}

// RegisterCommand adds cmd under name, which must start with "/". Commands
// without a handler or description are rejected, as are names or aliases
// already taken.
func (r *Registry) RegisterCommand(name string, cmd commands.Command) error {
	switch {
	case cmd.Handler == nil || cmd.Description == "":
		wireWarn("register.command.skip", slog.String("name", name), slog.String("cause", "invalid"))
		return fmt.Errorf("telegram: command %q needs a handler and a description", name)
	case !strings.HasPrefix(name, "/"):
		wireWarn("register.command.skip", slog.String("name", name), slog.String("cause", "no_slash_prefix"))
		return fmt.Errorf("telegram: command %q must start with /", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.taken(name) {
		wireWarn("register.command.duplicate", slog.String("name", name))
		return fmt.Errorf("telegram: command %s already registered", name)
	}
	for _, a := range cmd.Aliases {
		if r.taken(slash(a)) {
			wireWarn("register.command.duplicate", slog.String("name", slash(a)))
			return fmt.Errorf("telegram: alias %s already registered", slash(a))
		}
	}
	r.commands[name] = cmd
	for _, a := range cmd.Aliases {
		r.aliases[slash(a)] = name
	}
	return nil
}

func (r *Registry) taken(name string) bool {
	_, cmd := r.commands[name]
	_, alias := r.aliases[name]
	return cmd || alias
}

// ListCommands returns the commands sorted by name. visibleOnly drops hidden
// and admin-only ones, which is what the Telegram command menu shows.
func (r *Registry) ListCommands(visibleOnly bool) []tele.Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make([]tele.Command, 0, len(r.commands))
	for name, cmd := range r.commands {
		if visibleOnly && (cmd.Hidden || cmd.AdminOnly) {
			continue
		}
		list = append(list, tele.Command{Text: name, Description: cmd.Description})
	}
	slices.SortFunc(list, func(a, b tele.Command) int { return strings.Compare(a.Text, b.Text) })
	return list
}

// LookupCommand resolves name or an alias, with or without the slash, to the
// registered command and its canonical name.
func (r *Registry) LookupCommand(name string) (string, commands.Command, bool) {
	name = slash(name)
	r.mu.RLock()
	defer r.mu.RUnlock()
	if canonical, ok := r.aliases[name]; ok {
		name = canonical
	}
	cmd, ok := r.commands[name]
	if !ok {
		return "", commands.Command{}, false
	}
	return name, cmd, true
}

// Commands returns a copy of the registered commands keyed by name.
func (r *Registry) Commands() map[string]commands.Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]commands.Command, len(r.commands))
	for k, v := range r.commands {
		out[k] = v
	}
	return out
}

// RegisterCallback binds handler to the callback key.
func (r *Registry) RegisterCallback(key string, handler tele.HandlerFunc) error {
	if key == "" || handler == nil {
		wireWarn("register.callback.skip", slog.String("cb_key", key), slog.Bool("handler_nil", handler == nil))
		return fmt.Errorf("telegram: invalid callback registration %q", key)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.callbacks[key]; dup {
		wireWarn("register.callback.duplicate", slog.String("cb_key", key))
		return fmt.Errorf("telegram: callback %s already registered", key)
	}
	r.callbacks[key] = handler
	return nil
}

// GetCallback returns the handler bound to key.
func (r *Registry) GetCallback(key string) (tele.HandlerFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.callbacks[key]
	return h, ok
}

// ListCallbacks returns the registered keys sorted.
func (r *Registry) ListCallbacks() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.callbacks))
	for k := range r.callbacks {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// SetCallbackNotFound replaces the unknown callback fallback. nil keeps the current one.
func (r *Registry) SetCallbackNotFound(h tele.HandlerFunc) {
	if h != nil {
		r.onUnknownCallback = h
	}
}

// CallbackNotFound returns the unknown callback fallback.
func (r *Registry) CallbackNotFound() tele.HandlerFunc { return r.onUnknownCallback }

// SetCommandNotFound sets the handler for slash commands nobody registered.
func (r *Registry) SetCommandNotFound(h tele.HandlerFunc) { r.onUnknownCommand = h }

// CommandNotFound returns the unknown command handler, possibly nil.
func (r *Registry) CommandNotFound() tele.HandlerFunc { return r.onUnknownCommand }

// ApplyFallbacks installs both fallbacks of p.
func (r *Registry) ApplyFallbacks(p ui.FallbackProvider) {
	if p == nil {
		return
	}
	r.SetCommandNotFound(p.UnknownCommand())
	r.SetCallbackNotFound(p.UnknownCallback())
}

// InitBotCommands publishes the visible commands to the Telegram command menu.
func InitBotCommands(bot *tele.Bot, reg *Registry) {
	if bot == nil || reg == nil {
		return
	}
	if err := bot.SetCommands(reg.ListCommands(true)); err != nil {
		logger.LogEvent(context.Background(), logger.TWire, slog.LevelError, "register.commands.set_failed",
			slog.Any("err", err),
		)
	}
}
