// Package dialogue is the conversation state machine. Every (state, input
// category) pair the bot accepts is one entry of an explicit transition
// table; anything else gets a notice and leaves the state untouched.
package dialogue

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/m3rciful/mydotainfo/core/logger"
	"github.com/m3rciful/mydotainfo/core/metrics"
	"github.com/m3rciful/mydotainfo/core/telegram/format"
	"github.com/m3rciful/mydotainfo/core/telegram/state"
	"github.com/m3rciful/mydotainfo/internal/apperr"
	"github.com/m3rciful/mydotainfo/internal/dota"
)

// Dialogue states.
const (
	StateMenu               state.State = "menu"
	StateAwaitingHandle     state.State = "awaiting_handle"
	StatePlayerMenu         state.State = "player_menu"
	StateAwaitingLineCount  state.State = "awaiting_line_count"
	StateAwaitingMatchCount state.State = "awaiting_match_count"
)

// accountKey holds the resolved account id in the session scratch map. It is
// set exactly while the session is in one of accountStates.
const accountKey = "account_id"

var accountStates = map[state.State]bool{
	StatePlayerMenu:         true,
	StateAwaitingLineCount:  true,
	StateAwaitingMatchCount: true,
}

// Keyboard names the quick-reply set shown with a reply.
type Keyboard int

const (
	KeyboardNone Keyboard = iota
	KeyboardMenu
	KeyboardPlayer
	KeyboardMatchCount
)

// KeyboardFor returns the keyboard that belongs to st.
func KeyboardFor(st state.State) Keyboard {
	switch st {
	case StateMenu:
		return KeyboardMenu
	case StatePlayerMenu:
		return KeyboardPlayer
	case StateAwaitingMatchCount:
		return KeyboardMatchCount
	}
	return KeyboardNone
}

// Reply is what the transport sends back for one event.
type Reply struct {
	// Messages are already chunked to the message limit and must be sent in order.
	Messages []string
	// State is the session state after the event.
	State    state.State
	Keyboard Keyboard
	// Err is the error that was turned into a notice, nil on success.
	Err error
}

// Resolver maps profile handles to account ids.
type Resolver interface {
	Resolve(ctx context.Context, handle string) (dota.AccountID, error)
}

// Reports renders the five reports.
type Reports interface {
	ProfileSummary(ctx context.Context, id dota.AccountID) (string, error)
	RecentMatches(ctx context.Context, id dota.AccountID, n int) (string, error)
	WordFrequency(ctx context.Context, id dota.AccountID, n int) (string, error)
	HeroWinRates(ctx context.Context, id dota.AccountID) (string, error)
	ProMatchHistory(ctx context.Context, id dota.AccountID) (string, error)
}

// Options tunes the machine.
type Options struct {
	// MessageLimit is the chunk size in characters; <= 0 selects Telegram's limit.
	MessageLimit int
	// MaxMatches is quoted in prompts; <= 0 selects 20.
	MaxMatches int
}

// turn carries one event through an action.
type turn struct {
	userID  int64
	from    state.State
	n       int
	text    string
	account dota.AccountID
}

type action func(ctx context.Context, t *turn) (texts []string, next state.State, err error)

type key struct {
	st  state.State
	cat category
}

// Machine drives every conversation.
type Machine struct {
	sessions   state.Manager
	resolver   Resolver
	reports    Reports
	limit      int
	maxMatches int

	table   map[key]action
	globals map[category]action
}

// New builds a Machine over the session table.
func New(sessions state.Manager, resolver Resolver, reports Reports, opts Options) *Machine {
	if opts.MessageLimit <= 0 {
		opts.MessageLimit = format.MessageLimit
	}
	if opts.MaxMatches <= 0 {
		opts.MaxMatches = 20
	}
	m := &Machine{
		sessions:   sessions,
		resolver:   resolver,
		reports:    reports,
		limit:      opts.MessageLimit,
		maxMatches: opts.MaxMatches,
	}
	m.table = map[key]action{
		{StateMenu, catBegin}:                 m.promptHandle,
		{StateAwaitingHandle, catText}:        m.resolveHandle,
		{StateAwaitingHandle, catInteger}:     m.resolveHandle,
		{StatePlayerMenu, catRecent}:          m.promptMatches,
		{StatePlayerMenu, catWords}:           m.promptLines,
		{StatePlayerMenu, catHeroes}:          m.heroes,
		{StatePlayerMenu, catMore}:            m.pros,
		{StateAwaitingMatchCount, catInteger}: m.recent,
		{StateAwaitingMatchCount, catText}:    m.notInteger,
		{StateAwaitingLineCount, catInteger}:  m.words,
		{StateAwaitingLineCount, catText}:     m.notInteger,
	}
	// Accepted in every state.
	m.globals = map[category]action{
		catBack:  m.reset,
		catStart: m.reset,
		catInfo:  m.info,
	}
	return m
}

// State returns the user's current state.
func (m *Machine) State(userID int64) state.State {
	return m.sessions.GetState(userID)
}

// Sessions returns the number of live sessions.
func (m *Machine) Sessions() int {
	return m.sessions.Count()
}

// Handle processes one event for userID. It owns the user's session for the
// whole call, provider requests included, and never returns an error: failures
// become notices and leave the state unchanged.
func (m *Machine) Handle(ctx context.Context, userID int64, in Input) Reply {
	unlock := m.sessions.Lock(userID)
	defer unlock()

	start := time.Now()
	cat, n := categorize(in)
	t := &turn{userID: userID, from: m.sessions.GetState(userID), n: n, text: in.Text}

	act := m.lookup(t.from, cat)
	if accountStates[t.from] && cat != catBack && cat != catStart {
		id, ok := m.sessions.GetTempInt64(userID, accountKey)
		if !ok {
			// A session past handle entry without an account cannot serve reports.
			logger.FSM.LogAttrs(ctx, slog.LevelWarn, "session without account",
				slog.String("event", "dialogue.invariant"),
				slog.String("state", string(t.from)),
			)
			act = m.reset
		}
		t.account = dota.AccountID(id)
	}

	texts, next, err := act(ctx, t)
	if err != nil {
		texts, next = []string{m.errorText(t.from, err)}, t.from
	}
	if next != m.sessions.GetState(userID) {
		m.sessions.SetState(userID, next)
	}

	reply := Reply{State: next, Keyboard: KeyboardFor(next), Err: err}
	for _, text := range texts {
		reply.Messages = append(reply.Messages, format.Chunk(text, m.limit)...)
	}
	m.observe(ctx, t, cat, reply, time.Since(start))
	return reply
}

func (m *Machine) lookup(st state.State, cat category) action {
	if act, ok := m.globals[cat]; ok {
		return act
	}
	if act, ok := m.table[key{st, cat}]; ok {
		return act
	}
	if cat == catInteger {
		if act, ok := m.table[key{st, catText}]; ok {
			return act
		}
	}
	if cat == catInteger || cat == catText {
		return rejectWith(apperr.ErrUnrecognizedText)
	}
	return rejectWith(apperr.ErrUnrecognizedCommand)
}

func rejectWith(err error) action {
	return func(context.Context, *turn) ([]string, state.State, error) {
		return nil, "", err
	}
}

func (m *Machine) reset(_ context.Context, t *turn) ([]string, state.State, error) {
	m.sessions.Clear(t.userID)
	return []string{msgWelcome}, StateMenu, nil
}

func (m *Machine) info(_ context.Context, t *turn) ([]string, state.State, error) {
	return []string{msgInfo}, t.from, nil
}

func (m *Machine) promptHandle(context.Context, *turn) ([]string, state.State, error) {
	return []string{msgPromptHandle}, StateAwaitingHandle, nil
}

func (m *Machine) resolveHandle(ctx context.Context, t *turn) ([]string, state.State, error) {
	id, err := m.resolver.Resolve(ctx, t.text)
	if err != nil {
		return nil, "", err
	}
	summary, err := m.reports.ProfileSummary(ctx, id)
	if err != nil {
		return nil, "", err
	}
	m.sessions.SetTemp(t.userID, accountKey, int64(id))
	return []string{summary}, StatePlayerMenu, nil
}

func (m *Machine) promptMatches(context.Context, *turn) ([]string, state.State, error) {
	return []string{msgPromptMatches(m.maxMatches)}, StateAwaitingMatchCount, nil
}

func (m *Machine) promptLines(context.Context, *turn) ([]string, state.State, error) {
	return []string{msgPromptLines}, StateAwaitingLineCount, nil
}

func (m *Machine) notInteger(context.Context, *turn) ([]string, state.State, error) {
	return nil, "", apperr.ErrInvalidInput
}

func (m *Machine) recent(ctx context.Context, t *turn) ([]string, state.State, error) {
	return single(m.reports.RecentMatches(ctx, t.account, t.n))
}

func (m *Machine) words(ctx context.Context, t *turn) ([]string, state.State, error) {
	return single(m.reports.WordFrequency(ctx, t.account, t.n))
}

func (m *Machine) heroes(ctx context.Context, t *turn) ([]string, state.State, error) {
	return single(m.reports.HeroWinRates(ctx, t.account))
}

func (m *Machine) pros(ctx context.Context, t *turn) ([]string, state.State, error) {
	return single(m.reports.ProMatchHistory(ctx, t.account))
}

// single wraps a report result; every report lands back on the player menu.
func single(text string, err error) ([]string, state.State, error) {
	if err != nil {
		return nil, "", err
	}
	return []string{text}, StatePlayerMenu, nil
}

func (m *Machine) errorText(from state.State, err error) string {
	switch {
	case errors.Is(err, apperr.ErrInvalidHandle):
		return msgBadHandle
	case errors.Is(err, apperr.ErrNoMatchData):
		return msgNoMatchData
	case errors.Is(err, apperr.ErrInvalidInput):
		if from == StateAwaitingMatchCount {
			return msgMatchesInteger(m.maxMatches)
		}
		return msgLinesInteger
	case errors.Is(err, apperr.ErrUnrecognizedCommand):
		return msgBadCommand
	case errors.Is(err, apperr.ErrUnrecognizedText):
		return msgBadText
	}
	return msgUpstream
}

func (m *Machine) observe(ctx context.Context, t *turn, cat category, r Reply, took time.Duration) {
	outcome, level := "ok", slog.LevelInfo
	switch {
	case r.Err == nil:
	case errors.Is(r.Err, apperr.ErrUpstreamUnavailable):
		outcome, level = "fail", slog.LevelWarn
		var ue *apperr.UpstreamError
		if errors.As(r.Err, &ue) && ue.Misconfigured() {
			level = slog.LevelError
		}
	case errors.Is(r.Err, apperr.ErrInvalidHandle), errors.Is(r.Err, apperr.ErrNoMatchData),
		errors.Is(r.Err, apperr.ErrInvalidInput), errors.Is(r.Err, apperr.ErrUnrecognizedCommand),
		errors.Is(r.Err, apperr.ErrUnrecognizedText):
		outcome = "rejected"
	default:
		outcome, level = "fail", slog.LevelError
	}

	metrics.TransitionsTotal.WithLabelValues(string(t.from), string(cat), string(r.State)).Inc()
	metrics.ActiveSessions.Set(float64(m.sessions.Count()))

	attrs := []slog.Attr{
		slog.String("event", "dialogue.transition"),
		slog.String("state", string(t.from)),
		slog.String("input", string(cat)),
		slog.String("next_state", string(r.State)),
		slog.String("outcome", outcome),
		slog.Int("chunks", len(r.Messages)),
		slog.Duration("duration", took),
	}
	if t.account != 0 {
		attrs = append(attrs, slog.String("account_id", t.account.String()))
	}
	if r.Err != nil {
		attrs = append(attrs, slog.String("err", r.Err.Error()))
	}
	logger.FSM.LogAttrs(ctx, level, "transition", attrs...)
}
