// Package state is the in-memory session table: one conversation state and a
// small scratch map per Telegram user, with a per-user lock so that a single
// event owns the session while it is processed.
package state
