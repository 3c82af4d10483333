package state

// State names a dialogue step.
type State string

// StateIdle is the initial state of a manager built without one.
const StateIdle State = "idle"

// Session is one user's conversation: the current step plus scratch values
// such as the resolved account id.
type Session struct {
	State    State
	TempData map[string]any
}

// Manager is the session table.
type Manager interface {
	// Lock serializes events of one user; the returned func releases it.
	Lock(userID int64) (unlock func())

	// Get returns a copy of the session, or a fresh one in the initial state.
	Get(userID int64) Session
	GetState(userID int64) State
	SetState(userID int64, st State)
	SetTemp(userID int64, key string, value any)
	GetTempInt64(userID int64, key string) (int64, bool)
	// Clear forgets the session; the user is back in the initial state.
	Clear(userID int64)

	// Count returns the number of users with a live session.
	Count() int
}
