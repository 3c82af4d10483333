package state

import (
	"maps"
	"sync"
)

// slot owns one user's lock. The session pointer and refs are guarded by
// the table lock, the slot lock only orders events of that user. refs counts
// Lock callers that have not released yet; a slot with no refs and no
// session is removed from the table.
type slot struct {
	mu      sync.Mutex
	refs    int
	session *Session
}

type memoryManager struct {
	initial State

	mu    sync.RWMutex
	slots map[int64]*slot
}

// NewMemoryManager returns an in-memory Manager. Users without a session
// report initial; an empty initial means StateIdle.
func NewMemoryManager(initial State) Manager {
	if initial == "" {
		initial = StateIdle
	}
	return &memoryManager{initial: initial, slots: make(map[int64]*slot)}
}

// lookup returns the live session or nil. Callers hold m.mu.
func (m *memoryManager) lookup(userID int64) *Session {
	if s, ok := m.slots[userID]; ok {
		return s.session
	}
	return nil
}

// ensure returns the session, creating slot and session as needed. Callers hold m.mu for writing.
func (m *memoryManager) ensure(userID int64) *Session {
	s, ok := m.slots[userID]
	if !ok {
		s = &slot{}
		m.slots[userID] = s
	}
	if s.session == nil {
		s.session = &Session{State: m.initial, TempData: map[string]any{}}
	}
	return s.session
}

// drop removes an idle slot. Callers hold m.mu for writing.
func (m *memoryManager) drop(userID int64, s *slot) {
	if s.refs == 0 && s.session == nil && m.slots[userID] == s {
		delete(m.slots, userID)
	}
}

func (m *memoryManager) Lock(userID int64) func() {
	m.mu.Lock()
	s, ok := m.slots[userID]
	if !ok {
		s = &slot{}
		m.slots[userID] = s
	}
	s.refs++
	m.mu.Unlock()

	s.mu.Lock()
	return func() {
		s.mu.Unlock()
		m.mu.Lock()
		s.refs--
		m.drop(userID, s)
		m.mu.Unlock()
	}
}

func (m *memoryManager) Get(userID int64) Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s := m.lookup(userID); s != nil {
		return Session{State: s.State, TempData: maps.Clone(s.TempData)}
	}
	return Session{State: m.initial, TempData: map[string]any{}}
}

func (m *memoryManager) GetState(userID int64) State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s := m.lookup(userID); s != nil {
		return s.State
	}
	return m.initial
}

func (m *memoryManager) SetState(userID int64, st State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensure(userID).State = st
}

func (m *memoryManager) SetTemp(userID int64, key string, value any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensure(userID).TempData[key] = value
}

// GetTempInt64 returns the value under key when it holds an int64.
func (m *memoryManager) GetTempInt64(userID int64, key string) (int64, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := m.lookup(userID)
	if s == nil {
		return 0, false
	}
	v, ok := s.TempData[key].(int64)
	return v, ok
}

// Clear drops the session. The slot stays while a Lock holder or waiter
// still references it.
func (m *memoryManager) Clear(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.slots[userID]; ok {
		s.session = nil
		m.drop(userID, s)
	}
}

func (m *memoryManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, s := range m.slots {
		if s.session != nil {
			n++
		}
	}
	return n
}
