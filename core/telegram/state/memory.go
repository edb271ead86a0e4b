package state

import "sync"

// Manager holds sessions in process memory. Nothing expires; a session lives
// until it is cleared or the process restarts.
type Manager[T any] struct {
	mu       sync.RWMutex
	sessions map[int64]*Session[T]
}

// NewManager returns an empty in-memory manager.
func NewManager[T any]() *Manager[T] {
	return &Manager[T]{sessions: make(map[int64]*Session[T])}
}

func (m *Manager[T]) session(userID int64) *Session[T] {
	s, ok := m.sessions[userID]
	if !ok {
		s = newSession[T]()
		m.sessions[userID] = s
	}
	return s
}

// Get returns a copy of the user's session. The bool is false when no state is active.
func (m *Manager[T]) Get(userID int64) (Session[T], bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[userID]
	if !ok {
		return Session[T]{}, false
	}
	cp := Session[T]{State: s.State, Active: s.Active, TempData: make(map[string]any, len(s.TempData))}
	for k, v := range s.TempData {
		cp.TempData[k] = v
	}
	return cp, s.Active
}

// GetState returns the active state of the user.
func (m *Manager[T]) GetState(userID int64) (T, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.sessions[userID]; ok && s.Active {
		return s.State, true
	}
	var zero T
	return zero, false
}

// StateName reports the name of the user's state, Idle when there is none.
func (m *Manager[T]) StateName(userID int64) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return NameOf(m.sessions[userID])
}

// Set replaces the user's state and marks it active.
func (m *Manager[T]) Set(userID int64, st T) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.session(userID)
	s.State = st
	s.Active = true
}

// ClearState drops the state but keeps temporary values.
func (m *Manager[T]) ClearState(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[userID]
	if !ok {
		return
	}
	var zero T
	s.State = zero
	s.Active = false
	if len(s.TempData) == 0 {
		delete(m.sessions, userID)
	}
}

// Clear removes the whole session of a user.
func (m *Manager[T]) Clear(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
}

// InProgress reports whether the user has an active state.
func (m *Manager[T]) InProgress(userID int64) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[userID]
	return ok && s.Active
}

// SetTemp stores a temporary value for the user.
func (m *Manager[T]) SetTemp(userID int64, key string, value any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session(userID).TempData[key] = value
}

// GetTemp retrieves a temporary value.
func (m *Manager[T]) GetTemp(userID int64, key string) (any, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[userID]
	if !ok {
		return nil, false
	}
	v, ok := s.TempData[key]
	return v, ok
}

// GetTempString retrieves a temporary value and asserts it as a string.
func (m *Manager[T]) GetTempString(userID int64, key string) (string, bool) {
	v, ok := m.GetTemp(userID, key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// ClearTemp removes one temporary value.
func (m *Manager[T]) ClearTemp(userID int64, key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[userID]
	if !ok {
		return
	}
	delete(s.TempData, key)
	if !s.Active && len(s.TempData) == 0 {
		delete(m.sessions, userID)
	}
}
