package state

import "sync"

type memoryManager struct {
	mu       sync.RWMutex
	sessions map[int64]*Session

	locksMu sync.Mutex
	locks   map[int64]*sync.Mutex
}

// NewMemoryManager constructs an in-memory Manager. Sessions are lost on restart.
func NewMemoryManager() Manager {
	return &memoryManager{
		sessions: make(map[int64]*Session),
		locks:    make(map[int64]*sync.Mutex),
	}
}

// Tracked reports whether the chat has a session.
func (m *memoryManager) Tracked(chatID int64) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.sessions[chatID]
	return ok
}

// session returns the stored session, creating it on demand. Callers hold m.mu.
func (m *memoryManager) session(chatID int64) *Session {
	sess, ok := m.sessions[chatID]
	if !ok {
		sess = &Session{State: StateIdle, TempData: make(map[string]any)}
		m.sessions[chatID] = sess
	}
	return sess
}

// SetState sets the FSM state for the given chat.
func (m *memoryManager) SetState(chatID int64, st State) {
	if st == "" {
		st = StateIdle
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session(chatID).State = st
}

// GetState returns the current FSM state of a chat, or StateIdle if none exists.
func (m *memoryManager) GetState(chatID int64) State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if sess, ok := m.sessions[chatID]; ok {
		return sess.State
	}
	return StateIdle
}

// SetTemp stores a temporary key/value pair for the given chat session.
func (m *memoryManager) SetTemp(chatID int64, key string, value any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session(chatID).TempData[key] = value
}

// GetTemp retrieves a temporary value by key for the given chat session.
func (m *memoryManager) GetTemp(chatID int64, key string) (any, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, ok := m.sessions[chatID]
	if !ok {
		return nil, false
	}
	val, ok := session.TempData[key]
	return val, ok
}

// GetTempString retrieves a temporary value by key and asserts it as string.
func (m *memoryManager) GetTempString(chatID int64, key string) (string, bool) {
	val, found := m.GetTemp(chatID, key)
	if !found {
		return "", false
	}
	s, ok := val.(string)
	return s, ok
}

// ClearTemp removes a temporary key/value pair for the given chat session.
func (m *memoryManager) ClearTemp(chatID int64, key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if session, ok := m.sessions[chatID]; ok {
		delete(session.TempData, key)
	}
}

// Lock acquires the chat's mutex and returns the matching unlock func.
func (m *memoryManager) Lock(chatID int64) func() {
	m.locksMu.Lock()
	mu, ok := m.locks[chatID]
	if !ok {
		mu = &sync.Mutex{}
		m.locks[chatID] = mu
	}
	m.locksMu.Unlock()

	mu.Lock()
	return mu.Unlock
}
