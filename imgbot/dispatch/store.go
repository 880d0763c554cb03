package dispatch

import "github.com/m3rciful/imgbot/core/telegram/state"

const firstImageKey = "concat.first_image"

// Store is the conversation state view used by handlers: a pending action per
// chat plus the first concat image path.
type Store struct {
	state.Manager
}

// NewStore wraps a session manager.
func NewStore(m state.Manager) Store {
	if m == nil {
		m = state.NewMemoryManager()
	}
	return Store{Manager: m}
}

// Pending returns the chat's pending action, PendingNone for unknown chats.
func (s Store) Pending(chatID int64) state.State {
	return s.GetState(chatID)
}

// SetPending stores the chat's pending action and marks the chat as tracked.
func (s Store) SetPending(chatID int64, p state.State) {
	s.SetState(chatID, p)
}

// FirstImage returns the stored first concat image path.
func (s Store) FirstImage(chatID int64) (string, bool) {
	path, ok := s.GetTempString(chatID, firstImageKey)
	return path, ok && path != ""
}

// SetFirstImage remembers the first concat image path.
func (s Store) SetFirstImage(chatID int64, path string) {
	s.SetTemp(chatID, firstImageKey, path)
}

// ClearFirstImage forgets the first concat image path.
func (s Store) ClearFirstImage(chatID int64) {
	s.ClearTemp(chatID, firstImageKey)
}
