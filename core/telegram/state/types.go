package state

// State identifies a finite-state-machine step used in conversations.
type State string

const (
	// StateIdle indicates the bot expects nothing in particular from the chat.
	StateIdle State = "idle"
)

// Session stores conversation state and temporary data for a chat.
type Session struct {
	State    State
	TempData map[string]any
}

// Manager orchestrates chat sessions and FSM state transitions.
//
// Lock serializes read-modify-write sequences for one chat; other chats are not blocked.
// The remaining methods are individually safe for concurrent use.
type Manager interface {
	// Tracked reports whether any session was ever written for the chat.
	Tracked(chatID int64) bool

	SetState(chatID int64, st State)
	GetState(chatID int64) State

	SetTemp(chatID int64, key string, value any)
	GetTemp(chatID int64, key string) (any, bool)
	GetTempString(chatID int64, key string) (string, bool)
	ClearTemp(chatID int64, key string)

	Lock(chatID int64) (unlock func())
}
