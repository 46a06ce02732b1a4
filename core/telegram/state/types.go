package state

import tele "gopkg.in/telebot.v4"

// State identifies a finite-state-machine step used in conversations.
type State string

const (
	// StateIdle indicates there is no active conversation with the user.
	StateIdle State = "idle"
)

// Conversation stores the dialog position and temporary data for a user.
type Conversation struct {
	State    State
	TempData map[string]interface{}
}

// Manager orchestrates per-user conversation state and FSM transitions.
// Handlers are bound per manager instance so tests can wire their own.
type Manager interface {
	SetState(userID int64, st State)
	GetState(userID int64) State
	ClearState(userID int64)
	Clear(userID int64)

	SetTemp(userID int64, key string, value interface{})
	GetTemp(userID int64, key string) (interface{}, bool)
	ClearTemp(userID int64, key string)

	// BindHandler associates a state with the handler executed by ManagerHandler.
	BindHandler(st State, h tele.HandlerFunc)

	InProgress(userID int64) bool
	ManagerHandler(c tele.Context) error
}
