package state

import (
	"sync"

	"github.com/m3rciful/numbot/core/logger"
	tghelpers "github.com/m3rciful/numbot/core/telegram/helpers"
	"log/slog"

	tele "gopkg.in/telebot.v4"
)

type memoryManager struct {
	mu            sync.RWMutex
	conversations map[int64]*Conversation
	handlers      map[State]tele.HandlerFunc
}

// NewMemoryManager constructs an in-memory Manager implementation.
func NewMemoryManager() Manager {
	return &memoryManager{
		conversations: make(map[int64]*Conversation),
		handlers:      make(map[State]tele.HandlerFunc),
	}
}

func (m *memoryManager) conversation(userID int64) *Conversation {
	conv, ok := m.conversations[userID]
	if !ok {
		conv = &Conversation{State: StateIdle, TempData: make(map[string]interface{})}
		m.conversations[userID] = conv
	}
	return conv
}

// SetState sets the FSM state for the given user.
func (m *memoryManager) SetState(userID int64, st State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.conversation(userID).State = st
}

// GetState returns the current FSM state of a user, or StateIdle if none exists.
func (m *memoryManager) GetState(userID int64) State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if conv, ok := m.conversations[userID]; ok {
		return conv.State
	}
	return StateIdle
}

// ClearState resets the FSM state to idle for a user without removing temp data.
func (m *memoryManager) ClearState(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if conv, ok := m.conversations[userID]; ok {
		conv.State = StateIdle
	}
}

// Clear removes the entire conversation for a user.
func (m *memoryManager) Clear(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.conversations, userID)
}

// SetTemp stores a temporary key/value pair for the given user conversation.
func (m *memoryManager) SetTemp(userID int64, key string, value interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.conversation(userID).TempData[key] = value
}

// GetTemp retrieves a temporary value by key for the given user conversation.
func (m *memoryManager) GetTemp(userID int64, key string) (interface{}, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	conv, ok := m.conversations[userID]
	if !ok {
		return nil, false
	}
	val, ok := conv.TempData[key]
	return val, ok
}

// ClearTemp removes a temporary key/value pair for the given user conversation.
func (m *memoryManager) ClearTemp(userID int64, key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if conv, ok := m.conversations[userID]; ok {
		delete(conv.TempData, key)
	}
}

// BindHandler associates a state with its handler.
func (m *memoryManager) BindHandler(st State, h tele.HandlerFunc) {
	if h == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[st] = h
}

// InProgress reports whether the user currently has an active FSM state.
func (m *memoryManager) InProgress(userID int64) bool {
	return m.GetState(userID) != StateIdle
}

// ManagerHandler executes the handler bound to the user's current state, if any.
func (m *memoryManager) ManagerHandler(c tele.Context) error {
	userID := c.Sender().ID
	current := m.GetState(userID)
	ctx := tghelpers.BuildContext(c)
	logger.Debug(ctx, "tg", "fsm.manager",
		slog.String("status", "ok"),
		slog.Int64("user_id", userID),
		slog.String("state", string(current)),
	)

	m.mu.RLock()
	handler, ok := m.handlers[current]
	m.mu.RUnlock()
	if ok {
		return handler(c)
	}
	return nil
}
