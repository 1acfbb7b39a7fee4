package state

import (
	"sync"

	"walletbot/core/logger"
	tghelpers "walletbot/core/telegram/helpers"

	"log/slog"

	tele "gopkg.in/telebot.v4"
)

type memoryManager struct {
	mu       sync.RWMutex
	sessions map[int64]Session

	lockMu sync.Mutex
	locks  map[int64]*sync.Mutex

	textHandler tele.HandlerFunc
}

// NewMemoryManager constructs an in-memory Manager implementation.
// Sessions are ephemeral: a process restart loses in-flight multi-step
// input.
func NewMemoryManager() Manager {
	return &memoryManager{
		sessions: make(map[int64]Session),
		locks:    make(map[int64]*sync.Mutex),
	}
}

// Get returns the session for a user, or a default idle session.
func (m *memoryManager) Get(userID int64) Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if session, ok := m.sessions[userID]; ok {
		return session
	}
	return Session{Mode: ModeIdle}
}

// Set replaces the session for a user.
func (m *memoryManager) Set(userID int64, s Session) {
	if s.Mode == "" {
		s.Mode = ModeIdle
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[userID] = s
}

// Clear removes the session for a user.
func (m *memoryManager) Clear(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
}

// InProgress reports whether the user currently has an active mode.
func (m *memoryManager) InProgress(userID int64) bool {
	return !m.Get(userID).Idle()
}

// Do runs fn under the user's exclusive lock.
func (m *memoryManager) Do(userID int64, fn func()) {
	m.lockMu.Lock()
	lock, ok := m.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[userID] = lock
	}
	m.lockMu.Unlock()

	lock.Lock()
	defer lock.Unlock()
	fn()
}

// SetTextHandler registers the free-text handler used by ManagerHandler.
func (m *memoryManager) SetTextHandler(h tele.HandlerFunc) {
	m.textHandler = h
}

// ManagerHandler executes the registered text handler under the user's lock.
func (m *memoryManager) ManagerHandler(c tele.Context) error {
	userID := c.Sender().ID
	current := m.Get(userID)
	ctx := tghelpers.BuildContext(c)
	logger.Debug(ctx, "tg", "fsm.manager",
		slog.String("status", "ok"),
		slog.Int64("user_id", userID),
		slog.String("state", string(current.Mode)),
	)

	if m.textHandler == nil {
		return nil
	}
	var err error
	m.Do(userID, func() {
		err = m.textHandler(c)
	})
	return err
}
