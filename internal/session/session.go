// Package session tracks short-lived per-user conversation state: is the
// bot waiting for a wallet address, and which task is currently assigned.
// Nothing here is persisted; a restart resets every conversation.
package session

import "sync"

// Session is one user's conversational state. Callers must hold the
// session's lock while reading or writing fields, and keep it held for
// the whole of an inbound event so a user's events are serialized.
type Session struct {
	mu sync.Mutex

	// AwaitingWallet is set after the user taps the connect button and
	// cleared after the next text message, valid address or not.
	AwaitingWallet bool

	// ActiveTaskID is the task awaiting a submission, 0 when none.
	ActiveTaskID int64
}

func (s *Session) Lock()   { s.mu.Lock() }
func (s *Session) Unlock() { s.mu.Unlock() }

// Manager hands out sessions keyed by Telegram user ID.
type Manager struct {
	mu       sync.Mutex
	sessions map[int64]*Session
}

func NewManager() *Manager {
	return &Manager{sessions: make(map[int64]*Session)}
}

// Get returns the user's session, creating it on first use. Distinct
// users get distinct sessions and proceed concurrently.
func (m *Manager) Get(userID int64) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, exists := m.sessions[userID]
	if !exists {
		sess = &Session{}
		m.sessions[userID] = sess
	}
	return sess
}
