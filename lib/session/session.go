// Package session tracks where each user is in the add-transaction dialog.
package session

import (
	"sync"
	"time"

	"github.com/onkernel/finbot/lib/ledger"
)

// State is a step of the add-transaction dialog
type State string

const (
	StateIdle             State = "idle"
	StateAwaitingCategory State = "awaiting_category"
	StateAwaitingAmount   State = "awaiting_amount"
)

// Key identifies a conversation: the same user may talk to the bot in several chats.
type Key struct {
	ChatID int64
	UserID int64
}

// Session is the dialog state of one conversation.
type Session struct {
	State     State
	Kind      ledger.Kind
	Category  string
	UpdatedAt time.Time
}

// Store keeps sessions
type Store interface {
	// Get returns the session for key, or an idle session
	Get(key Key) Session

	// Set replaces the session for key
	Set(key Key, s Session)

	// Clear resets key to idle
	Clear(key Key)

	// Len returns the number of non-idle sessions
	Len() int
}

// MemoryStore keeps sessions in process memory. Sessions untouched for
// longer than ttl read back as idle; a zero ttl disables expiry.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[Key]Session
	ttl      time.Duration
	now      func() time.Time
}

// NewMemoryStore creates an in-memory session store
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[Key]Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

func (m *MemoryStore) Get(key Key) Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[key]
	if !ok {
		return Session{State: StateIdle}
	}
	if m.expired(s) {
		delete(m.sessions, key)
		return Session{State: StateIdle}
	}
	return s
}

func (m *MemoryStore) Set(key Key, s Session) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s.State == StateIdle || s.State == "" {
		delete(m.sessions, key)
		return
	}
	s.UpdatedAt = m.now()
	m.sessions[key] = s
}

func (m *MemoryStore) Clear(key Key) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, key)
}

func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Sweep drops expired sessions and returns how many were removed.
func (m *MemoryStore) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for key, s := range m.sessions {
		if m.expired(s) {
			delete(m.sessions, key)
			removed++
		}
	}
	return removed
}

func (m *MemoryStore) expired(s Session) bool {
	return m.ttl > 0 && m.now().Sub(s.UpdatedAt) > m.ttl
}
