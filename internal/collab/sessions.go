// Package collab manages in-memory collaboration sessions where
// several participants shape one song request together.
package collab

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned for unknown session ids.
var ErrNotFound = errors.New("session not found")

// ErrFull is returned when a session has reached its participant limit.
var ErrFull = errors.New("session is full")

// MaxParticipants bounds how many people can share one session.
const MaxParticipants = 8

// Session is one shared editing room.
type Session struct {
	ID           string    `json:"id"`
	Theme        string    `json:"theme"`
	HostName     string    `json:"host_name"`
	Participants []string  `json:"participants"`
	CreatedAt    time.Time `json:"created_at"`
}

// Manager holds the live sessions. Sessions are ephemeral; a restart
// clears them.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager creates an empty Manager.
func NewManager() *Manager {
	return &Manager{sessions: make(map[string]*Session)}
}

// Create opens a new session hosted by hostName.
func (m *Manager) Create(theme, hostName string) Session {
	s := &Session{
		ID:           uuid.New().String(),
		Theme:        theme,
		HostName:     hostName,
		Participants: []string{hostName},
		CreatedAt:    time.Now().UTC(),
	}
	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	return *s
}

// Join adds a participant to a session.
func (m *Manager) Join(id, name string) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return Session{}, ErrNotFound
	}
	for _, p := range s.Participants {
		if p == name {
			return *s, nil
		}
	}
	if len(s.Participants) >= MaxParticipants {
		return Session{}, ErrFull
	}
	s.Participants = append(s.Participants, name)
	return *s, nil
}

// Get returns a session by id.
func (m *Manager) Get(id string) (Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok {
		return Session{}, ErrNotFound
	}
	return *s, nil
}

// List returns all live sessions.
func (m *Manager) List() []Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, *s)
	}
	return out
}
