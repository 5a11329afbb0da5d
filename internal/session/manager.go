// Package session tracks authenticated client sessions with a lease period.
package session

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Session is one authenticated client lease.
type Session struct {
	ID   string
	Host string

	mu           sync.RWMutex
	userID       string
	lastActivity time.Time
	createdAt    time.Time
}

// SetUserID binds the session to a user.
func (s *Session) SetUserID(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userID = userID
}

// GetUserID returns the bound user, or "" if unbound.
func (s *Session) GetUserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID
}

// UpdateActivity refreshes the lease.
func (s *Session) UpdateActivity() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActivity = time.Now()
}

func (s *Session) expired(lease time.Duration) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return time.Since(s.lastActivity) > lease
}

// Manager owns all active sessions.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	lease    time.Duration
	logger   *zap.Logger
}

// NewManager creates a session manager with the given lease period.
func NewManager(lease time.Duration, logger *zap.Logger) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		lease:    lease,
		logger:   logger,
	}
}

// CreateSession registers a session, replacing any stale one with the same id.
func (m *Manager) CreateSession(id, host string) *Session {
	now := time.Now()
	sess := &Session{
		ID:           id,
		Host:         host,
		lastActivity: now,
		createdAt:    now,
	}
	m.mu.Lock()
	m.sessions[id] = sess
	m.mu.Unlock()
	return sess
}

// GetSession looks up a live session. Expired sessions are treated as absent.
func (m *Manager) GetSession(id string) (*Session, bool) {
	m.mu.RLock()
	sess, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if sess.expired(m.lease) {
		m.RemoveSession(id)
		return nil, false
	}
	return sess, true
}

// RemoveSession drops a session.
func (m *Manager) RemoveSession(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

// Count returns the number of tracked sessions, expired ones included until
// the cleanup pass reaps them.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// CloseAll drops every session. Used during shutdown.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()
}

// CleanupExpiredSessions reaps expired sessions periodically until ctx ends.
func (m *Manager) CleanupExpiredSessions(ctx context.Context) {
	interval := m.lease / 2
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.reapExpired()
		}
	}
}

func (m *Manager) reapExpired() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, sess := range m.sessions {
		if sess.expired(m.lease) {
			delete(m.sessions, id)
			m.logger.Debug("session expired", zap.String("session_id", id))
		}
	}
}
