package memory

import (
	"context"
	"sync"

	"examclash-session-service/internal/app"
	"examclash-session-service/internal/domain"
)

// SessionStore is an in-memory implementation of app.SessionRepository.
// Finished results are not archived anywhere; Redis-backed deployments use
// the redis store for that.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*app.Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*app.Session),
	}
}

func (s *SessionStore) Put(session *app.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = session
}

func (s *SessionStore) Get(sessionID string) (*app.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[sessionID]
	return session, ok
}

func (s *SessionStore) Delete(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
}

func (s *SessionStore) ArchiveResult(_ context.Context, _ string, _ domain.SessionResult) error {
	return nil
}
