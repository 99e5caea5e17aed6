package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"examclash-session-service/internal/app"
	"examclash-session-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

// SessionStore is a Redis-aware implementation of app.SessionRepository.
// Notes:
//   - Runners are in-process state machines, so the store keeps a local map
//     of live sessions; Redis marks session liveness and archives finished
//     results.
//   - For true distribution you'd pair this with a pub/sub projector that
//     routes session events across instances.
type SessionStore struct {
	client   *redis.Client
	ttl      time.Duration
	mu       sync.RWMutex
	sessions map[string]*app.Session
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client:   client,
		ttl:      ttl,
		sessions: make(map[string]*app.Session),
	}
}

func (s *SessionStore) Put(session *app.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = session
	// best-effort liveness marker
	_ = s.client.Set(context.Background(), s.liveKey(session.ID), session.SetID, s.ttl).Err()
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
	_ = s.client.Del(context.Background(), s.liveKey(sessionID)).Err()
}

// ArchiveResult writes the finished result as JSON with the store TTL so a
// result screen or history backfill can pick it up after the runner is gone.
func (s *SessionStore) ArchiveResult(ctx context.Context, sessionID string, result domain.SessionResult) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal session result: %w", err)
	}
	if err := s.client.Set(ctx, s.resultKey(sessionID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("archive session result: %w", err)
	}
	return nil
}

// LoadResult fetches an archived result, if it has not expired.
func (s *SessionStore) LoadResult(ctx context.Context, sessionID string) (domain.SessionResult, error) {
	raw, err := s.client.Get(ctx, s.resultKey(sessionID)).Bytes()
	if err != nil {
		return domain.SessionResult{}, fmt.Errorf("load session result: %w", err)
	}
	var result domain.SessionResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return domain.SessionResult{}, fmt.Errorf("unmarshal session result: %w", err)
	}
	return result, nil
}

func (s *SessionStore) liveKey(sessionID string) string {
	return "session:" + sessionID + ":live"
}

func (s *SessionStore) resultKey(sessionID string) string {
	return "session:" + sessionID + ":result"
}
