package services

import (
	"fmt"
	"sync"
	"time"

	"csv-insights/web/types"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru"
	"go.uber.org/zap"
)

// SessionService keeps per-browser sessions in a bounded in-memory LRU.
// Nothing is persisted; evicted or expired sessions start over empty.
type SessionService struct {
	cache  *lru.Cache
	logger *zap.Logger

	mu    sync.Mutex
	locks map[uuid.UUID]*sessionLock
}

type sessionLock struct {
	sync.Mutex
	refs int
}

func NewSessionService(capacity int, logger *zap.Logger) (*SessionService, error) {
	ss := &SessionService{logger: logger, locks: make(map[uuid.UUID]*sessionLock)}
	cache, err := lru.NewWithEvict(capacity, ss.onEvict)
	if err != nil {
		return nil, fmt.Errorf("create session cache: %w", err)
	}
	ss.cache = cache
	return ss, nil
}

func (ss *SessionService) onEvict(key, _ interface{}) {
	if id, ok := key.(uuid.UUID); ok {
		ss.logger.Debug("Session evicted from cache", zap.String("session_id", id.String()))
	}
}

// Get returns a copy of the session, or a fresh one if the ID is unknown.
// Changes are only kept once the copy is passed to Save.
func (ss *SessionService) Get(sessionID uuid.UUID) *types.Session {
	if v, ok := ss.cache.Get(sessionID); ok {
		return v.(*types.Session).Clone()
	}
	now := time.Now()
	return &types.Session{ID: sessionID, CreatedAt: now, LastActive: now}
}

// Save stores the session and marks it active.
func (ss *SessionService) Save(session *types.Session) {
	session.LastActive = time.Now()
	ss.cache.Add(session.ID, session.Clone())
}

// Update loads the session, runs fn on it and saves the result while holding
// a lock for that session ID, so concurrent requests from one browser apply
// one after another. Other sessions are not blocked.
func (ss *SessionService) Update(sessionID uuid.UUID, fn func(*types.Session)) {
	unlock := ss.lock(sessionID)
	defer unlock()

	session := ss.Get(sessionID)
	fn(session)
	ss.Save(session)
}

func (ss *SessionService) lock(sessionID uuid.UUID) func() {
	ss.mu.Lock()
	l, ok := ss.locks[sessionID]
	if !ok {
		l = &sessionLock{}
		ss.locks[sessionID] = l
	}
	l.refs++
	ss.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		ss.mu.Lock()
		if l.refs--; l.refs == 0 {
			delete(ss.locks, sessionID)
		}
		ss.mu.Unlock()
	}
}

// Delete drops a session. It reports whether the session existed.
func (ss *SessionService) Delete(sessionID uuid.UUID) bool {
	return ss.cache.Remove(sessionID)
}

// StaleSessions lists sessions whose last activity is before cutoff without
// refreshing their recency.
func (ss *SessionService) StaleSessions(cutoff time.Time) []uuid.UUID {
	var stale []uuid.UUID
	for _, key := range ss.cache.Keys() {
		v, ok := ss.cache.Peek(key)
		if !ok {
			continue
		}
		if s := v.(*types.Session); s.LastActive.Before(cutoff) {
			stale = append(stale, s.ID)
		}
	}
	return stale
}

// Len returns the number of cached sessions.
func (ss *SessionService) Len() int {
	return ss.cache.Len()
}
