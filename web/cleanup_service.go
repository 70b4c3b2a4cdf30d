package web

import (
	"context"
	"time"

	"csv-insights/web/middleware"
	"csv-insights/web/services"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CleanupService expires idle sessions together with their rate-limit buckets.
type CleanupService struct {
	sessions *services.SessionService
	limiter  *middleware.SessionRateLimiter
	logger   *zap.Logger
}

// NewCleanupService creates a new cleanup service instance
func NewCleanupService(sessions *services.SessionService, limiter *middleware.SessionRateLimiter, logger *zap.Logger) *CleanupService {
	return &CleanupService{
		sessions: sessions,
		limiter:  limiter,
		logger:   logger,
	}
}

// CleanupStaleSessions deletes sessions idle for longer than maxAge and
// returns how many were removed.
func (cs *CleanupService) CleanupStaleSessions(maxAge time.Duration) int {
	cutoffTime := time.Now().Add(-maxAge)

	cs.logger.Debug("Starting stale session cleanup",
		zap.Time("cutoff_time", cutoffTime),
		zap.Duration("max_age", maxAge))

	staleSessions := cs.sessions.StaleSessions(cutoffTime)
	if len(staleSessions) == 0 {
		cs.logger.Debug("No stale sessions found")
		return 0
	}

	deletedCount := 0
	for _, sessionID := range staleSessions {
		if cs.DeleteSession(sessionID) {
			deletedCount++
		}
	}

	cs.logger.Info("Stale session cleanup completed",
		zap.Int("sessions_deleted", deletedCount),
		zap.Int("sessions_remaining", cs.sessions.Len()))

	return deletedCount
}

// DeleteSession drops a session's transcript and its rate-limit buckets.
func (cs *CleanupService) DeleteSession(sessionID uuid.UUID) bool {
	cs.limiter.Forget(sessionID)
	deleted := cs.sessions.Delete(sessionID)
	if deleted {
		cs.logger.Debug("Session deleted", zap.String("session_id", sessionID.String()))
	}
	return deleted
}

// StartSessionCleanup runs CleanupStaleSessions every interval until ctx is done.
func (cs *CleanupService) StartSessionCleanup(ctx context.Context, interval, maxAge time.Duration) {
	cs.logger.Info("Session cleanup started",
		zap.Duration("interval", interval),
		zap.Duration("max_age", maxAge))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			cs.logger.Info("Session cleanup stopped")
			return
		case <-ticker.C:
			cs.CleanupStaleSessions(maxAge)
		}
	}
}
