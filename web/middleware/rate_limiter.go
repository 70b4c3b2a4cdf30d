package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Limit types accepted by RateLimitMiddleware.
const (
	LimitMessage = "message"
	LimitFile    = "file"
)

// RateLimiterConfig holds configuration for rate limiting
type RateLimiterConfig struct {
	MessagesPerMinute int // Max messages per session per minute
	FilesPerHour      int // Max file uploads per session per hour
	BurstSize         int // Allow burst of N requests
}

// TokenBucket implements a token bucket rate limiter
type TokenBucket struct {
	tokens     float64
	maxTokens  float64
	refillRate float64 // tokens per second
	lastRefill time.Time
	mu         sync.Mutex
}

// NewTokenBucket creates a new token bucket
func NewTokenBucket(maxTokens float64, refillRate float64) *TokenBucket {
	return &TokenBucket{
		tokens:     maxTokens,
		maxTokens:  maxTokens,
		refillRate: refillRate,
		lastRefill: time.Now(),
	}
}

// Allow checks if a request can proceed and consumes a token if so
func (tb *TokenBucket) Allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(tb.lastRefill).Seconds()
	tb.tokens = min(tb.maxTokens, tb.tokens+(elapsed*tb.refillRate))
	tb.lastRefill = now

	if tb.tokens >= 1.0 {
		tb.tokens -= 1.0
		return true
	}
	return false
}

// Remaining returns the number of tokens remaining
func (tb *TokenBucket) Remaining() int {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	elapsed := time.Since(tb.lastRefill).Seconds()
	return int(min(tb.maxTokens, tb.tokens+(elapsed*tb.refillRate)))
}

// SessionRateLimiter manages rate limits per session. Buckets are dropped by
// Forget when the session cleanup removes a session.
type SessionRateLimiter struct {
	config        RateLimiterConfig
	messageLimits map[uuid.UUID]*TokenBucket
	fileLimits    map[uuid.UUID]*TokenBucket
	mu            sync.Mutex
	logger        *zap.Logger
}

// NewSessionRateLimiter creates a new session-based rate limiter
func NewSessionRateLimiter(config RateLimiterConfig, logger *zap.Logger) *SessionRateLimiter {
	return &SessionRateLimiter{
		config:        config,
		messageLimits: make(map[uuid.UUID]*TokenBucket),
		fileLimits:    make(map[uuid.UUID]*TokenBucket),
		logger:        logger,
	}
}

func (srl *SessionRateLimiter) bucket(limits map[uuid.UUID]*TokenBucket, sessionID uuid.UUID, size, perSecond float64) *TokenBucket {
	srl.mu.Lock()
	defer srl.mu.Unlock()
	b, ok := limits[sessionID]
	if !ok {
		b = NewTokenBucket(size, perSecond)
		limits[sessionID] = b
	}
	return b
}

// AllowMessage checks if a message can be sent for the given session
func (srl *SessionRateLimiter) AllowMessage(sessionID uuid.UUID) bool {
	refillRate := float64(srl.config.MessagesPerMinute) / 60.0
	return srl.bucket(srl.messageLimits, sessionID, float64(srl.config.BurstSize), refillRate).Allow()
}

// AllowFile checks if a file upload can proceed for the given session
func (srl *SessionRateLimiter) AllowFile(sessionID uuid.UUID) bool {
	refillRate := float64(srl.config.FilesPerHour) / 3600.0
	return srl.bucket(srl.fileLimits, sessionID, float64(srl.config.FilesPerHour), refillRate).Allow()
}

// GetMessageLimit returns remaining message tokens for a session
func (srl *SessionRateLimiter) GetMessageLimit(sessionID uuid.UUID) (remaining int, limit int) {
	srl.mu.Lock()
	b, ok := srl.messageLimits[sessionID]
	srl.mu.Unlock()

	if !ok {
		return srl.config.BurstSize, srl.config.BurstSize
	}
	return b.Remaining(), srl.config.BurstSize
}

// Forget drops the buckets of a session.
func (srl *SessionRateLimiter) Forget(sessionID uuid.UUID) {
	srl.mu.Lock()
	defer srl.mu.Unlock()
	delete(srl.messageLimits, sessionID)
	delete(srl.fileLimits, sessionID)
}

// Tracked returns how many sessions currently hold a bucket.
func (srl *SessionRateLimiter) Tracked() int {
	srl.mu.Lock()
	defer srl.mu.Unlock()
	seen := make(map[uuid.UUID]struct{}, len(srl.messageLimits)+len(srl.fileLimits))
	for id := range srl.messageLimits {
		seen[id] = struct{}{}
	}
	for id := range srl.fileLimits {
		seen[id] = struct{}{}
	}
	return len(seen)
}

// RateLimitMiddleware creates a Gin middleware for rate limiting.
// For "message" routes a request carrying a "file" part is counted as an upload.
func RateLimitMiddleware(limiter *SessionRateLimiter, limitType string) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionIDValue, exists := c.Get(SessionIDKey)
		if !exists {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "session not initialized"})
			return
		}
		sessionID := sessionIDValue.(uuid.UUID)

		actualLimitType := limitType
		if limitType == LimitMessage {
			if _, err := c.FormFile("file"); err == nil {
				actualLimitType = LimitFile
			}
		}

		var allowed bool
		var remaining, limit int
		switch actualLimitType {
		case LimitMessage:
			allowed = limiter.AllowMessage(sessionID)
			remaining, limit = limiter.GetMessageLimit(sessionID)
		case LimitFile:
			allowed = limiter.AllowFile(sessionID)
			remaining, limit = limiter.config.FilesPerHour, limiter.config.FilesPerHour
		default:
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "unknown limit type"})
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if !allowed {
			if zapLogger, ok := c.Value("logger").(*zap.Logger); ok {
				zapLogger.Warn("Rate limit exceeded",
					zap.String("session_id", sessionID.String()),
					zap.String("limit_type", actualLimitType),
					zap.Int("limit", limit))
			}

			c.Header("Retry-After", "60")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate limit exceeded",
				"limit":       limit,
				"remaining":   remaining,
				"retry_after": 60,
			})
			return
		}

		c.Next()
	}
}
