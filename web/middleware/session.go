package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const SessionCookieName = "csv_insights_session"
const CookieMaxAge = 24 * 60 * 60 // 1 day

// SessionIDKey is the gin context key holding the request's session uuid.UUID.
const SessionIDKey = "sessionID"

// SessionMiddleware assigns every browser a session ID cookie. Session state
// itself lives server side; an unknown or malformed cookie starts a new session.
func SessionMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var sessionID uuid.UUID

		cookie, err := c.Cookie(SessionCookieName)
		if err == nil {
			sessionID, err = uuid.Parse(cookie)
			if err != nil {
				logger.Debug("Discarding malformed session cookie", zap.Error(err))
			}
		}
		if err != nil {
			sessionID = uuid.New()
			c.SetCookie(SessionCookieName, sessionID.String(), CookieMaxAge, "/", "", false, true)
		}

		c.Set(SessionIDKey, sessionID)
		c.Next()
	}
}

// SessionID returns the ID set by SessionMiddleware.
func SessionID(c *gin.Context) uuid.UUID {
	return c.MustGet(SessionIDKey).(uuid.UUID)
}
