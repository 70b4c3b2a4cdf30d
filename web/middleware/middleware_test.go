package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestSessionMiddleware(t *testing.T) {
	router := gin.New()
	router.Use(SessionMiddleware(zap.NewNop()))
	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, SessionID(c).String())
	})

	tests := []struct {
		name       string
		cookie     string
		wantReuse  bool
		wantCookie bool
	}{
		{name: "no_cookie", wantCookie: true},
		{name: "valid_cookie", cookie: uuid.NewString(), wantReuse: true},
		{name: "malformed_cookie", cookie: "not-a-uuid", wantCookie: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: tt.cookie})
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			got := rec.Body.String()
			if _, err := uuid.Parse(got); err != nil {
				t.Fatalf("session ID %q is not a UUID", got)
			}
			if tt.wantReuse && got != tt.cookie {
				t.Errorf("session ID = %s, want %s", got, tt.cookie)
			}
			if set := len(rec.Result().Cookies()) > 0; set != tt.wantCookie {
				t.Errorf("cookie set = %v, want %v", set, tt.wantCookie)
			}
		})
	}
}

func TestTokenBucket(t *testing.T) {
	tb := NewTokenBucket(2, 0)
	if !tb.Allow() || !tb.Allow() {
		t.Fatal("burst of 2 should be allowed")
	}
	if tb.Allow() {
		t.Error("third request should be refused with no refill")
	}
	if tb.Remaining() != 0 {
		t.Errorf("Remaining() = %d, want 0", tb.Remaining())
	}
}

func TestSessionRateLimiterForget(t *testing.T) {
	srl := NewSessionRateLimiter(RateLimiterConfig{MessagesPerMinute: 1, FilesPerHour: 1, BurstSize: 1}, zap.NewNop())
	id := uuid.New()

	if !srl.AllowMessage(id) || srl.AllowMessage(id) {
		t.Fatal("expected one message then a refusal")
	}
	if !srl.AllowFile(id) || srl.AllowFile(id) {
		t.Fatal("expected one upload then a refusal")
	}
	if srl.Tracked() != 1 {
		t.Errorf("Tracked() = %d, want 1", srl.Tracked())
	}

	srl.Forget(id)
	if srl.Tracked() != 0 {
		t.Errorf("Tracked() after Forget = %d", srl.Tracked())
	}
	if !srl.AllowMessage(id) {
		t.Error("a forgotten session starts with a full bucket")
	}
}

func TestRateLimitMiddlewareCountsUploads(t *testing.T) {
	srl := NewSessionRateLimiter(RateLimiterConfig{MessagesPerMinute: 60, FilesPerHour: 1, BurstSize: 5}, zap.NewNop())
	id := uuid.New()

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(SessionIDKey, id)
		c.Next()
	})
	router.POST("/", RateLimitMiddleware(srl, LimitFile), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	codes := []int{}
	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
		codes = append(codes, rec.Code)
	}
	if codes[0] != http.StatusNoContent || codes[1] != http.StatusTooManyRequests {
		t.Errorf("codes = %v", codes)
	}
}
