// internal/api/middleware.go
package api

import (
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/Corphon/CurriculumDesigner/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const requestIDKey = "request_id"

// RateLimiter is a fixed-window request counter per client key.
type RateLimiter struct {
	limit     int
	window    time.Duration
	visitors  map[string]*Visitor
	lastSweep time.Time
	now       func() time.Time
	mu        sync.Mutex
}

// Visitor is one client's current window.
type Visitor struct {
	Remaining int
	Reset     time.Time
}

// NewRateLimiter allows limit requests per window. A limit below one
// disables limiting.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:    limit,
		window:   window,
		visitors: make(map[string]*Visitor),
		now:      time.Now,
	}
}

// Allow counts a request for key and reports whether it fits the window,
// along with the remaining budget and the window reset time.
func (rl *RateLimiter) Allow(key string) (bool, int, time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.Sub(rl.lastSweep) > rl.window {
		for k, v := range rl.visitors {
			if now.After(v.Reset) {
				delete(rl.visitors, k)
			}
		}
		rl.lastSweep = now
	}

	visitor, exists := rl.visitors[key]
	if !exists || now.After(visitor.Reset) {
		visitor = &Visitor{Remaining: rl.limit, Reset: now.Add(rl.window)}
		rl.visitors[key] = visitor
	}
	if visitor.Remaining <= 0 {
		return false, 0, visitor.Reset
	}
	visitor.Remaining--
	return true, visitor.Remaining, visitor.Reset
}

// RateLimitByIP limits generation and export calls per client address.
func RateLimitByIP(rl *RateLimiter, rh *ResponseHelper) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl == nil || rl.limit < 1 {
			c.Next()
			return
		}
		ok, remaining, reset := rl.Allow(c.ClientIP())
		c.Header("X-RateLimit-Limit", strconv.Itoa(rl.limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(reset.Unix(), 10))
		if !ok {
			wait := int(time.Until(reset).Seconds()) + 1
			c.Header("Retry-After", strconv.Itoa(wait))
			rh.Error(c, http.StatusTooManyRequests, ErrorRateLimitExceeded,
				fmt.Sprintf("rate limit exceeded, retry in %ds", wait))
			return
		}
		c.Next()
	}
}

// requestID tags each request so envelopes and logs can be correlated.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

// accessLog logs each request and feeds the request metrics.
func accessLog(logger *utils.Logger, metrics *utils.PipelineMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		duration := time.Since(start)
		if metrics != nil {
			metrics.RecordRequest(route, c.Request.Method, c.Writer.Status(), duration)
		}
		logger.Debug("request",
			"method", c.Request.Method,
			"route", route,
			"status", c.Writer.Status(),
			"duration", duration,
			"client_ip", c.ClientIP(),
			"request_id", c.GetString(requestIDKey))
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept, Accept-Encoding, Origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, PATCH, DELETE")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Disposition, X-Request-ID, Retry-After")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
