package middleware

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// RateLimiter is a fixed-window in-memory limiter keyed by client IP.
// State is per-process only: it resets on restart and is approximate
// across multiple instances.
type RateLimiter struct {
	visitors sync.Map
	window   time.Duration
	max      int
}

type visitor struct {
	mu          sync.Mutex
	count       int
	windowStart time.Time
}

func NewRateLimiter(window time.Duration, max int) *RateLimiter {
	rl := &RateLimiter{window: window, max: max}
	go rl.cleanup()
	return rl
}

// cleanup evicts stale windows to keep the map bounded.
func (rl *RateLimiter) cleanup() {
	for {
		time.Sleep(time.Minute)
		now := time.Now()
		rl.visitors.Range(func(key, value interface{}) bool {
			v := value.(*visitor)
			v.mu.Lock()
			stale := now.Sub(v.windowStart) > rl.window
			v.mu.Unlock()
			if stale {
				rl.visitors.Delete(key)
			}
			return true
		})
	}
}

// Allow records a hit for the key and reports whether it is within the
// window's budget.
func (rl *RateLimiter) Allow(key string) bool {
	value, _ := rl.visitors.LoadOrStore(key, &visitor{windowStart: time.Now()})
	v := value.(*visitor)

	v.mu.Lock()
	defer v.mu.Unlock()

	if time.Since(v.windowStart) > rl.window {
		v.windowStart = time.Now()
		v.count = 0
	}
	v.count++
	return v.count <= rl.max
}

func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if !rl.Allow(ip) {
			slog.Warn("rate limit exceeded", slog.String("IP", ip), slog.String("Path", c.Request.URL.Path))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests. Please try again later."})
			return
		}
		c.Next()
	}
}
