package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nhatro/backend/internal/interfaces/http/dto"
)

// RateLimiter is a fixed-window per-client limiter. Windows are tracked in
// memory and stale clients are evicted in the background.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*window
	limit   int
	period  time.Duration
}

type window struct {
	count   int
	startAt time.Time
}

// NewRateLimiter creates a limiter allowing limit requests per period per key.
func NewRateLimiter(limit int, period time.Duration) *RateLimiter {
	rl := &RateLimiter{
		clients: make(map[string]*window),
		limit:   limit,
		period:  period,
	}
	go rl.evictLoop()
	return rl
}

func (rl *RateLimiter) evictLoop() {
	ticker := time.NewTicker(rl.period * 2)
	defer ticker.Stop()

	for range ticker.C {
		cutoff := time.Now().Add(-2 * rl.period)
		rl.mu.Lock()
		for key, w := range rl.clients {
			if w.startAt.Before(cutoff) {
				delete(rl.clients, key)
			}
		}
		rl.mu.Unlock()
	}
}

// Allow records a request for key and reports whether it fits the window.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	w, ok := rl.clients[key]
	if !ok || now.Sub(w.startAt) >= rl.period {
		rl.clients[key] = &window{count: 1, startAt: now}
		return true
	}
	if w.count < rl.limit {
		w.count++
		return true
	}
	return false
}

// Remaining reports how many requests key has left in its current window.
func (rl *RateLimiter) Remaining(key string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	w, ok := rl.clients[key]
	if !ok || time.Since(w.startAt) >= rl.period {
		return rl.limit
	}
	if w.count >= rl.limit {
		return 0
	}
	return rl.limit - w.count
}

// RateLimit limits requests per client IP.
func RateLimit(limiter *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()
		if !limiter.Allow(key) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests,
				dto.NewErrorResponse(dto.ErrCodeRateLimited, "Too many requests, slow down"))
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(limiter.limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(limiter.Remaining(key)))
		c.Next()
	}
}
