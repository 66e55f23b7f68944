package middlewares

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// Quote traffic dominates: Quote/route reads are cheap snapshots, so the
// defaults allow a steady polling client while capping bursts.
const (
	DefaultQuoteRate  = 10
	DefaultQuoteBurst = 20

	// Idle clients are dropped so the per-IP maps stay bounded.
	staleClientAfter  = 5 * time.Minute
	maxTrackedClients = 4096
)

// RateLimiter is a per-IP token bucket.
type RateLimiter struct {
	mu       sync.Mutex
	rate     int
	burst    int
	tokens   map[string]int
	lastTime map[string]time.Time
}

func NewRateLimiter(rate, burst int) *RateLimiter {
	return &RateLimiter{
		rate:     rate,
		burst:    burst,
		tokens:   make(map[string]int),
		lastTime: make(map[string]time.Time),
	}
}

func (rl *RateLimiter) RateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()

		rl.mu.Lock()
		now := time.Now()

		if len(rl.lastTime) > maxTrackedClients {
			rl.evictStale(now)
		}

		if _, exists := rl.tokens[ip]; !exists {
			rl.tokens[ip] = rl.burst
			rl.lastTime[ip] = now
		}

		elapsed := now.Sub(rl.lastTime[ip])
		rl.lastTime[ip] = now

		tokensToAdd := int(elapsed.Seconds()) * rl.rate
		rl.tokens[ip] += tokensToAdd
		if rl.tokens[ip] > rl.burst {
			rl.tokens[ip] = rl.burst
		}

		if rl.tokens[ip] <= 0 {
			rl.mu.Unlock()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}

		rl.tokens[ip]--
		rl.mu.Unlock()

		c.Next()
	}
}

// evictStale runs under mu.
func (rl *RateLimiter) evictStale(now time.Time) {
	for ip, last := range rl.lastTime {
		if now.Sub(last) > staleClientAfter {
			delete(rl.lastTime, ip)
			delete(rl.tokens, ip)
		}
	}
}
