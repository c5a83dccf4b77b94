package middlewares

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// rateLimiter counts requests per client IP and resets the counters every
// window. Coarse, in-memory, good enough for a single instance.
type rateLimiter struct {
	mu       sync.Mutex
	visitors map[string]int
	limit    int
	window   time.Duration
	stop     chan struct{}
}

func NewRateLimiter(limit int, window time.Duration) *rateLimiter {
	rl := &rateLimiter{
		visitors: make(map[string]int),
		limit:    limit,
		window:   window,
		stop:     make(chan struct{}),
	}
	go rl.reset()
	return rl
}

func (rl *rateLimiter) reset() {
	ticker := time.NewTicker(rl.window)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			rl.mu.Lock()
			rl.visitors = make(map[string]int)
			rl.mu.Unlock()
		case <-rl.stop:
			return
		}
	}
}

// Stop terminates the reset goroutine. Safe to call once.
func (rl *rateLimiter) Stop() {
	close(rl.stop)
}

func (rl *rateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		rl.mu.Lock()
		ip := c.ClientIP()
		rl.visitors[ip]++
		over := rl.visitors[ip] > rl.limit
		rl.mu.Unlock()

		if over {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests, try again later"})
			return
		}
		c.Next()
	}
}
