package web

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	WindowMs    time.Duration
	MaxRequests int
}

type clientWindow struct {
	count   int
	resetAt time.Time
}

// rateLimiter counts requests per IP in fixed windows. Expired windows
// are pruned at most once per window.
type rateLimiter struct {
	config RateLimitConfig

	mu        sync.Mutex
	clients   map[string]*clientWindow
	nextPrune time.Time
}

func newRateLimiter(config RateLimitConfig) *rateLimiter {
	return &rateLimiter{config: config, clients: make(map[string]*clientWindow)}
}

// allow records a request from ip and reports whether it is within the limit.
func (l *rateLimiter) allow(ip string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.After(l.nextPrune) {
		for key, w := range l.clients {
			if now.After(w.resetAt) {
				delete(l.clients, key)
			}
		}
		l.nextPrune = now.Add(l.config.WindowMs)
	}

	w, ok := l.clients[ip]
	if !ok || now.After(w.resetAt) {
		l.clients[ip] = &clientWindow{count: 1, resetAt: now.Add(l.config.WindowMs)}
		return true
	}
	w.count++
	return w.count <= l.config.MaxRequests
}

func (l *rateLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

// rateLimitMiddleware rejects clients over the limit with 429
func rateLimitMiddleware(l *rateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.allow(c.ClientIP(), time.Now()) {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": "Demasiadas solicitudes, por favor intente de nuevo más tarde.",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}
