package middleware

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"cuchito/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// ── Fixed-window rate limiter ─────────────────────────────────────────────────

type window struct {
	count int
	ends  time.Time
}

// RateLimiter counts requests per client IP in fixed windows.
type RateLimiter struct {
	mu      sync.Mutex
	limit   int
	period  time.Duration
	clients map[string]*window
	now     func() time.Time
}

func NewRateLimiter(limit int, period time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:   limit,
		period:  period,
		clients: make(map[string]*window),
		now:     time.Now,
	}
}

// Allow records one request from key and reports whether it is within the
// limit, plus the end of the current window.
func (rl *RateLimiter) Allow(key string) (bool, time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	w, ok := rl.clients[key]
	if !ok || !now.Before(w.ends) {
		w = &window{ends: now.Add(rl.period)}
		rl.clients[key] = w
	}
	w.count++
	return w.count <= rl.limit, w.ends
}

// Middleware rejects requests past the limit with 429.
func (rl *RateLimiter) Middleware(msg string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, ends := rl.Allow(c.ClientIP())
		if !ok {
			secs := int(time.Until(ends).Seconds()) + 1
			c.Header("Retry-After", strconv.Itoa(secs))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apierror.New(msg))
			return
		}
		c.Next()
	}
}

// Purge drops windows that already ended.
func (rl *RateLimiter) Purge() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	now := rl.now()
	purged := 0
	for k, w := range rl.clients {
		if !now.Before(w.ends) {
			delete(rl.clients, k)
			purged++
		}
	}
	return purged
}

// StartPurger removes stale entries every interval until ctx is done, so IPs
// that never come back do not accumulate.
func (rl *RateLimiter) StartPurger(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := rl.Purge(); n > 0 {
					log.Debug().Int("entries_purged", n).Msg("rate limiter purged")
				}
			}
		}
	}()
}

// LoginRateLimiter limits login attempts to 20 per minute per IP.
func LoginRateLimiter(rl *RateLimiter) gin.HandlerFunc {
	return rl.Middleware("Demasiados intentos de login. Intente en 1 minuto.")
}
