package middleware

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/makkenzo/license-dashboard-api/internal/ierr"
	"golang.org/x/time/rate"
)

const (
	visitorIdleTTL = 10 * time.Minute
	sweepInterval  = time.Minute
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per caller. Callers are keyed by user id
// when authenticated and by client IP otherwise. Idle buckets are swept on
// access instead of by a background goroutine.
type RateLimiter struct {
	mtx       sync.Mutex
	visitors  map[string]*visitor
	rate      rate.Limit
	burst     int
	now       func() time.Time
	lastSweep time.Time
}

func NewRateLimiter(r rate.Limit, burst int) *RateLimiter {
	return &RateLimiter{
		visitors: make(map[string]*visitor),
		rate:     r,
		burst:    burst,
		now:      time.Now,
	}
}

// PerMinute builds a limiter allowing n events per minute with the given burst.
func PerMinute(n, burst int) *RateLimiter {
	return NewRateLimiter(rate.Every(time.Minute/time.Duration(n)), burst)
}

func (rl *RateLimiter) allow(key string) bool {
	rl.mtx.Lock()
	defer rl.mtx.Unlock()

	now := rl.now()
	if now.Sub(rl.lastSweep) >= sweepInterval {
		for k, v := range rl.visitors {
			if now.Sub(v.lastSeen) > visitorIdleTTL {
				delete(rl.visitors, k)
			}
		}
		rl.lastSweep = now
	}

	v, exists := rl.visitors[key]
	if !exists {
		v = &visitor{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.visitors[key] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := "ip:" + c.ClientIP()
		if identity := GetIdentity(c); identity != nil {
			key = "user:" + strconv.FormatInt(identity.UserID, 10)
		}

		if !rl.allow(key) {
			_ = c.Error(fmt.Errorf("%w: %s", ierr.ErrRateLimited, key))
			c.Abort()
			return
		}
		c.Next()
	}
}

func (rl *RateLimiter) size() int {
	rl.mtx.Lock()
	defer rl.mtx.Unlock()
	return len(rl.visitors)
}
