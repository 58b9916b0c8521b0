package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// visitorBuckets tracks one token bucket per client IP. Buckets idle for
// more than ten minutes are swept so the map stays bounded.
type visitorBuckets struct {
	mu      sync.Mutex
	rps     rate.Limit
	burst   int
	buckets map[string]*visitor
}

type visitor struct {
	bucket   *rate.Limiter
	lastSeen time.Time
}

func (v *visitorBuckets) take(ip string) bool {
	v.mu.Lock()
	vis, ok := v.buckets[ip]
	if !ok {
		vis = &visitor{bucket: rate.NewLimiter(v.rps, v.burst)}
		v.buckets[ip] = vis
	}
	vis.lastSeen = time.Now()
	v.mu.Unlock()
	return vis.bucket.Allow()
}

func (v *visitorBuckets) sweep() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		cutoff := time.Now().Add(-10 * time.Minute)
		v.mu.Lock()
		for ip, vis := range v.buckets {
			if vis.lastSeen.Before(cutoff) {
				delete(v.buckets, ip)
			}
		}
		v.mu.Unlock()
	}
}

// RateLimit limits each client IP to r requests per second with burst b.
// Requests over the limit get 429 without reaching the handler.
func RateLimit(r rate.Limit, b int) gin.HandlerFunc {
	vb := &visitorBuckets{rps: r, burst: b, buckets: make(map[string]*visitor)}
	go vb.sweep()

	return func(c *gin.Context) {
		if !vb.take(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
