package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/Rayus223/backend/internal/common"
	"github.com/Rayus223/backend/internal/http/response"
)

type Limiter interface {
	Allow(key string, limit int, window time.Duration) bool
}

// RateLimiter is a fixed-window in-memory limiter. Expired buckets are
// pruned lazily as keys are touched.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*rateBucket
	touched int
}

type rateBucket struct {
	count     int
	windowEnd time.Time
}

const pruneEvery = 1024

func NewRateLimiter() *RateLimiter {
	return &RateLimiter{buckets: make(map[string]*rateBucket)}
}

func (r *RateLimiter) Allow(key string, limit int, window time.Duration) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	r.touched++
	if r.touched >= pruneEvery {
		r.touched = 0
		for k, bucket := range r.buckets {
			if now.After(bucket.windowEnd) {
				delete(r.buckets, k)
			}
		}
	}
	bucket, ok := r.buckets[key]
	if !ok || now.After(bucket.windowEnd) {
		r.buckets[key] = &rateBucket{count: 1, windowEnd: now.Add(window)}
		return true
	}
	if bucket.count >= limit {
		return false
	}
	bucket.count++
	return true
}

// RateLimit caps requests per client IP over a fixed window. Handlers
// keep their own finer-grained keys on top of this.
func RateLimit(limiter Limiter, limit int, window time.Duration) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow("ip:"+ClientIP(r), limit, window) {
				response.Error(w, common.NewError(common.CodeRateLimited, "too many requests", nil))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func ClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return forwarded
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
