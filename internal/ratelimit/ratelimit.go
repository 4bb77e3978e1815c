// Package ratelimit provides an injectable request limiter. The default
// implementation keeps per-key token buckets in process memory; deployments
// with multiple processes can substitute a shared-store implementation behind
// the same interface.
package ratelimit

import (
	"net"
	"net/http"
	"sync"

	"golang.org/x/time/rate"

	"github.com/ryancalacsan/quotecraft-sub000/httpx"
)

// Limiter decides whether one more request from key may proceed.
type Limiter interface {
	Allow(key string) bool
}

// PerKey is a token-bucket limiter with one bucket per key.
type PerKey struct {
	mu      sync.Mutex
	buckets map[string]*rate.Limiter
	rps     rate.Limit
	burst   int
}

func NewPerKey(rps float64, burst int) *PerKey {
	if rps <= 0 {
		rps = 5
	}
	if burst <= 0 {
		burst = 10
	}
	return &PerKey{
		buckets: make(map[string]*rate.Limiter),
		rps:     rate.Limit(rps),
		burst:   burst,
	}
}

func (p *PerKey) Allow(key string) bool {
	p.mu.Lock()
	b, ok := p.buckets[key]
	if !ok {
		b = rate.NewLimiter(p.rps, p.burst)
		p.buckets[key] = b
	}
	p.mu.Unlock()
	return b.Allow()
}

// Unlimited never rejects; useful in tests.
type Unlimited struct{}

func (Unlimited) Allow(string) bool { return true }

// Middleware rejects over-limit requests with 429, keyed by client address.
func Middleware(l Limiter, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.Allow(clientKey(r)) {
			httpx.JSONError(w, http.StatusTooManyRequests, "rate_limited", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
