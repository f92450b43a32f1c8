// Package ratelimit provides per-IP token bucket rate limiting for
// inbound protocol lines.
package ratelimit

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// IPLimiter hands out one token bucket per client IP. A zero or negative
// rate disables limiting entirely.
type IPLimiter struct {
	mu      sync.RWMutex
	buckets map[string]*rate.Limiter
	r       rate.Limit
	burst   int
	done    chan struct{}
	logger  zerolog.Logger
}

// NewIPLimiter creates an IPLimiter allowing r events per second with the
// given burst per IP, and starts a background sweep that evicts idle buckets.
func NewIPLimiter(r rate.Limit, burst int, logger zerolog.Logger) *IPLimiter {
	l := &IPLimiter{
		buckets: make(map[string]*rate.Limiter),
		r:       r,
		burst:   burst,
		done:    make(chan struct{}),
		logger:  logger,
	}
	go l.sweep(3 * time.Minute)
	return l
}

// Allow reports whether the IP may send another line now. If allowed, a
// token is consumed.
func (l *IPLimiter) Allow(ip string) bool {
	if l.r <= 0 {
		return true
	}
	return l.bucket(ip).Allow()
}

func (l *IPLimiter) bucket(ip string) *rate.Limiter {
	l.mu.RLock()
	b, ok := l.buckets[ip]
	l.mu.RUnlock()
	if ok {
		return b
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if b, ok = l.buckets[ip]; !ok {
		b = rate.NewLimiter(l.r, l.burst)
		l.buckets[ip] = b
	}
	return b
}

// Active returns the number of IPs currently holding a bucket.
func (l *IPLimiter) Active() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.buckets)
}

// Stop ends the background sweep.
func (l *IPLimiter) Stop() {
	close(l.done)
}

func (l *IPLimiter) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-l.done:
			return
		case <-ticker.C:
			removed := l.evictIdle()
			l.logger.Debug().Int("removed", removed).Int("active", l.Active()).Msg("rate limiter sweep")
		}
	}
}

// evictIdle drops buckets that have refilled completely, meaning the IP
// has been quiet long enough to forget.
func (l *IPLimiter) evictIdle() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	now := time.Now()
	for ip, b := range l.buckets {
		if b.TokensAt(now) >= float64(b.Burst()) {
			delete(l.buckets, ip)
			removed++
		}
	}
	return removed
}
