// Package ratelimit provides per-client token bucket rate limiting.
package ratelimit

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// tokenBucket refills at a steady rate up to its capacity.
type tokenBucket struct {
	mu         sync.Mutex
	capacity   float64
	refillRate float64 // tokens per second
	tokens     float64
	lastRefill time.Time
}

func newTokenBucket(capacity int, refillRate float64, now time.Time) *tokenBucket {
	return &tokenBucket{
		capacity:   float64(capacity),
		refillRate: refillRate,
		tokens:     float64(capacity),
		lastRefill: now,
	}
}

// take consumes a token if one is available and reports the remaining
// tokens and when the bucket will be full again.
func (b *tokenBucket) take(now time.Time) (bool, int, time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()

	elapsed := now.Sub(b.lastRefill).Seconds()
	b.tokens = min(b.capacity, b.tokens+elapsed*b.refillRate)
	b.lastRefill = now

	allowed := b.tokens >= 1
	if allowed {
		b.tokens--
	}

	reset := now
	if b.tokens < b.capacity {
		missing := b.capacity - b.tokens
		reset = now.Add(time.Duration(missing / b.refillRate * float64(time.Second)))
	}
	return allowed, int(b.tokens), reset
}

// Info describes the limit state after a request.
type Info struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetTime  time.Time
	RetryAfter time.Duration
}

// Limiter tracks one bucket per client, endpoint and method.
type Limiter struct {
	config  *Config
	buckets *lru.Cache[string, *tokenBucket]
	now     func() time.Time
}

// NewLimiter creates a limiter. A nil config enables the default limit only.
func NewLimiter(config *Config) *Limiter {
	if config == nil {
		config = &Config{Enabled: true, DefaultLimit: 600, DefaultWindow: time.Minute}
	}
	size := config.MaxBuckets
	if size <= 0 {
		size = DefaultMaxBuckets
	}
	buckets, _ := lru.New[string, *tokenBucket](size)
	return &Limiter{config: config, buckets: buckets, now: time.Now}
}

// Allow reports whether a request from clientID to method and path may proceed.
func (l *Limiter) Allow(clientID, path, method string) (bool, Info) {
	if !l.config.Enabled || l.config.Whitelist[clientID] {
		return true, Info{Allowed: true}
	}
	if l.config.Blacklist[clientID] {
		return false, Info{}
	}

	endpoint := MatchEndpoint(path, method, l.config.EndpointConfigs)
	if endpoint == nil {
		endpoint = &EndpointConfig{Limit: l.config.DefaultLimit, Window: l.config.DefaultWindow}
	}
	if endpoint.Limit <= 0 || endpoint.Window <= 0 {
		return true, Info{Allowed: true}
	}

	now := l.now()
	key := clientID + ":" + method + ":" + path
	bucket, ok := l.buckets.Get(key)
	if !ok {
		capacity := endpoint.Burst
		if capacity <= 0 {
			capacity = endpoint.Limit
		}
		bucket = newTokenBucket(capacity, float64(endpoint.Limit)/endpoint.Window.Seconds(), now)
		if prev, found, _ := l.buckets.PeekOrAdd(key, bucket); found {
			bucket = prev
		}
	}

	allowed, remaining, reset := bucket.take(now)
	info := Info{
		Allowed:   allowed,
		Limit:     endpoint.Limit,
		Remaining: remaining,
		ResetTime: reset,
	}
	if !allowed {
		// the next token arrives after one refill interval
		info.RetryAfter = time.Duration(endpoint.Window.Seconds() / float64(endpoint.Limit) * float64(time.Second))
	}
	return allowed, info
}

// Buckets returns the number of tracked buckets
func (l *Limiter) Buckets() int {
	return l.buckets.Len()
}
