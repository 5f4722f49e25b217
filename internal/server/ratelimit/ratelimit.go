// Package ratelimit throttles requests per client and route rule with token
// buckets.
package ratelimit

import (
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Info describes the bucket a request was charged to.
type Info struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetTime  time.Time
	RetryAfter time.Duration
}

type bucket struct {
	lim      *rate.Limiter
	limit    int
	lastSeen time.Time
}

// Limiter keeps one bucket per client and rule. Buckets are keyed by the rule
// rather than the concrete path, so opening new sessions does not reset a
// client's allowance.
type Limiter struct {
	cfg *Config

	mu      sync.Mutex
	buckets map[string]*bucket

	stop     chan struct{}
	stopOnce sync.Once
	now      func() time.Time
}

// NewLimiter creates a limiter and starts its idle-bucket cleanup.
func NewLimiter(cfg *Config) *Limiter {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	l := &Limiter{
		cfg:     cfg,
		buckets: make(map[string]*bucket),
		stop:    make(chan struct{}),
		now:     time.Now,
	}
	if cfg.Enabled && cfg.CleanupInterval > 0 {
		go l.janitor(cfg.CleanupInterval)
	}
	return l
}

// Allow charges one request from clientID to the rule matching method and path.
func (l *Limiter) Allow(clientID, path, method string) (bool, Info) {
	if !l.cfg.Enabled || l.cfg.Whitelist[clientID] {
		return true, Info{Allowed: true}
	}
	if l.cfg.Blacklist[clientID] {
		return false, Info{}
	}

	rule := MatchRule(method, path, l.cfg.Rules)
	key := clientID + "|*"
	if rule != nil {
		key = clientID + "|" + rule.Method + " " + rule.Pattern
	} else {
		rule = &Rule{Limit: l.cfg.DefaultLimit, Window: l.cfg.DefaultWindow}
	}
	if rule.Limit <= 0 || rule.Window <= 0 {
		return true, Info{Allowed: true}
	}

	now := l.now()
	b := l.bucketFor(key, *rule, now)

	allowed := b.lim.AllowN(now, 1)
	tokens := b.lim.TokensAt(now)
	perSec := float64(b.lim.Limit())

	info := Info{
		Allowed:   allowed,
		Limit:     b.limit,
		Remaining: int(math.Max(0, math.Floor(tokens))),
		ResetTime: now.Add(secondsToDuration((float64(b.lim.Burst()) - tokens) / perSec)),
	}
	if !allowed {
		info.RetryAfter = secondsToDuration((1 - tokens) / perSec)
	}
	return allowed, info
}

func secondsToDuration(s float64) time.Duration {
	if s <= 0 {
		return 0
	}
	return time.Duration(s * float64(time.Second))
}

func (l *Limiter) bucketFor(key string, r Rule, now time.Time) *bucket {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok {
		burst := r.Burst
		if burst <= 0 {
			burst = r.Limit
		}
		every := r.Window / time.Duration(r.Limit)
		b = &bucket{lim: rate.NewLimiter(rate.Every(every), burst), limit: r.Limit}
		l.buckets[key] = b
	}
	b.lastSeen = now
	return b
}

func (l *Limiter) janitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.sweep(l.now())
		case <-l.stop:
			return
		}
	}
}

// sweep drops buckets idle for longer than IdleTTL.
func (l *Limiter) sweep(now time.Time) int {
	ttl := l.cfg.IdleTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	removed := 0
	for key, b := range l.buckets {
		if now.Sub(b.lastSeen) > ttl {
			delete(l.buckets, key)
			removed++
		}
	}
	return removed
}

// Stop ends the cleanup goroutine. It is safe to call more than once.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}
