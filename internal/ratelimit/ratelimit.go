// Package ratelimit limits how often each chat user may submit documents.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Info contains information about rate limit status.
type Info struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// Config holds rate limiting configuration.
type Config struct {
	Enabled         bool
	Limit           int
	Window          time.Duration
	CleanupInterval time.Duration
	IdleTTL         time.Duration
	Whitelist       map[int64]bool
}

// DefaultConfig allows 5 documents per user per minute.
func DefaultConfig() *Config {
	return &Config{
		Enabled:         true,
		Limit:           5,
		Window:          time.Minute,
		CleanupInterval: 5 * time.Minute,
		IdleTTL:         time.Hour,
		Whitelist:       make(map[int64]bool),
	}
}

type entry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// Limiter manages one token bucket per user.
type Limiter struct {
	config  *Config
	now     func() time.Time
	mu      sync.Mutex
	entries map[int64]*entry

	cleanupTicker *time.Ticker
	cleanupStop   chan struct{}
	stopOnce      sync.Once
}

// NewLimiter creates a new rate limiter with the given configuration.
// A nil config uses DefaultConfig.
func NewLimiter(config *Config) *Limiter {
	if config == nil {
		config = DefaultConfig()
	}
	if config.IdleTTL <= 0 {
		config.IdleTTL = time.Hour
	}

	l := &Limiter{
		config:  config,
		now:     time.Now,
		entries: make(map[int64]*entry),
	}

	if config.Enabled && config.CleanupInterval > 0 {
		l.cleanupTicker = time.NewTicker(config.CleanupInterval)
		l.cleanupStop = make(chan struct{})
		go l.cleanup()
	}

	return l
}

// Allow consumes one token for userID if available.
func (l *Limiter) Allow(userID int64) (bool, Info) {
	if !l.config.Enabled || l.config.Limit <= 0 || l.config.Window <= 0 || l.config.Whitelist[userID] {
		return true, Info{Allowed: true}
	}

	now := l.now()
	lim := l.limiterFor(userID, now)

	res := lim.ReserveN(now, 1)
	if !res.OK() {
		return false, Info{Limit: l.config.Limit, RetryAfter: l.config.Window}
	}
	if delay := res.DelayFrom(now); delay > 0 {
		res.CancelAt(now)
		return false, Info{
			Limit:      l.config.Limit,
			Remaining:  0,
			RetryAfter: delay,
		}
	}

	return true, Info{
		Allowed:   true,
		Limit:     l.config.Limit,
		Remaining: max(0, int(lim.TokensAt(now))),
	}
}

func (l *Limiter) limiterFor(userID int64, now time.Time) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[userID]
	if !ok {
		every := l.config.Window / time.Duration(l.config.Limit)
		e = &entry{limiter: rate.NewLimiter(rate.Every(every), l.config.Limit)}
		l.entries[userID] = e
	}
	e.lastAccess = now
	return e.limiter
}

// Len returns the number of users currently tracked.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

func (l *Limiter) cleanup() {
	for {
		select {
		case <-l.cleanupTicker.C:
			l.cleanupIdle()
		case <-l.cleanupStop:
			return
		}
	}
}

// cleanupIdle forgets users not seen within IdleTTL.
func (l *Limiter) cleanupIdle() {
	cutoff := l.now().Add(-l.config.IdleTTL)

	l.mu.Lock()
	defer l.mu.Unlock()
	for id, e := range l.entries {
		if e.lastAccess.Before(cutoff) {
			delete(l.entries, id)
		}
	}
}

// Stop stops the cleanup goroutine.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() {
		if l.cleanupTicker != nil {
			l.cleanupTicker.Stop()
		}
		if l.cleanupStop != nil {
			close(l.cleanupStop)
		}
	})
}
