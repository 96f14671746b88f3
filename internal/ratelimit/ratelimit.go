// Package ratelimit implements the sliding-window-with-cooldown limiter used
// across the portal: an advisory in-process limiter mirroring the browser
// behavior, and a persistent authoritative limiter backed by a Store.
package ratelimit

import (
	"sync"
	"time"
)

// Clock supplies the current time. Injected everywhere so tests can drive the
// window and cooldown deterministically.
type Clock func() time.Time

// Config tunes one rate-limited action.
type Config struct {
	MaxAttempts int
	Window      time.Duration
	Block       time.Duration
}

// DefaultConfig matches the portal-wide 5 attempts / 15 min / 30 min cooldown.
func DefaultConfig() Config {
	return Config{
		MaxAttempts: 5,
		Window:      15 * time.Minute,
		Block:       30 * time.Minute,
	}
}

// ContactFormConfig is the stricter limit for the contact form.
func ContactFormConfig() Config {
	return Config{
		MaxAttempts: 3,
		Window:      10 * time.Minute,
		Block:       30 * time.Minute,
	}
}

// Result is the outcome of a limiter check.
type Result struct {
	Allowed      bool
	Remaining    int
	BlockedUntil time.Time
	RetryAfter   time.Duration
}

type entry struct {
	count        int
	firstAttempt time.Time
	blockedUntil time.Time
}

// step advances one entry by a single attempt. An active block denies without
// incrementing; an elapsed block or expired window starts a fresh one.
func step(e *entry, now time.Time, cfg Config) Result {
	if !e.blockedUntil.IsZero() {
		if now.Before(e.blockedUntil) {
			return Result{
				BlockedUntil: e.blockedUntil,
				RetryAfter:   e.blockedUntil.Sub(now),
			}
		}
		*e = entry{}
	}

	if e.count > 0 && now.Sub(e.firstAttempt) < cfg.Window {
		if e.count >= cfg.MaxAttempts {
			e.blockedUntil = now.Add(cfg.Block)
			return Result{
				BlockedUntil: e.blockedUntil,
				RetryAfter:   cfg.Block,
			}
		}
		e.count++
		return Result{Allowed: true, Remaining: cfg.MaxAttempts - e.count}
	}

	*e = entry{count: 1, firstAttempt: now}
	return Result{Allowed: true, Remaining: cfg.MaxAttempts - 1}
}

// MemoryLimiter is the advisory in-process limiter. It mirrors the browser
// limiter the portal front end runs before making any network call: state is
// scoped to the limiter instance and lost with it, never authoritative.
type MemoryLimiter struct {
	mu      sync.Mutex
	entries map[string]*entry
	clock   Clock
}

// NewMemoryLimiter builds a limiter with its own state map. Pass nil to use
// the wall clock.
func NewMemoryLimiter(clock Clock) *MemoryLimiter {
	if clock == nil {
		clock = time.Now
	}
	return &MemoryLimiter{
		entries: make(map[string]*entry),
		clock:   clock,
	}
}

// Check records one attempt against the action key and reports whether it is
// allowed under cfg.
func (l *MemoryLimiter) Check(action string, cfg Config) Result {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[action]
	if !ok {
		e = &entry{}
		l.entries[action] = e
	}
	return step(e, l.clock(), cfg)
}

// Reset clears the state for an action, e.g. after a successful login.
func (l *MemoryLimiter) Reset(action string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.entries, action)
}
