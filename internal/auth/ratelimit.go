package auth

import (
	"sync"
	"time"
)

// RateLimiter throttles login attempts per (client IP, username) pair with
// a sliding window and a lockout once the window's budget is spent.
type RateLimiter struct {
	mu       sync.RWMutex
	failures map[string]*failureWindow

	maxAttempts     int
	window          time.Duration
	lockout         time.Duration
	cleanupInterval time.Duration
	done            chan struct{}
}

type failureWindow struct {
	count       int
	openedAt    time.Time
	lockedUntil time.Time
}

// RateLimitConfig tunes the login limiter. Zero values fall back to
// 5 attempts per 15 minutes with a 30 minute lockout.
type RateLimitConfig struct {
	MaxAttempts     int
	WindowDuration  time.Duration
	LockoutDuration time.Duration
	CleanupInterval time.Duration
}

// NewRateLimiter builds a limiter and starts its cleanup goroutine.
// Callers must Stop it when done.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.WindowDuration <= 0 {
		cfg.WindowDuration = 15 * time.Minute
	}
	if cfg.LockoutDuration <= 0 {
		cfg.LockoutDuration = 30 * time.Minute
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = 5 * time.Minute
	}

	rl := &RateLimiter{
		failures:        make(map[string]*failureWindow),
		maxAttempts:     cfg.MaxAttempts,
		window:          cfg.WindowDuration,
		lockout:         cfg.LockoutDuration,
		cleanupInterval: cfg.CleanupInterval,
		done:            make(chan struct{}),
	}
	go rl.reapLoop()
	return rl
}

// Stop terminates the cleanup goroutine.
func (rl *RateLimiter) Stop() {
	close(rl.done)
}

func limiterKey(ip, username string) string {
	return ip + ":" + username
}

// Allow reports whether a login attempt may proceed. When denied, the
// returned duration is how long until the lockout lifts.
func (rl *RateLimiter) Allow(ip, username string) (bool, time.Duration) {
	now := time.Now()

	rl.mu.RLock()
	fw, ok := rl.failures[limiterKey(ip, username)]
	rl.mu.RUnlock()

	if !ok {
		return true, 0
	}
	if !fw.lockedUntil.IsZero() && now.Before(fw.lockedUntil) {
		return false, fw.lockedUntil.Sub(now)
	}
	if now.Sub(fw.openedAt) > rl.window {
		return true, 0
	}
	if fw.count < rl.maxAttempts {
		return true, 0
	}
	return false, rl.lockout
}

// RecordFailure counts a failed attempt and reports whether it tripped
// the lockout.
func (rl *RateLimiter) RecordFailure(ip, username string) (bool, time.Duration) {
	key := limiterKey(ip, username)
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	fw, ok := rl.failures[key]
	if !ok {
		fw = &failureWindow{openedAt: now}
		rl.failures[key] = fw
	}

	if now.Sub(fw.openedAt) > rl.window {
		fw.count = 0
		fw.openedAt = now
		fw.lockedUntil = time.Time{}
	}

	fw.count++
	if fw.count >= rl.maxAttempts {
		fw.lockedUntil = now.Add(rl.lockout)
		return true, rl.lockout
	}
	return false, 0
}

// RecordSuccess wipes the failure window after a successful login.
func (rl *RateLimiter) RecordSuccess(ip, username string) {
	rl.mu.Lock()
	delete(rl.failures, limiterKey(ip, username))
	rl.mu.Unlock()
}

func (rl *RateLimiter) reapLoop() {
	ticker := time.NewTicker(rl.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.reap()
		case <-rl.done:
			return
		}
	}
}

// reap drops windows whose window and lockout have both lapsed.
func (rl *RateLimiter) reap() {
	now := time.Now()
	maxAge := rl.window + rl.lockout

	rl.mu.Lock()
	defer rl.mu.Unlock()

	for key, fw := range rl.failures {
		stale := now.Sub(fw.openedAt) > maxAge
		unlocked := fw.lockedUntil.IsZero() || now.After(fw.lockedUntil)
		if stale && unlocked {
			delete(rl.failures, key)
		}
	}
}
