package auth

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
)

// RateLimiter throttles staff login attempts per IP and login name using a
// fixed window that starts at the first failure.
type RateLimiter struct {
	mu              sync.RWMutex
	attempts        map[string]*attemptRecord
	maxAttempts     int
	windowDuration  time.Duration
	lockoutDuration time.Duration
	clock           clockwork.Clock
	stop            chan struct{}
	done            chan struct{}
	stopOnce        sync.Once
}

type attemptRecord struct {
	count        int
	firstAttempt time.Time
	lockedUntil  time.Time
}

// RateLimitConfig contains configuration for the rate limiter.
type RateLimitConfig struct {
	MaxAttempts     int           // default 5
	WindowDuration  time.Duration // default 15m
	LockoutDuration time.Duration // default 30m
	CleanupInterval time.Duration // default 5m
	Clock           clockwork.Clock
}

// NewRateLimiter creates a rate limiter and starts its cleanup goroutine.
// Call Stop to release it.
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
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}

	rl := &RateLimiter{
		attempts:        make(map[string]*attemptRecord),
		maxAttempts:     cfg.MaxAttempts,
		windowDuration:  cfg.WindowDuration,
		lockoutDuration: cfg.LockoutDuration,
		clock:           cfg.Clock,
		stop:            make(chan struct{}),
		done:            make(chan struct{}),
	}

	go rl.cleanupLoop(cfg.CleanupInterval)

	return rl
}

// Stop ends the cleanup goroutine and waits for it to exit. Safe to call twice.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
	<-rl.done
}

func makeKey(ip, login string) string {
	return ip + ":" + strings.ToLower(login)
}

// Allow reports whether a login attempt may proceed, and if not, for how long to wait.
func (rl *RateLimiter) Allow(ip, login string) (bool, time.Duration) {
	now := rl.clock.Now()

	rl.mu.RLock()
	defer rl.mu.RUnlock()

	record, exists := rl.attempts[makeKey(ip, login)]
	if !exists {
		return true, 0
	}
	if !record.lockedUntil.IsZero() && now.Before(record.lockedUntil) {
		return false, record.lockedUntil.Sub(now)
	}
	if now.Sub(record.firstAttempt) > rl.windowDuration {
		return true, 0
	}
	if record.count < rl.maxAttempts {
		return true, 0
	}
	return false, rl.lockoutDuration
}

// RecordFailure records a failed login attempt and reports whether it triggered a lockout.
func (rl *RateLimiter) RecordFailure(ip, login string) (bool, time.Duration) {
	key := makeKey(ip, login)
	now := rl.clock.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	record, exists := rl.attempts[key]
	if !exists {
		record = &attemptRecord{firstAttempt: now}
		rl.attempts[key] = record
	}

	if now.Sub(record.firstAttempt) > rl.windowDuration {
		record.count = 0
		record.firstAttempt = now
		record.lockedUntil = time.Time{}
	}

	record.count++
	if record.count >= rl.maxAttempts {
		record.lockedUntil = now.Add(rl.lockoutDuration)
		return true, rl.lockoutDuration
	}
	return false, 0
}

// RecordSuccess clears the failure record for a successful login.
func (rl *RateLimiter) RecordSuccess(ip, login string) {
	rl.mu.Lock()
	delete(rl.attempts, makeKey(ip, login))
	rl.mu.Unlock()
}

func (rl *RateLimiter) cleanupLoop(interval time.Duration) {
	defer close(rl.done)

	ticker := rl.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.Chan():
			rl.cleanup()
		case <-rl.stop:
			return
		}
	}
}

// cleanup drops records whose window and lockout have both passed.
func (rl *RateLimiter) cleanup() {
	now := rl.clock.Now()
	expiry := rl.windowDuration + rl.lockoutDuration

	rl.mu.Lock()
	defer rl.mu.Unlock()

	for key, record := range rl.attempts {
		windowExpired := now.Sub(record.firstAttempt) > expiry
		lockoutExpired := record.lockedUntil.IsZero() || now.After(record.lockedUntil)
		if windowExpired && lockoutExpired {
			delete(rl.attempts, key)
		}
	}
}

func (rl *RateLimiter) size() int {
	rl.mu.RLock()
	defer rl.mu.RUnlock()
	return len(rl.attempts)
}

// Middleware rejects login POSTs from a throttled IP and login pair.
func (rl *RateLimiter) Middleware(loginField string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost {
			c.Next()
			return
		}

		login := c.PostForm(loginField)
		if login == "" {
			c.Next()
			return
		}

		if allowed, retryAfter := rl.Allow(c.ClientIP(), login); !allowed {
			c.Header("Retry-After", retryAfter.Round(time.Second).String())
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "too many login attempts",
				"retry_after": retryAfter.Round(time.Second).String(),
			})
			return
		}

		c.Next()
	}
}
