package auth

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
)

// LoginLimiter rate limits login attempts per client IP
type LoginLimiter struct {
	mu       sync.Mutex
	attempts map[string]*attemptInfo

	maxAttempts int
	window      time.Duration
	blockTime   time.Duration
}

type attemptInfo struct {
	count     int
	firstTry  time.Time
	blockedAt time.Time
}

// NewLoginLimiter creates a login limiter allowing maxAttempts per
// window; exceeding it blocks the key for blockTime.
func NewLoginLimiter(maxAttempts int, window, blockTime time.Duration) *LoginLimiter {
	l := &LoginLimiter{
		attempts:    make(map[string]*attemptInfo),
		maxAttempts: maxAttempts,
		window:      window,
		blockTime:   blockTime,
	}
	go l.cleanup()
	return l
}

// DefaultLoginLimiter allows 5 attempts per 15 minutes, then blocks for
// 15 minutes.
func DefaultLoginLimiter() *LoginLimiter {
	return NewLoginLimiter(5, 15*time.Minute, 15*time.Minute)
}

// Allow reports whether the key may attempt a login now
func (l *LoginLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	info, exists := l.attempts[key]

	if !exists {
		l.attempts[key] = &attemptInfo{count: 1, firstTry: now}
		return true
	}

	if !info.blockedAt.IsZero() {
		if now.Sub(info.blockedAt) < l.blockTime {
			return false
		}
		// Block expired
		info.count = 1
		info.firstTry = now
		info.blockedAt = time.Time{}
		return true
	}

	if now.Sub(info.firstTry) > l.window {
		// Window expired
		info.count = 1
		info.firstTry = now
		return true
	}

	info.count++
	if info.count > l.maxAttempts {
		info.blockedAt = now
		return false
	}

	return true
}

// RecordSuccess resets the attempt count after a successful login
func (l *LoginLimiter) RecordSuccess(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.attempts, key)
}

// BlockedUntil returns when the block on key expires, or the zero time
// if the key is not blocked.
func (l *LoginLimiter) BlockedUntil(key string) time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()

	info, exists := l.attempts[key]
	if !exists || info.blockedAt.IsZero() {
		return time.Time{}
	}

	until := info.blockedAt.Add(l.blockTime)
	if time.Now().After(until) {
		return time.Time{}
	}
	return until
}

func (l *LoginLimiter) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	for range ticker.C {
		l.mu.Lock()
		now := time.Now()
		for key, info := range l.attempts {
			windowExpired := now.Sub(info.firstTry) > l.window
			blockExpired := info.blockedAt.IsZero() || now.Sub(info.blockedAt) > l.blockTime
			if windowExpired && blockExpired {
				delete(l.attempts, key)
			}
		}
		l.mu.Unlock()
	}
}

// Middleware returns an echo middleware that applies the limiter to the
// client IP.
func (l *LoginLimiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := c.RealIP()

			if !l.Allow(key) {
				blockedUntil := l.BlockedUntil(key)
				retryAfter := int(time.Until(blockedUntil).Seconds())
				if retryAfter < 1 {
					retryAfter = 1
				}

				c.Response().Header().Set("Retry-After", strconv.Itoa(retryAfter))
				return c.JSON(http.StatusTooManyRequests, map[string]interface{}{
					"error":       "Too many login attempts. Please try again later.",
					"retry_after": retryAfter,
				})
			}

			return next(c)
		}
	}
}
