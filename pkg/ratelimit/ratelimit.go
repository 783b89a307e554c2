// Package ratelimit bounds how often each tool may be called.
package ratelimit

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/time/rate"
)

// RateLimiter keeps one token bucket per tool, created on first use.
type RateLimiter struct {
	limit rate.Limit
	burst int

	mu       sync.RWMutex
	limiters map[string]*rate.Limiter
}

// New returns a limiter allowing rps calls per second per tool with the
// given burst. rps <= 0 disables limiting.
func New(rps float64, burst int) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		limit:    rate.Limit(rps),
		burst:    burst,
		limiters: make(map[string]*rate.Limiter),
	}
}

// Enabled reports whether calls are limited at all.
func (rl *RateLimiter) Enabled() bool {
	return rl != nil && rl.limit > 0
}

func (rl *RateLimiter) limiter(tool string) *rate.Limiter {
	rl.mu.RLock()
	l, ok := rl.limiters[tool]
	rl.mu.RUnlock()
	if ok {
		return l
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if l, ok := rl.limiters[tool]; ok {
		return l
	}
	l = rate.NewLimiter(rl.limit, rl.burst)
	rl.limiters[tool] = l
	return l
}

// Wait blocks until the bucket for tool allows a call or the context is
// canceled.
func (rl *RateLimiter) Wait(ctx context.Context, tool string) error {
	if !rl.Enabled() {
		return nil
	}
	if err := rl.limiter(tool).Wait(ctx); err != nil {
		slog.Debug("rate limiter wait error", "tool", tool, "error", err)
		return err
	}
	return nil
}
