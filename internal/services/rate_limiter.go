package services

import (
	"fmt"
	"sync"
	"time"
)

// AlertRateLimiter caps how many alerts each recipient receives inside a
// rolling window, so a flapping projection source cannot burn through an SMS
// budget overnight.
type AlertRateLimiter struct {
	mu          sync.RWMutex
	sends       map[string][]time.Time
	maxRequests int
	window      time.Duration
}

// NewAlertRateLimiter creates a limiter allowing maxRequests sends per
// recipient per window.
func NewAlertRateLimiter(maxRequests int, window time.Duration) *AlertRateLimiter {
	return &AlertRateLimiter{
		sends:       make(map[string][]time.Time),
		maxRequests: maxRequests,
		window:      window,
	}
}

// Allow records a send for the recipient, or reports that the budget for the
// current window is spent.
func (rl *AlertRateLimiter) Allow(recipient string) error {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	rl.dropExpired(recipient, now)

	if len(rl.sends[recipient]) >= rl.maxRequests {
		return fmt.Errorf("alert limit reached: maximum %d per %v", rl.maxRequests, rl.window)
	}

	rl.sends[recipient] = append(rl.sends[recipient], now)
	return nil
}

// dropExpired removes sends outside the window. Caller holds the lock.
func (rl *AlertRateLimiter) dropExpired(recipient string, now time.Time) {
	sends, exists := rl.sends[recipient]
	if !exists {
		return
	}

	cutoff := now.Add(-rl.window)
	valid := sends[:0]
	for _, sent := range sends {
		if sent.After(cutoff) {
			valid = append(valid, sent)
		}
	}

	if len(valid) == 0 {
		delete(rl.sends, recipient)
	} else {
		rl.sends[recipient] = valid
	}
}

// Remaining reports how many sends the recipient has left in the window.
func (rl *AlertRateLimiter) Remaining(recipient string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.dropExpired(recipient, time.Now())
	left := rl.maxRequests - len(rl.sends[recipient])
	if left < 0 {
		return 0
	}
	return left
}

// Reset clears all recorded sends.
func (rl *AlertRateLimiter) Reset() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.sends = make(map[string][]time.Time)
}
