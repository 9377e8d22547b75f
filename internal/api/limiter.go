package api

// limiter.go bounds the number of backend requests in flight.
//
// Requests take a slot from a channel semaphore. When all slots are busy a
// request waits up to maxWait and then fails with ErrBackendBusy instead of
// piling onto an already slow backend. WaitForDrain lets shutdown wait for
// in-flight requests.

import (
	"context"
	"errors"
	"sync/atomic"
	"time"
)

// ErrBackendBusy is returned when no request slot frees up within the wait time.
var ErrBackendBusy = errors.New("backend unavailable: too many requests in flight")

// Defaults applied when a limiter is built with non-positive values.
const (
	DefaultMaxConcurrent = 8
	DefaultMaxWait       = 10 * time.Second
)

// RequestLimiter is a semaphore over backend requests.
type RequestLimiter struct {
	slots   chan struct{}
	maxWait time.Duration
	active  atomic.Int64
}

// NewRequestLimiter allows at most maxConcurrent requests at once.
func NewRequestLimiter(maxConcurrent int, maxWait time.Duration) *RequestLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrent
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWait
	}
	return &RequestLimiter{
		slots:   make(chan struct{}, maxConcurrent),
		maxWait: maxWait,
	}
}

// Acquire takes a slot, waiting at most maxWait. The caller must Release.
func (l *RequestLimiter) Acquire(ctx context.Context) error {
	timer := time.NewTimer(l.maxWait)
	defer timer.Stop()

	select {
	case l.slots <- struct{}{}:
		l.active.Add(1)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return ErrBackendBusy
	}
}

// TryAcquire takes a slot only if one is free right now.
func (l *RequestLimiter) TryAcquire() bool {
	select {
	case l.slots <- struct{}{}:
		l.active.Add(1)
		return true
	default:
		return false
	}
}

// Release returns a slot taken by Acquire or TryAcquire.
func (l *RequestLimiter) Release() {
	l.active.Add(-1)
	<-l.slots
}

// ActiveCount returns the number of requests holding a slot.
func (l *RequestLimiter) ActiveCount() int {
	return int(l.active.Load())
}

// Available returns the number of free slots.
func (l *RequestLimiter) Available() int {
	return cap(l.slots) - len(l.slots)
}

// WaitForDrain blocks until no request holds a slot or ctx ends.
func (l *RequestLimiter) WaitForDrain(ctx context.Context) error {
	if l.ActiveCount() == 0 {
		return nil
	}

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if l.ActiveCount() == 0 {
				return nil
			}
		}
	}
}

// LimiterStatus is a monitoring snapshot.
type LimiterStatus struct {
	Active        int `json:"active"`
	Available     int `json:"available"`
	MaxConcurrent int `json:"max_concurrent"`
}

// Status reports the limiter's current occupancy.
func (l *RequestLimiter) Status() LimiterStatus {
	return LimiterStatus{
		Active:        l.ActiveCount(),
		Available:     l.Available(),
		MaxConcurrent: cap(l.slots),
	}
}
