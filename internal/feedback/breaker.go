package feedback

import (
	"sync"
	"time"
)

type breakerState int

const (
	breakerClosed breakerState = iota
	breakerOpen
	breakerProbing
)

// Breaker stops calling the completion API after a run of consecutive failures
// and lets a single probe through once openFor has elapsed.
// A zero threshold disables it.
type Breaker struct {
	mu        sync.Mutex
	state     breakerState
	fails     int
	threshold int
	openFor   time.Duration
	retryAt   time.Time
	now       func() time.Time
}

func NewBreaker(threshold int, openFor time.Duration) *Breaker {
	if openFor <= 0 {
		openFor = 30 * time.Second
	}
	return &Breaker{threshold: threshold, openFor: openFor, now: time.Now}
}

// Allow reports whether a call may go out now. In the open state the first caller
// after retryAt becomes the probe; everyone else is refused until it reports back.
func (b *Breaker) Allow() bool {
	if b == nil || b.threshold <= 0 {
		return true
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case breakerOpen:
		if b.now().Before(b.retryAt) {
			return false
		}
		b.state = breakerProbing
		return true
	case breakerProbing:
		return false
	default:
		return true
	}
}

// Record feeds the outcome of an allowed call back into the breaker.
func (b *Breaker) Record(err error) {
	if b == nil || b.threshold <= 0 {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if err == nil {
		b.state = breakerClosed
		b.fails = 0
		return
	}

	b.fails++
	if b.state == breakerProbing || b.fails >= b.threshold {
		b.state = breakerOpen
		b.retryAt = b.now().Add(b.openFor)
	}
}
