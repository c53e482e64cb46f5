package events

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrCircuitOpen is returned while the breaker is shedding events.
var ErrCircuitOpen = errors.New("event publisher circuit open")

// Breaker stops calling a failing publisher for a cooldown after threshold
// consecutive failures, so a broker outage costs placements nothing but a
// dropped event. After the cooldown one call is let through; its outcome
// closes or re-opens the circuit.
type Breaker struct {
	next      Publisher
	threshold int
	cooldown  time.Duration
	now       func() time.Time

	mu        sync.Mutex
	failures  int
	openUntil time.Time
	open      bool
	probing   bool
}

func NewBreaker(next Publisher, threshold int, cooldown time.Duration) *Breaker {
	if threshold <= 0 {
		threshold = 5
	}
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	return &Breaker{
		next:      next,
		threshold: threshold,
		cooldown:  cooldown,
		now:       time.Now,
	}
}

func (b *Breaker) Publish(ctx context.Context, evts ...Event) error {
	if !b.allow() {
		return ErrCircuitOpen
	}
	err := b.next.Publish(ctx, evts...)
	b.record(err)
	return err
}

// IsOpen reports whether events are currently being shed.
func (b *Breaker) IsOpen() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.open
}

func (b *Breaker) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.open {
		return true
	}
	if b.probing || b.now().Before(b.openUntil) {
		return false
	}
	b.probing = true
	return true
}

func (b *Breaker) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.probing = false
	if err == nil {
		b.failures = 0
		b.open = false
		return
	}
	b.failures++
	if b.open || b.failures >= b.threshold {
		b.open = true
		b.openUntil = b.now().Add(b.cooldown)
	}
}
