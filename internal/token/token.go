// Package token provides the cooperative stop flag shared between a
// supervisor and the single effect routine it runs.
package token

import (
	"context"
	"time"
)

// Step is the sleep granularity effect loops are written against. Sleep
// itself wakes as soon as the token is set, so the stop latency is below it.
const Step = 10 * time.Millisecond

// Token is set once and never resets. A fresh Token is created per
// activation.
type Token struct {
	ctx    context.Context
	cancel context.CancelFunc
}

func New() *Token {
	ctx, cancel := context.WithCancel(context.Background())
	return &Token{ctx: ctx, cancel: cancel}
}

// Set signals a cooperative stop. Safe to call repeatedly and concurrently.
func (t *Token) Set() { t.cancel() }

func (t *Token) IsSet() bool { return t.ctx.Err() != nil }

// Done is closed once the token is set.
func (t *Token) Done() <-chan struct{} { return t.ctx.Done() }

// Context is cancelled once the token is set, for blocking link reads.
func (t *Token) Context() context.Context { return t.ctx }

// Sleep waits for d or until the token is set. It reports whether the full
// duration elapsed without a stop request.
func (t *Token) Sleep(d time.Duration) bool {
	if t.IsSet() {
		return false
	}
	if d <= 0 {
		return true
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return !t.IsSet()
	case <-t.ctx.Done():
		return false
	}
}
