// Package pacing spaces out requests to the source site.
package pacing

import (
	"context"
	"time"
)

// Pacer is consulted after every item and between categories.
type Pacer interface {
	// Pause blocks until the next request may be issued or ctx is done.
	Pause(ctx context.Context) error
}

// Clock abstracts the timer so tests need not sleep.
type Clock interface {
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// Fixed pauses for a constant delay.
type Fixed struct {
	Delay time.Duration
	Clock Clock
}

// NewFixed returns a Fixed pacer on the wall clock.
func NewFixed(d time.Duration) *Fixed {
	return &Fixed{Delay: d, Clock: realClock{}}
}

func (f *Fixed) Pause(ctx context.Context) error {
	if f.Delay <= 0 {
		return ctx.Err()
	}
	clock := f.Clock
	if clock == nil {
		clock = realClock{}
	}
	select {
	case <-clock.After(f.Delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// None never waits.
type None struct{}

func (None) Pause(ctx context.Context) error { return ctx.Err() }
