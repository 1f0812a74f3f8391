// Package clock lets services read time through an injectable source.
package clock

import (
	"sync"
	"time"
)

type Clock interface {
	Now() time.Time
}

// Func adapts a plain function to Clock.
type Func func() time.Time

func (f Func) Now() time.Time { return f() }

// NewSystem returns a UTC wall clock.
func NewSystem() Clock {
	return Func(func() time.Time { return time.Now().UTC() })
}

// NewFixed always reports t. Durations measured with it are zero.
func NewFixed(t time.Time) Clock {
	t = t.UTC()
	return Func(func() time.Time { return t })
}

// Stepping starts at a fixed instant and moves forward by step on every read,
// so elapsed times measured in tests are predictable and non-zero.
type Stepping struct {
	mu   sync.Mutex
	next time.Time
	step time.Duration
}

func NewStepping(start time.Time, step time.Duration) *Stepping {
	return &Stepping{next: start.UTC(), step: step}
}

func (s *Stepping) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.next
	s.next = s.next.Add(s.step)
	return now
}

// Since is time.Since for an injected clock.
func Since(c Clock, start time.Time) time.Duration {
	return c.Now().Sub(start)
}
