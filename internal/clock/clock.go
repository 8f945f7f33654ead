package clock

import "time"

// Clock abstracts time operations for testability.
type Clock interface {
	Now() time.Time
	// After returns a channel that delivers once d has elapsed.
	After(d time.Duration) <-chan time.Time
}

// Real is a Clock backed by the system clock.
type Real struct{}

// Now returns the current time.
func (Real) Now() time.Time { return time.Now() }

// After waits for d on the system clock.
func (Real) After(d time.Duration) <-chan time.Time { return time.After(d) }

// Mock is a Clock that always returns a fixed time. After returns AfterC
// when set, otherwise a channel that fires immediately.
type Mock struct {
	T      time.Time
	AfterC <-chan time.Time
}

// Now returns the fixed time.
func (m Mock) Now() time.Time { return m.T }

// After returns the configured channel, or an immediately-ready one.
func (m Mock) After(time.Duration) <-chan time.Time {
	if m.AfterC != nil {
		return m.AfterC
	}
	ch := make(chan time.Time, 1)
	ch <- m.T
	return ch
}
