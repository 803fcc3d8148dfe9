package clock

import "time"

// Clock is the time source behind room timestamps, kept behind an
// interface so game flow can be tested against a frozen clock.
type Clock interface {
	Now() time.Time
}

// RealClock reads the system clock
type RealClock struct{}

// New returns the production clock
func New() *RealClock {
	return &RealClock{}
}

func (c *RealClock) Now() time.Time {
	return time.Now()
}
