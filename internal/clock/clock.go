// Package clock abstracts wall-clock time and delayed callbacks so timer-driven
// code can run against a simulated clock in tests.
package clock

import "time"

// Timer is a handle to a callback armed with AfterFunc.
type Timer interface {
	// Stop prevents the callback from running. It reports whether the call
	// stopped the timer, false if the timer already fired or was stopped.
	Stop() bool
}

type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// Real is the Clock backed by package time.
type Real struct{}

func New() Real {
	return Real{}
}

func (Real) Now() time.Time {
	return time.Now()
}

func (Real) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
