package engine

import "time"

// Timer is a cancellable one-shot timer. Stop is safe to call after the
// timer has fired or been stopped already.
type Timer interface {
	Stop() bool
}

// Clock abstracts time so the engine can be driven by a fake clock in tests
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

// NewClock returns a Clock backed by the time package
func NewClock() Clock {
	return realClock{}
}

func (realClock) Now() time.Time {
	return time.Now()
}

func (realClock) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
