package util

import "time"

// Clock is the single source of "now" for every past/future comparison.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}
