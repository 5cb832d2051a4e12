package snowflake

import "time"

// Clock reports the current wall-clock time in Unix milliseconds.
type Clock interface {
	NowMillis() int64
}

// ClockFunc adapts a function to the Clock interface
type ClockFunc func() int64

// NowMillis implements Clock
func (f ClockFunc) NowMillis() int64 {
	return f()
}

type systemClock struct{}

func (systemClock) NowMillis() int64 {
	return time.Now().UnixMilli()
}

// SystemClock reads time.Now
var SystemClock Clock = systemClock{}
