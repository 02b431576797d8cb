package dtm

import "time"

// Clock is the source of time for settle delays, test holds and packet
// timing. Tests substitute a fake that records sleeps instead of blocking.
type Clock interface {
	Now() time.Time
	Sleep(time.Duration)
}

// SystemClock uses the wall clock. time.Now carries a monotonic reading, so
// TimingSample.Elapsed is not affected by wall clock steps.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

func (SystemClock) Sleep(d time.Duration) { time.Sleep(d) }
