package dtm

import (
	"time"
)

// PacketInterval is the DTM packet spacing defined by the link layer.
const PacketInterval = 625 * time.Microsecond

// DefaultFudgeFactor is the empirically observed number of packet intervals
// lost to command round trips between taking the start and stop timestamps.
const DefaultFudgeFactor = 11

// TimingSample brackets a transmitter test. Start is taken after the
// transmitter test command completes and Stop after test end completes.
type TimingSample struct {
	Start time.Time
	Stop  time.Time
}

func (s TimingSample) Elapsed() time.Duration {
	return s.Stop.Sub(s.Start)
}

// Estimator derives the number of packets a transmitter sent, since the
// device only reports a count on the receive side. The result is an
// estimate: host timer jitter and transport latency are not modeled.
type Estimator struct {
	Interval    time.Duration
	FudgeFactor float64
}

func NewEstimator() Estimator {
	return Estimator{Interval: PacketInterval, FudgeFactor: DefaultFudgeFactor}
}

func (e Estimator) Estimate(s TimingSample) float64 {
	return e.EstimateElapsed(s.Elapsed())
}

func (e Estimator) EstimateElapsed(elapsed time.Duration) float64 {
	interval := e.Interval
	if interval <= 0 {
		interval = PacketInterval
	}
	return float64(elapsed)/float64(interval) - e.FudgeFactor
}

// PacketErrorRate is 1 - received/sent. ok is false when sent is not positive.
func PacketErrorRate(received uint64, sent float64) (per float64, ok bool) {
	if sent <= 0 {
		return 0, false
	}
	return 1 - float64(received)/sent, true
}
