package dtm

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Step names a completed exchange within a sequence.
type Step struct {
	Name string
	*Exchange
}

type PERConfig struct {
	Session Session
	// Duration is how long the transmitter runs. 1500 packets take 937.5ms;
	// a shorter hold compensates for the command round trips.
	Duration  time.Duration
	Estimator Estimator
	Clock     Clock
}

type PERResult struct {
	Session       Session
	Sample        TimingSample
	EstimatedSent float64
	// Received is only meaningful when ReceivedValid is set.
	Received      uint64
	ReceivedValid bool
	Steps         []Step
}

func (r *PERResult) PacketErrorRate() (float64, bool) {
	if !r.ReceivedValid {
		return 0, false
	}
	return PacketErrorRate(r.Received, r.EstimatedSent)
}

// RunPER runs a transmitter test on tx against a receiver test on rx and
// compares the received count with the estimated number of packets sent.
func RunPER(tx, rx *Device, cfg PERConfig) (*PERResult, error) {
	if err := cfg.Session.Validate(); err != nil {
		return nil, err
	}
	if cfg.Clock == nil {
		cfg.Clock = SystemClock{}
	}
	r := &PERResult{Session: cfg.Session}
	record := func(name string, e *Exchange, err error) error {
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		r.Steps = append(r.Steps, Step{Name: name, Exchange: e})
		return nil
	}

	e, err := rx.Reset()
	if err := record("rx reset", e, err); err != nil {
		return r, err
	}
	e, err = tx.Reset()
	if err := record("tx reset", e, err); err != nil {
		return r, err
	}

	zap.L().Info("starting receiver", zap.String("device", rx.Name), zap.Uint8("channel", cfg.Session.Channel))
	e, err = rx.ReceiverTest(cfg.Session)
	if err := record("rx receiver test", e, err); err != nil {
		return r, err
	}

	zap.L().Info("starting transmitter", zap.String("device", tx.Name), zap.Duration("duration", cfg.Duration))
	e, err = tx.TransmitterTest(cfg.Session)
	if err := record("tx transmitter test", e, err); err != nil {
		return r, err
	}
	r.Sample.Start = cfg.Clock.Now()

	cfg.Clock.Sleep(cfg.Duration)

	txEnd, err := tx.TestEnd()
	if err != nil {
		return r, fmt.Errorf("tx test end: %w", err)
	}
	r.Sample.Stop = cfg.Clock.Now()
	r.Steps = append(r.Steps, Step{Name: "tx test end", Exchange: txEnd.Exchange})
	r.EstimatedSent = cfg.Estimator.Estimate(r.Sample)

	rxEnd, err := rx.TestEnd()
	if err != nil {
		return r, fmt.Errorf("rx test end: %w", err)
	}
	r.Steps = append(r.Steps, Step{Name: "rx test end", Exchange: rxEnd.Exchange})
	r.Received = rxEnd.PacketCount
	r.ReceivedValid = rxEnd.Valid

	fields := []zap.Field{
		zap.Duration("elapsed", r.Sample.Elapsed()),
		zap.Float64("estimated_sent", r.EstimatedSent),
	}
	if r.ReceivedValid {
		fields = append(fields, zap.Uint64("received", r.Received))
		if per, ok := r.PacketErrorRate(); ok {
			fields = append(fields, zap.Float64("per", per))
		}
	} else {
		fields = append(fields, zap.Int("rx_end_bytes", len(rxEnd.Response)))
	}
	zap.L().Info("packet error rate", fields...)
	return r, nil
}
