// Command dtm-per measures packet error rate between two controllers: one
// runs a transmitter test while the other counts what it receives.
package main

import (
	"os"

	"github.com/muxable/dtm/internal/bench"
	"github.com/muxable/dtm/pkg/dtm"
	"go.uber.org/zap"
)

func main() {
	b, err := bench.Setup("dtm-per", os.Args[1:])
	if err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(2)
	}

	if err := b.Run(func() error { return run(b) }); err != nil {
		b.Logger.Error("per run failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(b *bench.Bench) error {
	tx, err := b.Device(b.Config.TX)
	if err != nil {
		return err
	}
	rx, err := b.Device(b.Config.RX)
	if err != nil {
		return err
	}
	res, err := dtm.RunPER(tx, rx, dtm.PERConfig{
		Session:   b.Session,
		Duration:  b.Config.Test.Duration,
		Estimator: b.Config.PacketEstimator(),
	})
	if res != nil {
		b.Report.SetPER(res)
		b.Metrics.ObservePER(res)
	}
	return err
}
