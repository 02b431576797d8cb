// Command dtm-power steps one controller through its receive and transmit
// test modes, holding each so the supply current can be measured.
package main

import (
	"os"

	"github.com/muxable/dtm/internal/bench"
	"github.com/muxable/dtm/pkg/dtm"
	"github.com/muxable/dtm/pkg/hci"
	"go.uber.org/zap"
)

func main() {
	b, err := bench.Setup("dtm-power", os.Args[1:])
	if err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(2)
	}

	if err := b.Run(func() error { return run(b) }); err != nil {
		b.Logger.Error("power profile failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(b *bench.Bench) error {
	d, err := b.Device(b.Config.DUT)
	if err != nil {
		return err
	}
	t := b.Config.Test
	res, err := dtm.RunPowerProfile(d, dtm.PowerProfileConfig{
		Session:         b.Session,
		Duration:        t.Duration,
		TXPower:         hci.TXPowerLevel(t.TXPower),
		TXGain:          uint8(t.TXGain),
		Continuous:      t.Continuous,
		RegisterAddress: t.RegisterAddress,
		RegisterLowByte: uint8(t.RegisterLowByte),
		DeepSleep:       t.DeepSleep,
	})
	if res != nil {
		b.Report.SetPowerProfile(res)
		b.Metrics.ObservePowerProfile(res)
	}
	return err
}
