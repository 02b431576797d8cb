package dtm

import (
	"fmt"
	"time"

	"github.com/muxable/dtm/pkg/hci"
	"go.uber.org/zap"
)

// PowerProfileConfig drives one device through the RX and TX modes listed in
// the datasheet current consumption table. Each mode is held for Duration so
// the supply current can be read.
type PowerProfileConfig struct {
	Session    Session
	Duration   time.Duration
	TXPower    hci.TXPowerLevel
	TXGain     uint8
	Continuous bool
	// RegisterAddress selects the register whose low byte is replaced with
	// RegisterLowByte before the receiver tests, e.g. the LNA bias. Zero
	// skips the write.
	RegisterAddress uint32
	RegisterLowByte uint8
	DeepSleep       bool
	Clock           Clock
}

type PowerProfileResult struct {
	// Version and HWID are only meaningful when VersionValid and HWIDValid
	// are set; a short response leaves them missing.
	Version       uint32
	VersionValid  bool
	HWID          uint32
	HWIDValid     bool
	RegisterValue uint32
	RegisterWrite uint32
	// ReceivedPackets holds the test end count of each receiver phase.
	ReceivedPackets map[string]uint64
	Steps           []Step
}

func RunPowerProfile(d *Device, cfg PowerProfileConfig) (*PowerProfileResult, error) {
	if err := cfg.Session.Validate(); err != nil {
		return nil, err
	}
	if cfg.Clock == nil {
		cfg.Clock = SystemClock{}
	}
	r := &PowerProfileResult{ReceivedPackets: make(map[string]uint64)}
	record := func(name string, e *Exchange, err error) error {
		if e != nil {
			r.Steps = append(r.Steps, Step{Name: name, Exchange: e})
		}
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		return nil
	}
	hold := func(mode string) {
		zap.L().Info("holding mode, measure current now",
			zap.String("device", d.Name), zap.String("mode", mode),
			zap.Uint8("channel", cfg.Session.Channel), zap.Duration("duration", cfg.Duration))
		cfg.Clock.Sleep(cfg.Duration)
	}
	// end stops the running test. Only receiver phases report a count.
	end := func(name string, receiver bool) error {
		res, err := d.TestEnd()
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		r.Steps = append(r.Steps, Step{Name: name, Exchange: res.Exchange})
		if receiver && res.Valid {
			r.ReceivedPackets[name] = res.PacketCount
		}
		return nil
	}

	var err error
	var e *Exchange

	// Identification responses that are too short are logged and skipped.
	r.Version, e, err = d.ReadVersion()
	if err := record("get version", e, err); err != nil {
		if e == nil {
			return r, err
		}
		zap.L().Warn("firmware version missing", zap.String("device", d.Name), zap.Error(err))
	} else {
		r.VersionValid = true
		zap.L().Info("firmware", zap.String("device", d.Name), zap.String("version", fmt.Sprintf("%08x", r.Version)))
	}
	r.HWID, e, err = d.ReadHWID()
	if err := record("get hw id", e, err); err != nil {
		if e == nil {
			return r, err
		}
		zap.L().Warn("hw id missing", zap.String("device", d.Name), zap.Error(err))
	} else {
		r.HWIDValid = true
		zap.L().Info("hardware", zap.String("device", d.Name), zap.String("hw_id", fmt.Sprintf("%08x", r.HWID)))
	}

	if cfg.RegisterAddress != 0 {
		r.RegisterValue, e, err = d.ReadRegister(cfg.RegisterAddress)
		if err := record("read register", e, err); err != nil {
			return r, err
		}
		r.RegisterWrite = r.RegisterValue&^0xFF | uint32(cfg.RegisterLowByte)
		zap.L().Info("register", zap.String("address", fmt.Sprintf("0x%08x", cfg.RegisterAddress)),
			zap.String("value", fmt.Sprintf("0x%08x", r.RegisterValue)), zap.String("write", fmt.Sprintf("0x%08x", r.RegisterWrite)))
		e, err = d.WriteRegister(cfg.RegisterAddress, r.RegisterWrite)
		if err := record("write register", e, err); err != nil {
			return r, err
		}
	}

	e, err = d.ReceiverTest(cfg.Session)
	if err := record("receiver test", e, err); err != nil {
		return r, err
	}
	hold("rx 1M")
	if err := end("receiver test end", true); err != nil {
		return r, err
	}

	e, err = d.EnhancedReceiverTest(cfg.Session)
	if err := record("enhanced receiver test", e, err); err != nil {
		return r, err
	}
	hold("rx " + cfg.Session.rxPHY().String())
	if err := end("enhanced receiver test end", true); err != nil {
		return r, err
	}

	e, err = d.SetTXPower(cfg.TXPower)
	if err := record("set tx power", e, err); err != nil {
		return r, err
	}
	e, err = d.VendorTransmitterTest(cfg.Session, cfg.Continuous, cfg.TXGain)
	if err := record("vendor transmitter test", e, err); err != nil {
		return r, err
	}
	hold("tx " + cfg.Session.phy().String())
	if err := end("vendor transmitter test end", false); err != nil {
		return r, err
	}

	e, err = d.CarrierTX(cfg.Session.Channel, cfg.TXGain)
	if err := record("carrier tx", e, err); err != nil {
		return r, err
	}
	hold("carrier")
	if err := end("carrier tx end", false); err != nil {
		return r, err
	}

	if cfg.DeepSleep {
		e, err = d.EnterDeepSleep()
		if err := record("enter deep sleep", e, err); err != nil {
			return r, err
		}
	}
	return r, nil
}
