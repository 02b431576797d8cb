// Package bench holds the setup shared by the DTM programs: loading config,
// building the logger and opening the controllers.
package bench

import (
	"fmt"
	"io"

	"github.com/muxable/dtm/internal/config"
	"github.com/muxable/dtm/internal/logging"
	"github.com/muxable/dtm/internal/metrics"
	"github.com/muxable/dtm/internal/report"
	"github.com/muxable/dtm/pkg/dtm"
	"github.com/muxable/dtm/pkg/hci"
	"github.com/muxable/dtm/pkg/uart"
	"go.uber.org/zap"
)

// Bench is one program run.
type Bench struct {
	Config  *config.Config
	Logger  *zap.Logger
	Metrics *metrics.Metrics
	Report  *report.Report
	Session dtm.Session

	layouts hci.Layouts
	clock   dtm.Clock
	closers []io.Closer
	undo    func()
}

type openFunc func(config.PortConfig) (io.ReadWriteCloser, error)

// Setup parses args, loads the configuration and installs the global logger.
func Setup(program string, args []string) (*Bench, error) {
	fs := config.Flags(program)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	cfg, err := config.Load("", fs)
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, err
	}
	b, err := newBench(program, cfg)
	if err != nil {
		return nil, err
	}
	b.Logger = logger.With(zap.String("program", program), zap.String("run_id", b.Report.RunID))
	b.undo = zap.ReplaceGlobals(b.Logger)
	return b, nil
}

func newBench(program string, cfg *config.Config) (*Bench, error) {
	s, err := cfg.Session()
	if err != nil {
		return nil, err
	}
	layouts, err := cfg.Layouts()
	if err != nil {
		return nil, err
	}
	return &Bench{
		Config:  cfg,
		Logger:  zap.NewNop(),
		Metrics: metrics.New(),
		Report:  report.New(program, s),
		Session: s,
		layouts: layouts,
		undo:    func() {},
	}, nil
}

// Device opens the controller described by p.
func (b *Bench) Device(p config.PortConfig) (*dtm.Device, error) {
	return b.device(p, openPort)
}

func (b *Bench) device(p config.PortConfig, open openFunc) (*dtm.Device, error) {
	rw, err := open(p)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", p.Name, err)
	}
	b.closers = append(b.closers, rw)
	t := dtm.NewTransactor(rw, b.transactorConfig())
	d := dtm.NewDevice(p.Name, t, b.layouts)
	d.Observer = b.Metrics
	zap.L().Info("device open", zap.String("device", p.Name), zap.String("transport", p.Transport), zap.String("path", p.Path))
	return d, nil
}

// transactorConfig maps a configured zero delay to no delay rather than the
// transactor default.
func (b *Bench) transactorConfig() dtm.TransactorConfig {
	delay := b.Config.Transactor.SettleDelay
	if delay == 0 {
		delay = dtm.NoSettleDelay
	}
	return dtm.TransactorConfig{SettleDelay: delay, Clock: b.clock}
}

func openPort(p config.PortConfig) (io.ReadWriteCloser, error) {
	switch p.Transport {
	case config.TransportHCI:
		return hci.NewSocket(p.Device, p.ReadTimeout)
	case config.TransportSerial:
		if p.Path == "" {
			return nil, fmt.Errorf("%s.path is not set", p.Name)
		}
		return uart.Open(uart.Config{Path: p.Path, BaudRate: p.Baud, ReadTimeout: p.ReadTimeout})
	}
	return nil, fmt.Errorf("unknown transport %q", p.Transport)
}

// Run calls fn and then Close on every exit path. A panic in fn is recorded
// in the report before it continues up the stack.
func (b *Bench) Run(fn func() error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			_ = b.Close(fmt.Errorf("panic: %v", p))
			panic(p)
		}
		if cerr := b.Close(err); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn()
}

// Close finishes the report with runErr, writes the report and metrics files
// that are configured and releases the controllers. The first error wins.
func (b *Bench) Close(runErr error) error {
	var err error
	keep := func(e error) {
		if e != nil && err == nil {
			err = e
		}
	}
	for i := len(b.closers) - 1; i >= 0; i-- {
		keep(b.closers[i].Close())
	}
	b.closers = nil

	b.Report.Finish(runErr)
	if path := b.Config.Report.Path; path != "" {
		keep(b.Report.Write(path))
		zap.L().Info("report written", zap.String("path", path))
	}
	if path := b.Config.Metrics.Textfile; path != "" {
		keep(b.Metrics.WriteTextfile(path))
		zap.L().Info("metrics written", zap.String("path", path))
	}
	_ = b.Logger.Sync()
	b.undo()
	return err
}
