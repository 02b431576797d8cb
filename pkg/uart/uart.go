// Package uart opens the UART an HCI controller is attached to.
package uart

import (
	"fmt"
	"time"

	"go.bug.st/serial"
	"go.uber.org/zap"
)

const (
	DefaultBaudRate    = 115200
	DefaultReadTimeout = time.Second
)

type Config struct {
	Path        string
	BaudRate    int
	ReadTimeout time.Duration
}

// rawPort is the subset of serial.Port used here.
type rawPort interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Close() error
}

// Port is an 8N1 serial port whose Read blocks until the buffer is full or
// the read timeout passes without data.
type Port struct {
	path string
	port rawPort
}

func Open(cfg Config) (*Port, error) {
	if cfg.BaudRate == 0 {
		cfg.BaudRate = DefaultBaudRate
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = DefaultReadTimeout
	}
	p, err := serial.Open(cfg.Path, &serial.Mode{
		BaudRate: cfg.BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Path, err)
	}
	if err := p.SetReadTimeout(cfg.ReadTimeout); err != nil {
		p.Close()
		return nil, fmt.Errorf("set read timeout on %s: %w", cfg.Path, err)
	}
	// discard anything the controller sent before we were listening.
	if err := p.ResetInputBuffer(); err != nil {
		p.Close()
		return nil, fmt.Errorf("reset input buffer on %s: %w", cfg.Path, err)
	}
	zap.L().Debug("serial open", zap.String("path", cfg.Path), zap.Int("baud", cfg.BaudRate), zap.Duration("timeout", cfg.ReadTimeout))
	return &Port{path: cfg.Path, port: p}, nil
}

// Read fills p. A read that times out ends the call with the bytes gathered
// so far and no error.
func (p *Port) Read(buf []byte) (int, error) {
	n := 0
	for n < len(buf) {
		m, err := p.port.Read(buf[n:])
		n += m
		if err != nil {
			return n, err
		}
		if m == 0 {
			break
		}
	}
	return n, nil
}

func (p *Port) Write(buf []byte) (int, error) {
	return p.port.Write(buf)
}

func (p *Port) Close() error {
	zap.L().Debug("serial close", zap.String("path", p.path))
	return p.port.Close()
}

func (p *Port) String() string {
	return p.path
}
