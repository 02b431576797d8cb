package dtm

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/muxable/dtm/pkg/hci"
	"go.uber.org/zap"
)

// ErrTransport wraps I/O failures on the device link. These abort a run.
var ErrTransport = errors.New("transport error")

// DefaultSettleDelay is how long the controller is given to answer before the
// response is read.
const DefaultSettleDelay = 100 * time.Millisecond

// NoSettleDelay reads the response immediately after the write.
const NoSettleDelay time.Duration = -1

type TransactorConfig struct {
	// SettleDelay defaults to DefaultSettleDelay when zero. Any negative
	// value, such as NoSettleDelay, disables the delay.
	SettleDelay time.Duration
	Clock       Clock
}

// Transactor performs synchronous command/response exchanges. The transport
// must return what it has once its read timeout expires, like a serial port
// opened with a timeout.
type Transactor struct {
	rw          io.ReadWriter
	settleDelay time.Duration
	clock       Clock
}

func NewTransactor(rw io.ReadWriter, cfg TransactorConfig) *Transactor {
	switch {
	case cfg.SettleDelay == 0:
		cfg.SettleDelay = DefaultSettleDelay
	case cfg.SettleDelay < 0:
		cfg.SettleDelay = 0
	}
	if cfg.Clock == nil {
		cfg.Clock = SystemClock{}
	}
	return &Transactor{rw: rw, settleDelay: cfg.SettleDelay, clock: cfg.Clock}
}

// Transact writes cmd, waits for the settle delay and reads up to n bytes.
// A response shorter than n, including an empty one, is returned without
// error. The response content is not checked.
func (t *Transactor) Transact(cmd *hci.Command, n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: negative response length %d", hci.ErrInvalidParameter, n)
	}
	buf := cmd.Bytes()
	zap.L().Debug("hci writing", zap.Stringer("opcode", cmd.Opcode()), zap.String("packet", fmt.Sprintf("%x", buf)))
	w, err := t.rw.Write(buf)
	if err != nil {
		return nil, fmt.Errorf("%w: write %s: %w", ErrTransport, cmd.Opcode(), err)
	}
	if w != len(buf) {
		return nil, fmt.Errorf("%w: write %s: %w", ErrTransport, cmd.Opcode(), io.ErrShortWrite)
	}

	t.clock.Sleep(t.settleDelay)

	resp := make([]byte, n)
	r, err := t.rw.Read(resp)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: read %s: %w", ErrTransport, cmd.Opcode(), err)
	}
	zap.L().Debug("hci reading", zap.Stringer("opcode", cmd.Opcode()), zap.String("packet", fmt.Sprintf("%x", resp[:r])), zap.Int("expected", n))
	return resp[:r], nil
}
