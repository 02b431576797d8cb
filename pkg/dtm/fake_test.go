package dtm

import (
	"time"

	"github.com/muxable/dtm/pkg/hci"
)

// fakeTransport answers each write with the next queued response. Reads with
// nothing queued return zero bytes like a serial port read timeout.
type fakeTransport struct {
	responses [][]byte
	writes    [][]byte
	reads     int
	writeErr  error
	readErr   error
	shortW    bool
}

func (f *fakeTransport) queue(resp ...[]byte) *fakeTransport {
	f.responses = append(f.responses, resp...)
	return f
}

func (f *fakeTransport) Write(p []byte) (int, error) {
	if f.writeErr != nil {
		return 0, f.writeErr
	}
	f.writes = append(f.writes, append([]byte(nil), p...))
	if f.shortW {
		return len(p) - 1, nil
	}
	return len(p), nil
}

func (f *fakeTransport) Read(p []byte) (int, error) {
	f.reads++
	if f.readErr != nil {
		return 0, f.readErr
	}
	if len(f.responses) == 0 {
		return 0, nil
	}
	resp := f.responses[0]
	f.responses = f.responses[1:]
	return copy(p, resp), nil
}

func (f *fakeTransport) opcodes() []hci.Opcode {
	var ops []hci.Opcode
	for _, w := range f.writes {
		c, err := hci.ParseCommand(w)
		if err != nil {
			panic(err)
		}
		ops = append(ops, c.Opcode())
	}
	return ops
}

type fakeClock struct {
	now    time.Time
	sleeps []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(0, 0)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(d time.Duration) {
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
}

// complete builds a Command Complete event for op with the given return parameters.
func complete(op hci.Opcode, params ...byte) []byte {
	buf, err := (&hci.CommandCompleteEventPacket{NumCommandPackets: 1, CommandOpcode: op, ReturnParameters: params}).Marshal()
	if err != nil {
		panic(err)
	}
	return buf
}
