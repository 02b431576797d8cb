package hci

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"math"
)

var (
	// ErrInvalidParameter is returned when a command is built with an out of range field.
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrShortResponse is returned when a response does not cover a field being decoded.
	ErrShortResponse = errors.New("short response")
)

type Packet interface {
	Marshal() ([]byte, error)
	Unmarshal([]byte) error
}

type CommandPacket interface {
	Packet
	Opcode() Opcode
}

const commandHeaderLength = 4

// Command is an encoded HCI command packet:
//
//	[0x01, opcode_lo, opcode_hi, parameter_length, parameters...]
//
// A Command is immutable once built.
type Command struct {
	buf []byte
}

// NewCommand encodes opcode and params into a command packet.
func NewCommand(opcode Opcode, params ...byte) (*Command, error) {
	if len(params) > math.MaxUint8 {
		return nil, fmt.Errorf("%w: %d parameter bytes exceeds %d", ErrInvalidParameter, len(params), math.MaxUint8)
	}
	buf := make([]byte, commandHeaderLength+len(params))
	buf[0] = byte(PacketTypeCommand)
	binary.LittleEndian.PutUint16(buf[1:], uint16(opcode))
	buf[3] = byte(len(params))
	copy(buf[4:], params)
	return &Command{buf: buf}, nil
}

// ParseCommand decodes a marshalled command packet.
func ParseCommand(buf []byte) (*Command, error) {
	if len(buf) < commandHeaderLength {
		return nil, io.ErrShortBuffer
	}
	if buf[0] != byte(PacketTypeCommand) {
		return nil, errors.New("incorrect packet")
	}
	if len(buf) != commandHeaderLength+int(buf[3]) {
		return nil, io.ErrShortBuffer
	}
	return &Command{buf: append([]byte(nil), buf...)}, nil
}

// Encode marshals p and returns the resulting command.
func Encode(p CommandPacket) (*Command, error) {
	buf, err := p.Marshal()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p.Opcode(), err)
	}
	return ParseCommand(buf)
}

func (c *Command) Opcode() Opcode {
	return Opcode(binary.LittleEndian.Uint16(c.buf[1:3]))
}

func (c *Command) ParameterLength() int {
	return int(c.buf[3])
}

func (c *Command) Parameters() []byte {
	return append([]byte(nil), c.buf[commandHeaderLength:]...)
}

// Bytes returns a copy of the full packet as written to the wire.
func (c *Command) Bytes() []byte {
	return append([]byte(nil), c.buf...)
}

func (c *Command) Len() int {
	return len(c.buf)
}

func (c *Command) String() string {
	return hex.EncodeToString(c.buf)
}

// unmarshalCommand checks the header of buf against opcode and the expected
// parameter length and returns the parameters.
func unmarshalCommand(buf []byte, opcode Opcode, n int) ([]byte, error) {
	if len(buf) < commandHeaderLength {
		return nil, io.ErrShortBuffer
	}
	if buf[0] != byte(PacketTypeCommand) || binary.LittleEndian.Uint16(buf[1:]) != uint16(opcode) {
		return nil, errors.New("incorrect packet")
	}
	if int(buf[3]) != n || len(buf) != commandHeaderLength+n {
		return nil, io.ErrShortBuffer
	}
	return buf[commandHeaderLength:], nil
}

// GenericCommandPacket encompasses many argument-less packets.
type GenericCommandPacket struct {
	opcode Opcode
}

func NewGenericCommandPacket(opcode Opcode) *GenericCommandPacket {
	return &GenericCommandPacket{opcode}
}

func (p *GenericCommandPacket) Marshal() ([]byte, error) {
	c, err := NewCommand(p.opcode)
	if err != nil {
		return nil, err
	}
	return c.buf, nil
}

func (p *GenericCommandPacket) Unmarshal(buf []byte) error {
	if len(buf) < commandHeaderLength {
		return io.ErrShortBuffer
	}
	if buf[0] != byte(PacketTypeCommand) {
		return errors.New("incorrect packet")
	}
	if int(buf[3]) != 0 || len(buf) != commandHeaderLength {
		return io.ErrShortBuffer
	}
	p.opcode = Opcode(binary.LittleEndian.Uint16(buf[1:3]))
	return nil
}

func (p *GenericCommandPacket) Opcode() Opcode {
	return p.opcode
}

// CommandCompleteEventPacket is defined in Vol 4, Part E, Section 7.7.14.
type CommandCompleteEventPacket struct {
	NumCommandPackets uint8
	CommandOpcode     Opcode
	ReturnParameters  []byte
}

func (p *CommandCompleteEventPacket) Unmarshal(buf []byte) error {
	if len(buf) < 6 {
		return io.ErrShortBuffer
	}
	if buf[0] != byte(PacketTypeEvent) || buf[1] != byte(EventCodeCommandComplete) {
		return errors.New("incorrect packet")
	}
	s := int(buf[2])
	if len(buf) != s+3 {
		return io.ErrShortBuffer
	}
	p.NumCommandPackets = buf[3]
	p.CommandOpcode = Opcode(binary.LittleEndian.Uint16(buf[4:]))
	p.ReturnParameters = buf[6:]
	return nil
}

func (p *CommandCompleteEventPacket) Marshal() ([]byte, error) {
	if len(p.ReturnParameters)+3 > math.MaxUint8 {
		return nil, io.ErrShortWrite
	}
	buf := make([]byte, 6+len(p.ReturnParameters))
	buf[0] = byte(PacketTypeEvent)
	buf[1] = byte(EventCodeCommandComplete)
	buf[2] = byte(len(p.ReturnParameters) + 3)
	buf[3] = p.NumCommandPackets
	binary.LittleEndian.PutUint16(buf[4:], uint16(p.CommandOpcode))
	copy(buf[6:], p.ReturnParameters)
	return buf, nil
}

// Status returns the first return parameter, which is the status for every
// command in this package.
func (p *CommandCompleteEventPacket) Status() (uint8, bool) {
	if len(p.ReturnParameters) == 0 {
		return 0, false
	}
	return p.ReturnParameters[0], true
}
