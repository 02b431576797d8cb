package hci

import (
	"fmt"
	"strconv"
	"strings"
)

type Endianness uint8

const (
	LittleEndian Endianness = iota
	BigEndian
)

// Field names used by DefaultLayouts.
const (
	FieldEventCode   = "event_code"
	FieldOpcode      = "opcode"
	FieldStatus      = "status"
	FieldPacketCount = "packet_count"
	FieldVersion     = "version"
	FieldHWID        = "hw_id"
	FieldValue       = "value"
)

// Field locates a fixed width integer in a response.
type Field struct {
	Name   string
	Offset int
	Width  int
	Order  Endianness
}

func (f Field) Bytes(buf []byte) ([]byte, error) {
	if f.Offset < 0 || f.Width <= 0 || len(buf) < f.Offset+f.Width {
		return nil, fmt.Errorf("%w: %s needs bytes [%d:%d], got %d", ErrShortResponse, f.Name, f.Offset, f.Offset+f.Width, len(buf))
	}
	return buf[f.Offset : f.Offset+f.Width], nil
}

func (f Field) Uint(buf []byte) (uint64, error) {
	if f.Width > 8 {
		return 0, fmt.Errorf("%w: %s is %d bytes wide", ErrInvalidParameter, f.Name, f.Width)
	}
	b, err := f.Bytes(buf)
	if err != nil {
		return 0, err
	}
	var v uint64
	for i := range b {
		if f.Order == BigEndian {
			v = v<<8 | uint64(b[i])
		} else {
			v |= uint64(b[i]) << (8 * i)
		}
	}
	return v, nil
}

// Layout describes the response a device sends for one opcode. Length is the
// number of bytes to read after sending the command.
type Layout struct {
	Length int
	Fields []Field
}

func (l Layout) Field(name string) (Field, bool) {
	for _, f := range l.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

func (l Layout) Uint(buf []byte, name string) (uint64, error) {
	f, ok := l.Field(name)
	if !ok {
		return 0, fmt.Errorf("%w: layout has no field %q", ErrInvalidParameter, name)
	}
	return f.Uint(buf)
}

// WithField returns a copy of l with f replacing the field of the same name.
func (l Layout) WithField(f Field) Layout {
	fields := make([]Field, 0, len(l.Fields)+1)
	for _, g := range l.Fields {
		if g.Name != f.Name {
			fields = append(fields, g)
		}
	}
	l.Fields = append(fields, f)
	return l
}

var commandCompleteFields = []Field{
	{Name: FieldEventCode, Offset: 1, Width: 1},
	{Name: FieldOpcode, Offset: 4, Width: 2},
	{Name: FieldStatus, Offset: 6, Width: 1},
}

// CommandCompleteLayout is the 7 byte Command Complete event carrying only a
// status: 04 0E 04 01 op_lo op_hi status.
var CommandCompleteLayout = Layout{Length: 7, Fields: commandCompleteFields}

func commandComplete(length int, fields ...Field) Layout {
	return Layout{Length: length, Fields: append(append([]Field(nil), commandCompleteFields...), fields...)}
}

// Layouts maps opcodes to their response layout. Offsets and lengths are
// firmware conventions, not self describing, so callers may override them.
type Layouts map[Opcode]Layout

func DefaultLayouts() Layouts {
	return Layouts{
		OpcodeLETestEnd:          commandComplete(9, Field{Name: FieldPacketCount, Offset: 7, Width: 2}),
		OpcodeVendorGetVersion:   commandComplete(11, Field{Name: FieldVersion, Offset: 7, Width: 4}),
		OpcodeVendorGetHWID:      commandComplete(11, Field{Name: FieldHWID, Offset: 7, Width: 4}),
		OpcodeVendorReadRegister: commandComplete(11, Field{Name: FieldValue, Offset: 7, Width: 4}),
	}
}

// For returns the layout of opcode, falling back to CommandCompleteLayout.
func (l Layouts) For(opcode Opcode) Layout {
	if layout, ok := l[opcode]; ok {
		return layout
	}
	return CommandCompleteLayout
}

func (l Layouts) Clone() Layouts {
	c := make(Layouts, len(l))
	for k, v := range l {
		v.Fields = append([]Field(nil), v.Fields...)
		c[k] = v
	}
	return c
}

// ParseOpcode accepts an opcode name such as HCI_LE_TEST_END or a hex value such as 0x201F.
func ParseOpcode(s string) (Opcode, error) {
	s = strings.TrimSpace(s)
	for op, name := range opcodeNames {
		if strings.EqualFold(name, s) {
			return op, nil
		}
	}
	hex, ok := strings.CutPrefix(strings.ToLower(s), "0x")
	if !ok {
		return 0, fmt.Errorf("%w: unknown opcode %q", ErrInvalidParameter, s)
	}
	v, err := strconv.ParseUint(hex, 16, 16)
	if err != nil {
		return 0, fmt.Errorf("%w: unknown opcode %q", ErrInvalidParameter, s)
	}
	return Opcode(v), nil
}
