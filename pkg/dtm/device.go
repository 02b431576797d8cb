package dtm

import (
	"encoding/hex"
	"fmt"

	"github.com/muxable/dtm/pkg/hci"
	"go.uber.org/zap"
)

// Observer is notified of every completed exchange.
type Observer interface {
	ObserveExchange(e *Exchange)
}

// Exchange is one command and the raw response read for it.
type Exchange struct {
	Device   string
	Command  *hci.Command
	Response []byte
	Layout   hci.Layout
}

// Short reports whether fewer bytes than the layout length were read.
func (e *Exchange) Short() bool {
	return len(e.Response) < e.Layout.Length
}

func (e *Exchange) Status() (uint8, error) {
	v, err := e.Uint(hci.FieldStatus)
	return uint8(v), err
}

func (e *Exchange) Uint(field string) (uint64, error) {
	v, err := e.Layout.Uint(e.Response, field)
	if err != nil {
		return 0, fmt.Errorf("%s %s: %w", e.Device, e.Command.Opcode(), err)
	}
	return v, nil
}

func (e *Exchange) ResponseHex() string {
	return hex.EncodeToString(e.Response)
}

// Device issues DTM and vendor commands to one controller.
type Device struct {
	Name     string
	Observer Observer

	t       *Transactor
	layouts hci.Layouts
}

func NewDevice(name string, t *Transactor, layouts hci.Layouts) *Device {
	if layouts == nil {
		layouts = hci.DefaultLayouts()
	}
	return &Device{Name: name, t: t, layouts: layouts}
}

// Send encodes p and performs one exchange. Out of range parameters are
// rejected before anything is written.
func (d *Device) Send(p hci.CommandPacket) (*Exchange, error) {
	cmd, err := hci.Encode(p)
	if err != nil {
		return nil, err
	}
	layout := d.layouts.For(cmd.Opcode())
	zap.L().Info("sending", zap.String("device", d.Name), zap.Stringer("opcode", cmd.Opcode()), zap.Stringer("command", cmd))
	resp, err := d.t.Transact(cmd, layout.Length)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", d.Name, err)
	}
	e := &Exchange{Device: d.Name, Command: cmd, Response: resp, Layout: layout}
	fields := []zap.Field{zap.String("device", d.Name), zap.Stringer("opcode", cmd.Opcode()), zap.String("response", e.ResponseHex())}
	if e.Short() {
		zap.L().Warn("short response", append(fields, zap.Int("expected", layout.Length), zap.Int("got", len(resp)))...)
	} else {
		if status, err := e.Status(); err == nil && status != 0 {
			fields = append(fields, zap.Uint8("status", status))
		}
		zap.L().Info("received", fields...)
	}
	if d.Observer != nil {
		d.Observer.ObserveExchange(e)
	}
	return e, nil
}

func (d *Device) Reset() (*Exchange, error) {
	return d.Send(hci.NewGenericCommandPacket(hci.OpcodeReset))
}

func (d *Device) ReceiverTest(s Session) (*Exchange, error) {
	return d.Send(&hci.HCILEReceiverTestCommandPacket{RFChannel: s.Channel})
}

func (d *Device) EnhancedReceiverTest(s Session) (*Exchange, error) {
	return d.Send(&hci.HCILEEnhancedReceiverTestCommandPacket{
		RFChannel:       s.Channel,
		PHY:             s.rxPHY(),
		ModulationIndex: s.ModulationIndex,
	})
}

func (d *Device) TransmitterTest(s Session) (*Exchange, error) {
	return d.Send(&hci.HCILETransmitterTestCommandPacket{
		RFChannel:     s.Channel,
		DataLength:    s.DataLength,
		PacketPayload: s.Payload,
	})
}

func (d *Device) EnhancedTransmitterTest(s Session) (*Exchange, error) {
	return d.Send(&hci.HCILEEnhancedTransmitterTestCommandPacket{
		RFChannel:     s.Channel,
		DataLength:    s.DataLength,
		PacketPayload: s.Payload,
		PHY:           s.phy(),
	})
}

func (d *Device) VendorTransmitterTest(s Session, continuous bool, gain uint8) (*Exchange, error) {
	return d.Send(&hci.HCIVendorTransmitterTestCommandPacket{
		RFChannel:       s.Channel,
		DataLength:      s.DataLength,
		PacketPayload:   s.Payload,
		PHY:             s.phy(),
		ModulationIndex: s.ModulationIndex,
		Continuous:      continuous,
		TXGain:          gain,
	})
}

// TestEndResult carries the received packet count of a receiver test. Valid
// is false when the response was too short to hold the count.
type TestEndResult struct {
	*Exchange
	PacketCount uint64
	Valid       bool
}

func (d *Device) TestEnd() (*TestEndResult, error) {
	e, err := d.Send(hci.NewGenericCommandPacket(hci.OpcodeLETestEnd))
	if err != nil {
		return nil, err
	}
	r := &TestEndResult{Exchange: e}
	if n, err := e.Uint(hci.FieldPacketCount); err == nil {
		r.PacketCount = n
		r.Valid = true
	}
	return r, nil
}

func (d *Device) SetTXPower(level hci.TXPowerLevel) (*Exchange, error) {
	return d.Send(&hci.HCIVendorSetTXPowerCommandPacket{Level: level})
}

func (d *Device) CarrierTX(channel, gain uint8) (*Exchange, error) {
	return d.Send(&hci.HCIVendorCarrierTXCommandPacket{RFChannel: channel, TXGain: gain})
}

func (d *Device) StopCarrierTX() (*Exchange, error) {
	return d.Send(hci.NewGenericCommandPacket(hci.OpcodeVendorStopCarrierTX))
}

func (d *Device) VendorTransmitterTestEnd() (*Exchange, error) {
	return d.Send(hci.NewGenericCommandPacket(hci.OpcodeVendorTransmitterTestEnd))
}

func (d *Device) EnterDeepSleep() (*Exchange, error) {
	return d.Send(hci.NewGenericCommandPacket(hci.OpcodeVendorEnterDeepSleep))
}

func (d *Device) WriteRegister(address, value uint32) (*Exchange, error) {
	return d.Send(&hci.HCIVendorWriteRegisterCommandPacket{Address: address, Value: value})
}

// ReadRegister returns the register value. The exchange is returned even when
// the response is too short to decode.
func (d *Device) ReadRegister(address uint32) (uint32, *Exchange, error) {
	return d.readUint32(&hci.HCIVendorReadRegisterCommandPacket{Address: address}, hci.FieldValue)
}

func (d *Device) ReadVersion() (uint32, *Exchange, error) {
	return d.readUint32(hci.NewGenericCommandPacket(hci.OpcodeVendorGetVersion), hci.FieldVersion)
}

func (d *Device) ReadHWID() (uint32, *Exchange, error) {
	return d.readUint32(hci.NewGenericCommandPacket(hci.OpcodeVendorGetHWID), hci.FieldHWID)
}

func (d *Device) readUint32(p hci.CommandPacket, field string) (uint32, *Exchange, error) {
	e, err := d.Send(p)
	if err != nil {
		return 0, nil, err
	}
	v, err := e.Uint(field)
	if err != nil {
		return 0, e, err
	}
	return uint32(v), e, nil
}
