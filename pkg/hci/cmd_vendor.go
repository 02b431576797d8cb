package hci

import (
	"encoding/binary"
	"fmt"
)

// TXPowerLevel indexes the vendor TX power table: 0x00 is maximum power,
// 0x01 is 7 dBm, 0x0F is 0 dBm and 0x1A is -20 dBm.
type TXPowerLevel uint8

const (
	TXPowerLevelMax        TXPowerLevel = 0x00
	TXPowerLevel7dBm       TXPowerLevel = 0x01
	TXPowerLevel0dBm       TXPowerLevel = 0x0F
	TXPowerLevelMinus20dBm TXPowerLevel = 0x1A
)

type HCIVendorSetTXPowerCommandPacket struct {
	Level TXPowerLevel
}

func (p *HCIVendorSetTXPowerCommandPacket) Marshal() ([]byte, error) {
	c, err := NewCommand(OpcodeVendorSetTXPower, byte(p.Level))
	if err != nil {
		return nil, err
	}
	return c.buf, nil
}

func (p *HCIVendorSetTXPowerCommandPacket) Unmarshal(buf []byte) error {
	params, err := unmarshalCommand(buf, OpcodeVendorSetTXPower, 1)
	if err != nil {
		return err
	}
	p.Level = TXPowerLevel(params[0])
	return nil
}

func (p *HCIVendorSetTXPowerCommandPacket) Opcode() Opcode {
	return OpcodeVendorSetTXPower
}

// HCIVendorTransmitterTestCommandPacket starts a modulated transmitter test that,
// unlike the LE transmitter test, can run continuously without packet gaps.
// TXGain 0 keeps the level set with HCIVendorSetTXPowerCommandPacket.
type HCIVendorTransmitterTestCommandPacket struct {
	RFChannel       uint8
	DataLength      uint8
	PacketPayload   PacketPayload
	PHY             PHY
	ModulationIndex ModulationIndex
	Continuous      bool
	TXGain          uint8
}

func (p *HCIVendorTransmitterTestCommandPacket) validate() error {
	if err := validateChannel(p.RFChannel); err != nil {
		return err
	}
	if err := validatePayload(p.PacketPayload); err != nil {
		return err
	}
	if err := validatePHY(p.PHY, PHYCodedS2); err != nil {
		return err
	}
	return validateModulationIndex(p.ModulationIndex)
}

func (p *HCIVendorTransmitterTestCommandPacket) Marshal() ([]byte, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	var continuous byte
	if p.Continuous {
		continuous = 1
	}
	c, err := NewCommand(OpcodeVendorTransmitterTest,
		p.RFChannel,
		p.DataLength,
		byte(p.PacketPayload),
		byte(p.PHY),
		byte(p.ModulationIndex),
		continuous,
		p.TXGain,
		0x00, // reserved
	)
	if err != nil {
		return nil, err
	}
	return c.buf, nil
}

func (p *HCIVendorTransmitterTestCommandPacket) Unmarshal(buf []byte) error {
	params, err := unmarshalCommand(buf, OpcodeVendorTransmitterTest, 8)
	if err != nil {
		return err
	}
	p.RFChannel = params[0]
	p.DataLength = params[1]
	p.PacketPayload = PacketPayload(params[2])
	p.PHY = PHY(params[3])
	p.ModulationIndex = ModulationIndex(params[4])
	p.Continuous = params[5] == 1
	p.TXGain = params[6]
	return p.validate()
}

func (p *HCIVendorTransmitterTestCommandPacket) Opcode() Opcode {
	return OpcodeVendorTransmitterTest
}

// HCIVendorCarrierTXCommandPacket emits an unmodulated carrier (LO tone).
type HCIVendorCarrierTXCommandPacket struct {
	RFChannel uint8
	TXGain    uint8
}

func (p *HCIVendorCarrierTXCommandPacket) Marshal() ([]byte, error) {
	if err := validateChannel(p.RFChannel); err != nil {
		return nil, err
	}
	c, err := NewCommand(OpcodeVendorCarrierTX, p.RFChannel, p.TXGain)
	if err != nil {
		return nil, err
	}
	return c.buf, nil
}

func (p *HCIVendorCarrierTXCommandPacket) Unmarshal(buf []byte) error {
	params, err := unmarshalCommand(buf, OpcodeVendorCarrierTX, 2)
	if err != nil {
		return err
	}
	p.RFChannel = params[0]
	p.TXGain = params[1]
	return validateChannel(p.RFChannel)
}

func (p *HCIVendorCarrierTXCommandPacket) Opcode() Opcode {
	return OpcodeVendorCarrierTX
}

type HCIVendorReadRegisterCommandPacket struct {
	Address uint32
}

func (p *HCIVendorReadRegisterCommandPacket) Marshal() ([]byte, error) {
	var params [4]byte
	binary.LittleEndian.PutUint32(params[:], p.Address)
	c, err := NewCommand(OpcodeVendorReadRegister, params[:]...)
	if err != nil {
		return nil, err
	}
	return c.buf, nil
}

func (p *HCIVendorReadRegisterCommandPacket) Unmarshal(buf []byte) error {
	params, err := unmarshalCommand(buf, OpcodeVendorReadRegister, 4)
	if err != nil {
		return err
	}
	p.Address = binary.LittleEndian.Uint32(params)
	return nil
}

func (p *HCIVendorReadRegisterCommandPacket) Opcode() Opcode {
	return OpcodeVendorReadRegister
}

type HCIVendorWriteRegisterCommandPacket struct {
	Address uint32
	Value   uint32
}

func (p *HCIVendorWriteRegisterCommandPacket) Marshal() ([]byte, error) {
	var params [8]byte
	binary.LittleEndian.PutUint32(params[0:], p.Address)
	binary.LittleEndian.PutUint32(params[4:], p.Value)
	c, err := NewCommand(OpcodeVendorWriteRegister, params[:]...)
	if err != nil {
		return nil, err
	}
	return c.buf, nil
}

func (p *HCIVendorWriteRegisterCommandPacket) Unmarshal(buf []byte) error {
	params, err := unmarshalCommand(buf, OpcodeVendorWriteRegister, 8)
	if err != nil {
		return err
	}
	p.Address = binary.LittleEndian.Uint32(params[0:4])
	p.Value = binary.LittleEndian.Uint32(params[4:8])
	return nil
}

func (p *HCIVendorWriteRegisterCommandPacket) Opcode() Opcode {
	return OpcodeVendorWriteRegister
}

func (p *HCIVendorWriteRegisterCommandPacket) String() string {
	return fmt.Sprintf("write 0x%08x to 0x%08x", p.Value, p.Address)
}
