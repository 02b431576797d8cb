package hci

// HCILETransmitterTestCommandPacket is defined in Vol 4, Part E, Section 7.8.29.
type HCILETransmitterTestCommandPacket struct {
	RFChannel     uint8
	DataLength    uint8
	PacketPayload PacketPayload
}

func (p *HCILETransmitterTestCommandPacket) validate() error {
	if err := validateChannel(p.RFChannel); err != nil {
		return err
	}
	return validatePayload(p.PacketPayload)
}

func (p *HCILETransmitterTestCommandPacket) Marshal() ([]byte, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	c, err := NewCommand(OpcodeLETransmitterTest, p.RFChannel, p.DataLength, byte(p.PacketPayload))
	if err != nil {
		return nil, err
	}
	return c.buf, nil
}

func (p *HCILETransmitterTestCommandPacket) Unmarshal(buf []byte) error {
	params, err := unmarshalCommand(buf, OpcodeLETransmitterTest, 3)
	if err != nil {
		return err
	}
	p.RFChannel = params[0]
	p.DataLength = params[1]
	p.PacketPayload = PacketPayload(params[2])
	return p.validate()
}

func (p *HCILETransmitterTestCommandPacket) Opcode() Opcode {
	return OpcodeLETransmitterTest
}

// HCILEEnhancedTransmitterTestCommandPacket is defined in Vol 4, Part E, Section 7.8.51.
type HCILEEnhancedTransmitterTestCommandPacket struct {
	RFChannel     uint8
	DataLength    uint8
	PacketPayload PacketPayload
	PHY           PHY
}

func (p *HCILEEnhancedTransmitterTestCommandPacket) validate() error {
	if err := validateChannel(p.RFChannel); err != nil {
		return err
	}
	if err := validatePayload(p.PacketPayload); err != nil {
		return err
	}
	return validatePHY(p.PHY, PHYCodedS2)
}

func (p *HCILEEnhancedTransmitterTestCommandPacket) Marshal() ([]byte, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	c, err := NewCommand(OpcodeLEEnhancedTransmitterTest, p.RFChannel, p.DataLength, byte(p.PacketPayload), byte(p.PHY))
	if err != nil {
		return nil, err
	}
	return c.buf, nil
}

func (p *HCILEEnhancedTransmitterTestCommandPacket) Unmarshal(buf []byte) error {
	params, err := unmarshalCommand(buf, OpcodeLEEnhancedTransmitterTest, 4)
	if err != nil {
		return err
	}
	p.RFChannel = params[0]
	p.DataLength = params[1]
	p.PacketPayload = PacketPayload(params[2])
	p.PHY = PHY(params[3])
	return p.validate()
}

func (p *HCILEEnhancedTransmitterTestCommandPacket) Opcode() Opcode {
	return OpcodeLEEnhancedTransmitterTest
}
