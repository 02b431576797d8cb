package hci

// HCILEReceiverTestCommandPacket is defined in Vol 4, Part E, Section 7.8.28.
type HCILEReceiverTestCommandPacket struct {
	RFChannel uint8
}

func (p *HCILEReceiverTestCommandPacket) Marshal() ([]byte, error) {
	if err := validateChannel(p.RFChannel); err != nil {
		return nil, err
	}
	c, err := NewCommand(OpcodeLEReceiverTest, p.RFChannel)
	if err != nil {
		return nil, err
	}
	return c.buf, nil
}

func (p *HCILEReceiverTestCommandPacket) Unmarshal(buf []byte) error {
	params, err := unmarshalCommand(buf, OpcodeLEReceiverTest, 1)
	if err != nil {
		return err
	}
	p.RFChannel = params[0]
	return validateChannel(p.RFChannel)
}

func (p *HCILEReceiverTestCommandPacket) Opcode() Opcode {
	return OpcodeLEReceiverTest
}

// HCILEEnhancedReceiverTestCommandPacket is defined in Vol 4, Part E, Section 7.8.50.
type HCILEEnhancedReceiverTestCommandPacket struct {
	RFChannel       uint8
	PHY             PHY
	ModulationIndex ModulationIndex
}

func (p *HCILEEnhancedReceiverTestCommandPacket) validate() error {
	if err := validateChannel(p.RFChannel); err != nil {
		return err
	}
	if err := validatePHY(p.PHY, PHYCodedS8); err != nil {
		return err
	}
	return validateModulationIndex(p.ModulationIndex)
}

func (p *HCILEEnhancedReceiverTestCommandPacket) Marshal() ([]byte, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	c, err := NewCommand(OpcodeLEEnhancedReceiverTest, p.RFChannel, byte(p.PHY), byte(p.ModulationIndex))
	if err != nil {
		return nil, err
	}
	return c.buf, nil
}

func (p *HCILEEnhancedReceiverTestCommandPacket) Unmarshal(buf []byte) error {
	params, err := unmarshalCommand(buf, OpcodeLEEnhancedReceiverTest, 3)
	if err != nil {
		return err
	}
	p.RFChannel = params[0]
	p.PHY = PHY(params[1])
	p.ModulationIndex = ModulationIndex(params[2])
	return p.validate()
}

func (p *HCILEEnhancedReceiverTestCommandPacket) Opcode() Opcode {
	return OpcodeLEEnhancedReceiverTest
}
