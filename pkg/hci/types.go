package hci

import "fmt"

// MaxRFChannel is the highest DTM channel: N = (F - 2402) / 2, 0x00 is 2402 MHz and 0x27 is 2480 MHz.
const MaxRFChannel = 0x27

// RFChannelFrequency returns the carrier frequency of channel in MHz.
func RFChannelFrequency(channel uint8) int {
	return 2402 + 2*int(channel)
}

type PHY uint8

const (
	PHY1M      PHY = 0x01
	PHY2M      PHY = 0x02
	PHYCodedS8 PHY = 0x03
	PHYCodedS2 PHY = 0x04
)

func (p PHY) String() string {
	switch p {
	case PHY1M:
		return "1M"
	case PHY2M:
		return "2M"
	case PHYCodedS8:
		return "coded-s8"
	case PHYCodedS2:
		return "coded-s2"
	}
	return fmt.Sprintf("phy(%d)", uint8(p))
}

// Vol 6, Part F, Section 4.1.5
type PacketPayload uint8

const (
	PacketPayloadPRBS9    PacketPayload = 0x00
	PacketPayload11110000 PacketPayload = 0x01
	PacketPayload10101010 PacketPayload = 0x02
	PacketPayloadPRBS15   PacketPayload = 0x03
	PacketPayloadAllOnes  PacketPayload = 0x04
	PacketPayloadAllZeros PacketPayload = 0x05
	PacketPayload00001111 PacketPayload = 0x06
	PacketPayload01010101 PacketPayload = 0x07
)

const maxPacketPayload = PacketPayload01010101

type ModulationIndex uint8

const (
	ModulationIndexStandard ModulationIndex = 0x00
	ModulationIndexStable   ModulationIndex = 0x01
)

func validateChannel(channel uint8) error {
	if channel > MaxRFChannel {
		return fmt.Errorf("%w: rf channel 0x%02x out of range [0x00, 0x%02x]", ErrInvalidParameter, channel, MaxRFChannel)
	}
	return nil
}

func validatePayload(p PacketPayload) error {
	if p > maxPacketPayload {
		return fmt.Errorf("%w: packet payload 0x%02x out of range", ErrInvalidParameter, uint8(p))
	}
	return nil
}

func validatePHY(p PHY, max PHY) error {
	if p < PHY1M || p > max {
		return fmt.Errorf("%w: phy %d out of range [1, %d]", ErrInvalidParameter, uint8(p), uint8(max))
	}
	return nil
}

func validateModulationIndex(m ModulationIndex) error {
	if m > ModulationIndexStable {
		return fmt.Errorf("%w: modulation index %d out of range", ErrInvalidParameter, uint8(m))
	}
	return nil
}
