package dtm

import "github.com/muxable/dtm/pkg/hci"

// Session holds the RF parameters of one test phase.
type Session struct {
	Channel         uint8
	PHY             hci.PHY
	DataLength      uint8
	Payload         hci.PacketPayload
	ModulationIndex hci.ModulationIndex
}

func (s Session) phy() hci.PHY {
	if s.PHY == 0 {
		return hci.PHY1M
	}
	return s.PHY
}

// Validate reports whether every command built from s would encode.
func (s Session) Validate() error {
	if _, err := hci.Encode(&hci.HCILEEnhancedTransmitterTestCommandPacket{
		RFChannel:     s.Channel,
		DataLength:    s.DataLength,
		PacketPayload: s.Payload,
		PHY:           s.phy(),
	}); err != nil {
		return err
	}
	_, err := hci.Encode(&hci.HCILEEnhancedReceiverTestCommandPacket{
		RFChannel:       s.Channel,
		PHY:             s.rxPHY(),
		ModulationIndex: s.ModulationIndex,
	})
	return err
}

// rxPHY maps both coded PHYs to the single coded receiver PHY.
func (s Session) rxPHY() hci.PHY {
	if s.phy() == hci.PHYCodedS2 {
		return hci.PHYCodedS8
	}
	return s.phy()
}
