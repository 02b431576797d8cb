package hci

// Bluetooth Core Specification, Vol 4, Part E, Section 7.8.28 onwards for the LE test commands.
// Vendor commands follow https://inplay-inc.github.io/docs/in6xxe/getting-started/testing/hci_command.html

import "fmt"

type PacketType uint8

const (
	PacketTypeCommand PacketType = 0x01
	PacketTypeACLData PacketType = 0x02
	PacketTypeEvent   PacketType = 0x04
)

type Opcode uint16

const (
	OpcodeReset Opcode = 0x0C03

	OpcodeLEReceiverTest            Opcode = 0x201D
	OpcodeLETransmitterTest         Opcode = 0x201E
	OpcodeLETestEnd                 Opcode = 0x201F
	OpcodeLEEnhancedReceiverTest    Opcode = 0x2033
	OpcodeLEEnhancedTransmitterTest Opcode = 0x2034

	OpcodeVendorCarrierTX          Opcode = 0xFC01
	OpcodeVendorStopCarrierTX      Opcode = 0xFC04
	OpcodeVendorSetTXPower         Opcode = 0xFC07
	OpcodeVendorTransmitterTest    Opcode = 0xFC0D
	OpcodeVendorReadRegister       Opcode = 0xFC0E
	OpcodeVendorWriteRegister      Opcode = 0xFC0F
	OpcodeVendorGetHWID            Opcode = 0xFC50
	OpcodeVendorTransmitterTestEnd Opcode = 0xFC53
	OpcodeVendorEnterDeepSleep     Opcode = 0xFC54
	OpcodeVendorGetVersion         Opcode = 0xFC5B
)

var opcodeNames = map[Opcode]string{
	OpcodeReset:                     "HCI_RESET",
	OpcodeLEReceiverTest:            "HCI_LE_RECEIVER_TEST",
	OpcodeLETransmitterTest:         "HCI_LE_TRANSMITTER_TEST",
	OpcodeLETestEnd:                 "HCI_LE_TEST_END",
	OpcodeLEEnhancedReceiverTest:    "HCI_LE_ENH_RX_TEST",
	OpcodeLEEnhancedTransmitterTest: "HCI_LE_ENH_TX_TEST",
	OpcodeVendorCarrierTX:           "HCI_LE_CARRIER_TX",
	OpcodeVendorStopCarrierTX:       "HCI_LE_STOP_CARRIER_TX",
	OpcodeVendorSetTXPower:          "HCI_SET_TX_POWER",
	OpcodeVendorTransmitterTest:     "HCI_LE_VENDOR_TX_COMMAND",
	OpcodeVendorReadRegister:        "HCI_READ_REGISTER",
	OpcodeVendorWriteRegister:       "HCI_WRITE_REGISTER",
	OpcodeVendorGetHWID:             "HCI_GET_HW_ID",
	OpcodeVendorTransmitterTestEnd:  "HCI_LE_VENDOR_TX_TEST_END",
	OpcodeVendorEnterDeepSleep:      "HCI_ENTER_DEEP_SLEEP",
	OpcodeVendorGetVersion:          "HCI_GET_VERSION",
}

func (o Opcode) String() string {
	if name, ok := opcodeNames[o]; ok {
		return name
	}
	return fmt.Sprintf("0x%04X", uint16(o))
}

// OGF returns the opcode group field.
func (o Opcode) OGF() uint8 {
	return uint8(o >> 10)
}

// OCF returns the opcode command field.
func (o Opcode) OCF() uint16 {
	return uint16(o) & 0x03FF
}

// IsVendor reports whether the opcode is in the vendor specific group (OGF 0x3F).
func (o Opcode) IsVendor() bool {
	return o.OGF() == 0x3F
}

type EventCode uint8

const (
	EventCodeCommandComplete EventCode = 0x0E
	EventCodeCommandStatus   EventCode = 0x0F
	EventCodeHardwareError   EventCode = 0x10
	EventCodeLEMeta          EventCode = 0x3E
)
