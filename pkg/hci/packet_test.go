package hci

import (
	"encoding/binary"
	"io"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLETransmitterTestEncoding(t *testing.T) {
	c, err := Encode(&HCILETransmitterTestCommandPacket{
		RFChannel:     0x0F,
		DataLength:    0x25,
		PacketPayload: PacketPayloadPRBS9,
	})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x1E, 0x20, 0x03, 0x0F, 0x25, 0x00}, c.Bytes())
	assert.Equal(t, OpcodeLETransmitterTest, c.Opcode())
	assert.Equal(t, "011e20030f2500", c.String())
}

func TestLETestEndEncoding(t *testing.T) {
	c, err := Encode(NewGenericCommandPacket(OpcodeLETestEnd))
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x1F, 0x20, 0x00}, c.Bytes())
	assert.Equal(t, 0, c.ParameterLength())
	assert.Empty(t, c.Parameters())
}

func TestCatalogEncodings(t *testing.T) {
	tests := []struct {
		name   string
		packet CommandPacket
		want   []byte
	}{
		{"reset", NewGenericCommandPacket(OpcodeReset), []byte{0x01, 0x03, 0x0C, 0x00}},
		{"get version", NewGenericCommandPacket(OpcodeVendorGetVersion), []byte{0x01, 0x5B, 0xFC, 0x00}},
		{"get hw id", NewGenericCommandPacket(OpcodeVendorGetHWID), []byte{0x01, 0x50, 0xFC, 0x00}},
		{"deep sleep", NewGenericCommandPacket(OpcodeVendorEnterDeepSleep), []byte{0x01, 0x54, 0xFC, 0x00}},
		{"stop carrier", NewGenericCommandPacket(OpcodeVendorStopCarrierTX), []byte{0x01, 0x04, 0xFC, 0x00}},
		{"vendor tx end", NewGenericCommandPacket(OpcodeVendorTransmitterTestEnd), []byte{0x01, 0x53, 0xFC, 0x00}},
		{"receiver test", &HCILEReceiverTestCommandPacket{RFChannel: 0x0F}, []byte{0x01, 0x1D, 0x20, 0x01, 0x0F}},
		{
			"enhanced receiver test",
			&HCILEEnhancedReceiverTestCommandPacket{RFChannel: 0x00, PHY: PHY2M},
			[]byte{0x01, 0x33, 0x20, 0x03, 0x00, 0x02, 0x00},
		},
		{
			"enhanced transmitter test",
			&HCILEEnhancedTransmitterTestCommandPacket{RFChannel: 0x00, DataLength: 0x25, PHY: PHY2M},
			[]byte{0x01, 0x34, 0x20, 0x04, 0x00, 0x25, 0x00, 0x02},
		},
		{"set tx power", &HCIVendorSetTXPowerCommandPacket{Level: TXPowerLevel0dBm}, []byte{0x01, 0x07, 0xFC, 0x01, 0x0F}},
		{
			"vendor transmitter test",
			&HCIVendorTransmitterTestCommandPacket{RFChannel: 0x00, DataLength: 0x25, PHY: PHY2M, Continuous: true},
			[]byte{0x01, 0x0D, 0xFC, 0x08, 0x00, 0x25, 0x00, 0x02, 0x00, 0x01, 0x00, 0x00},
		},
		{"carrier tx", &HCIVendorCarrierTXCommandPacket{RFChannel: 0x00}, []byte{0x01, 0x01, 0xFC, 0x02, 0x00, 0x00}},
		{
			"read register",
			&HCIVendorReadRegisterCommandPacket{Address: 0x46A030B4},
			[]byte{0x01, 0x0E, 0xFC, 0x04, 0xB4, 0x30, 0xA0, 0x46},
		},
		{
			"write register",
			&HCIVendorWriteRegisterCommandPacket{Address: 0x46A030B4, Value: 0x12345624},
			[]byte{0x01, 0x0F, 0xFC, 0x08, 0xB4, 0x30, 0xA0, 0x46, 0x24, 0x56, 0x34, 0x12},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Encode(tt.packet)
			require.NoError(t, err)
			assert.Equal(t, tt.want, c.Bytes())
			assert.Equal(t, tt.packet.Opcode(), c.Opcode())
			assert.Equal(t, c.ParameterLength(), len(c.Parameters()))
			assert.Equal(t, 4+c.ParameterLength(), c.Len())
		})
	}
}

func TestReceiverTestChannelRoundTrip(t *testing.T) {
	for ch := uint8(0); ch <= MaxRFChannel; ch++ {
		buf, err := (&HCILEReceiverTestCommandPacket{RFChannel: ch}).Marshal()
		require.NoError(t, err)

		var p HCILEReceiverTestCommandPacket
		require.NoError(t, p.Unmarshal(buf))
		assert.Equal(t, ch, p.RFChannel)
	}
}

func TestOutOfRangeParametersRejected(t *testing.T) {
	tests := []struct {
		name   string
		packet CommandPacket
	}{
		{"receiver channel", &HCILEReceiverTestCommandPacket{RFChannel: 40}},
		{"transmitter channel", &HCILETransmitterTestCommandPacket{RFChannel: 0xFF}},
		{"transmitter payload", &HCILETransmitterTestCommandPacket{PacketPayload: 8}},
		{"enhanced receiver phy", &HCILEEnhancedReceiverTestCommandPacket{PHY: PHYCodedS2}},
		{"enhanced receiver zero phy", &HCILEEnhancedReceiverTestCommandPacket{}},
		{"enhanced receiver modulation", &HCILEEnhancedReceiverTestCommandPacket{PHY: PHY1M, ModulationIndex: 2}},
		{"enhanced transmitter phy", &HCILEEnhancedTransmitterTestCommandPacket{PHY: 5}},
		{"vendor transmitter channel", &HCIVendorTransmitterTestCommandPacket{RFChannel: 0x28, PHY: PHY1M}},
		{"carrier channel", &HCIVendorCarrierTXCommandPacket{RFChannel: 0x28}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Encode(tt.packet)
			assert.ErrorIs(t, err, ErrInvalidParameter)
			assert.Nil(t, c)
		})
	}
}

func TestNewCommandParameterLimit(t *testing.T) {
	c, err := NewCommand(OpcodeVendorWriteRegister, make([]byte, math.MaxUint8)...)
	require.NoError(t, err)
	assert.Equal(t, math.MaxUint8, c.ParameterLength())

	_, err = NewCommand(OpcodeVendorWriteRegister, make([]byte, math.MaxUint8+1)...)
	assert.ErrorIs(t, err, ErrInvalidParameter)
}

func TestCommandIsImmutable(t *testing.T) {
	params := []byte{0x0F}
	c, err := NewCommand(OpcodeLEReceiverTest, params...)
	require.NoError(t, err)
	params[0] = 0x10
	c.Bytes()[4] = 0x11
	c.Parameters()[0] = 0x12
	assert.Equal(t, []byte{0x01, 0x1D, 0x20, 0x01, 0x0F}, c.Bytes())
}

func TestParseCommand(t *testing.T) {
	c, err := ParseCommand([]byte{0x01, 0x1E, 0x20, 0x03, 0x0F, 0x25, 0x00})
	require.NoError(t, err)
	assert.Equal(t, OpcodeLETransmitterTest, c.Opcode())
	assert.Equal(t, []byte{0x0F, 0x25, 0x00}, c.Parameters())

	_, err = ParseCommand([]byte{0x01, 0x1E, 0x20, 0x03, 0x0F})
	assert.ErrorIs(t, err, io.ErrShortBuffer)

	_, err = ParseCommand([]byte{0x04, 0x0E, 0x04, 0x00})
	assert.Error(t, err)
}

func TestRegisterAddressRoundTrip(t *testing.T) {
	addrs := []uint32{0, 1, 0xFF, 0x100, 0x46A030B4, 0x46A030C4, 0x80000000, math.MaxUint32}
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 1000; i++ {
		addrs = append(addrs, r.Uint32())
	}
	for _, addr := range addrs {
		buf, err := (&HCIVendorReadRegisterCommandPacket{Address: addr}).Marshal()
		require.NoError(t, err)
		assert.Equal(t, byte(addr), buf[4], "low byte first")

		var p HCIVendorReadRegisterCommandPacket
		require.NoError(t, p.Unmarshal(buf))
		assert.Equal(t, addr, p.Address)
		assert.Equal(t, addr, binary.LittleEndian.Uint32(buf[4:8]))
	}
}

func TestWriteRegisterUnmarshal(t *testing.T) {
	want := HCIVendorWriteRegisterCommandPacket{Address: 0x46A030B8, Value: 0xDEADBEEF}
	buf, err := want.Marshal()
	require.NoError(t, err)

	var got HCIVendorWriteRegisterCommandPacket
	require.NoError(t, got.Unmarshal(buf))
	assert.Equal(t, want, got)

	assert.Error(t, got.Unmarshal(buf[:len(buf)-1]))
}

func TestGenericCommandPacketUnmarshal(t *testing.T) {
	var p GenericCommandPacket
	require.NoError(t, p.Unmarshal([]byte{0x01, 0x03, 0x0C, 0x00}))
	assert.Equal(t, OpcodeReset, p.Opcode())

	assert.ErrorIs(t, p.Unmarshal([]byte{0x01, 0x03}), io.ErrShortBuffer)
	assert.ErrorIs(t, p.Unmarshal([]byte{0x01, 0x1D, 0x20, 0x01, 0x00}), io.ErrShortBuffer)
}

func TestCommandCompleteEventPacket(t *testing.T) {
	var p CommandCompleteEventPacket
	require.NoError(t, p.Unmarshal([]byte{0x04, 0x0E, 0x06, 0x01, 0x1F, 0x20, 0x00, 0xD2, 0x04}))
	assert.Equal(t, OpcodeLETestEnd, p.CommandOpcode)
	assert.Equal(t, uint8(1), p.NumCommandPackets)
	status, ok := p.Status()
	assert.True(t, ok)
	assert.Equal(t, uint8(0), status)

	buf, err := p.Marshal()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x04, 0x0E, 0x06, 0x01, 0x1F, 0x20, 0x00, 0xD2, 0x04}, buf)

	assert.ErrorIs(t, p.Unmarshal([]byte{0x04, 0x0E, 0x06, 0x01, 0x1F, 0x20, 0x00}), io.ErrShortBuffer)
}

func TestOpcodeString(t *testing.T) {
	assert.Equal(t, "HCI_LE_TEST_END", OpcodeLETestEnd.String())
	assert.Equal(t, "0x2001", Opcode(0x2001).String())
	assert.True(t, OpcodeVendorGetVersion.IsVendor())
	assert.False(t, OpcodeLETestEnd.IsVendor())
	assert.Equal(t, uint8(0x08), OpcodeLETestEnd.OGF())
	assert.Equal(t, uint16(0x1F), OpcodeLETestEnd.OCF())
}
