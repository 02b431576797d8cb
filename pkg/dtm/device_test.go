package dtm

import (
	"testing"

	"github.com/muxable/dtm/pkg/hci"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingObserver struct {
	exchanges []*Exchange
}

func (o *recordingObserver) ObserveExchange(e *Exchange) {
	o.exchanges = append(o.exchanges, e)
}

func newTestDevice(rw *fakeTransport) *Device {
	return NewDevice("dut", NewTransactor(rw, TransactorConfig{Clock: newFakeClock()}), nil)
}

func TestDeviceTestEndPacketCount(t *testing.T) {
	rw := (&fakeTransport{}).queue(complete(hci.OpcodeLETestEnd, 0x00, 0xD2, 0x04))
	obs := &recordingObserver{}
	d := newTestDevice(rw)
	d.Observer = obs

	res, err := d.TestEnd()
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.Equal(t, uint64(1234), res.PacketCount)
	assert.False(t, res.Short())
	assert.Equal(t, "040e06011f2000d204", res.ResponseHex())
	require.Len(t, obs.exchanges, 1)
	assert.Equal(t, "dut", obs.exchanges[0].Device)
}

func TestDeviceTestEndShortResponse(t *testing.T) {
	rw := (&fakeTransport{}).queue([]byte{0x04, 0x0E, 0x06, 0x01, 0x1F, 0x20, 0x00})
	res, err := newTestDevice(rw).TestEnd()
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.True(t, res.Short())
	assert.Len(t, res.Response, 7)
}

func TestDeviceTestEndWideCount(t *testing.T) {
	layouts := hci.DefaultLayouts()
	end := layouts.For(hci.OpcodeLETestEnd).WithField(hci.Field{Name: hci.FieldPacketCount, Offset: 7, Width: 4})
	end.Length = 11
	layouts[hci.OpcodeLETestEnd] = end

	// 70000 does not fit in two bytes.
	rw := (&fakeTransport{}).queue(complete(hci.OpcodeLETestEnd, 0x00, 0x70, 0x11, 0x01, 0x00))
	d := NewDevice("rx", NewTransactor(rw, TransactorConfig{Clock: newFakeClock()}), layouts)

	res, err := d.TestEnd()
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.Equal(t, uint64(70000), res.PacketCount)
}

func TestDeviceReadRegister(t *testing.T) {
	rw := (&fakeTransport{}).queue(complete(hci.OpcodeVendorReadRegister, 0x00, 0x14, 0x56, 0x34, 0x12))
	v, e, err := newTestDevice(rw).ReadRegister(0x46A030B4)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x12345614), v)
	assert.Equal(t, []byte{0x01, 0x0E, 0xFC, 0x04, 0xB4, 0x30, 0xA0, 0x46}, e.Command.Bytes())
}

func TestDeviceReadRegisterShort(t *testing.T) {
	rw := (&fakeTransport{}).queue([]byte{0x04, 0x0E, 0x08, 0x01, 0x0E, 0xFC, 0x00, 0x14})
	_, e, err := newTestDevice(rw).ReadRegister(0x46A030B4)
	assert.ErrorIs(t, err, hci.ErrShortResponse)
	require.NotNil(t, e)
	assert.True(t, e.Short())
}

func TestDeviceReadVersionAndHWID(t *testing.T) {
	rw := (&fakeTransport{}).queue(
		complete(hci.OpcodeVendorGetVersion, 0x00, 0x16, 0x00, 0x00, 0x00),
		complete(hci.OpcodeVendorGetHWID, 0x00, 0x28, 0x06, 0x00, 0x00),
	)
	d := newTestDevice(rw)

	v, _, err := d.ReadVersion()
	require.NoError(t, err)
	assert.Equal(t, uint32(0x16), v)

	id, _, err := d.ReadHWID()
	require.NoError(t, err)
	assert.Equal(t, uint32(0x0628), id)
}

func TestDeviceRejectsBeforeWriting(t *testing.T) {
	rw := &fakeTransport{}
	d := newTestDevice(rw)

	_, err := d.ReceiverTest(Session{Channel: 40})
	assert.ErrorIs(t, err, hci.ErrInvalidParameter)
	_, err = d.CarrierTX(0x30, 0)
	assert.ErrorIs(t, err, hci.ErrInvalidParameter)
	assert.Empty(t, rw.writes)
}

func TestDeviceStatus(t *testing.T) {
	rw := (&fakeTransport{}).queue(complete(hci.OpcodeLEReceiverTest, 0x12))
	e, err := newTestDevice(rw).ReceiverTest(Session{Channel: 0x0F})
	require.NoError(t, err)
	status, err := e.Status()
	require.NoError(t, err)
	assert.Equal(t, uint8(0x12), status)
}

func TestDeviceCommands(t *testing.T) {
	rw := &fakeTransport{}
	d := newTestDevice(rw)
	s := Session{Channel: 0x00, DataLength: 0x25, PHY: hci.PHY2M}

	_, err := d.EnhancedReceiverTest(s)
	require.NoError(t, err)
	_, err = d.EnhancedTransmitterTest(s)
	require.NoError(t, err)
	_, err = d.VendorTransmitterTest(s, true, 0)
	require.NoError(t, err)
	_, err = d.SetTXPower(hci.TXPowerLevel0dBm)
	require.NoError(t, err)
	_, err = d.StopCarrierTX()
	require.NoError(t, err)
	_, err = d.VendorTransmitterTestEnd()
	require.NoError(t, err)
	_, err = d.WriteRegister(0x46A030B4, 0x24)
	require.NoError(t, err)
	_, err = d.EnterDeepSleep()
	require.NoError(t, err)

	assert.Equal(t, []hci.Opcode{
		hci.OpcodeLEEnhancedReceiverTest,
		hci.OpcodeLEEnhancedTransmitterTest,
		hci.OpcodeVendorTransmitterTest,
		hci.OpcodeVendorSetTXPower,
		hci.OpcodeVendorStopCarrierTX,
		hci.OpcodeVendorTransmitterTestEnd,
		hci.OpcodeVendorWriteRegister,
		hci.OpcodeVendorEnterDeepSleep,
	}, rw.opcodes())
	assert.Equal(t, []byte{0x01, 0x0D, 0xFC, 0x08, 0x00, 0x25, 0x00, 0x02, 0x00, 0x01, 0x00, 0x00}, rw.writes[2])
}

func TestSessionValidate(t *testing.T) {
	assert.NoError(t, Session{Channel: 39}.Validate())
	assert.NoError(t, Session{Channel: 0, PHY: hci.PHYCodedS2}.Validate())
	assert.ErrorIs(t, Session{Channel: 40}.Validate(), hci.ErrInvalidParameter)
	assert.ErrorIs(t, Session{Payload: 9}.Validate(), hci.ErrInvalidParameter)
	assert.ErrorIs(t, Session{PHY: 7}.Validate(), hci.ErrInvalidParameter)
	assert.ErrorIs(t, Session{ModulationIndex: 3}.Validate(), hci.ErrInvalidParameter)
}
