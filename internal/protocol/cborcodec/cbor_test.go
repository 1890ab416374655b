package cborcodec

import (
	"testing"

	"github.com/hjeldin/dive-computer-proto/internal/protocol"
	"github.com/hjeldin/dive-computer-proto/internal/sensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadingRoundTripThroughProtocol(t *testing.T) {
	in := sensor.Reading{SensorID: 1, Type: sensor.Depth, Value: 1520, Timestamp: 1234567890}

	msg, err := protocol.NewMessage(protocol.KindNotification, 0, in, protocol.CodecOption(Codec{}))
	require.NoError(t, err)
	wire, err := msg.MarshalBinary()
	require.NoError(t, err)

	out, err := protocol.ParseMessage[sensor.Reading](wire, protocol.CodecOption(Codec{}))
	require.NoError(t, err)
	assert.Equal(t, in, out.Payload())
	assert.Equal(t, msg.Header(), out.Header())
}

func TestDeterministicEncoding(t *testing.T) {
	in := sensor.Reading{SensorID: 2, Type: sensor.Temperature, Value: 215, Timestamp: 99}
	a, err := Codec{}.Marshal(in)
	require.NoError(t, err)
	b, err := Codec{}.Marshal(in)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	// Map with four small integer keys.
	assert.Equal(t, byte(0xa4), a[0])
}

func TestEmptyPayloadRejected(t *testing.T) {
	var r sensor.Reading
	assert.ErrorIs(t, Codec{}.Unmarshal(nil, &r), ErrEmptyPayload)

	_, err := Diagnose(nil)
	assert.ErrorIs(t, err, ErrEmptyPayload)
}

func TestMalformedPayloadWrappedAsDeserialization(t *testing.T) {
	wire := frame(protocol.KindNotification, []byte{0xa4, 0x01})
	_, err := protocol.ParseMessage[sensor.Reading](wire, protocol.CodecOption(Codec{}))
	assert.ErrorIs(t, err, protocol.ErrDeserialization)
}

func TestDiagnose(t *testing.T) {
	b, err := Codec{}.Marshal(sensor.Reading{SensorID: 1, Type: sensor.Depth, Value: -3, Timestamp: 5})
	require.NoError(t, err)
	out, err := Diagnose(b)
	require.NoError(t, err)
	assert.Equal(t, "{1: 1, 2: 0, 3: -3, 4: 5}", out)
}

func frame(kind protocol.Kind, payload []byte) []byte {
	h := protocol.NewHeader(kind, 0, uint16(len(payload)))
	out, _ := h.AppendBinary(nil)
	out = append(out, payload...)
	return append(out, protocol.Checksum(payload))
}
