package sensor

import (
	"testing"

	"github.com/hjeldin/dive-computer-proto/internal/protocol/tlv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPadsAndTruncatesName(t *testing.T) {
	s := New(1, "Depth Sensor")
	assert.Equal(t, "Depth Sensor    ", string(s.Name[:]))
	assert.Equal(t, "Depth Sensor", s.DisplayName())

	long := New(2, "Temperature Sensor Long")
	assert.Equal(t, "Temperature Sens", string(long.Name[:]))
}

func TestReadingTLVRoundTrip(t *testing.T) {
	in := Reading{SensorID: 2, Type: Temperature, Value: -15, Timestamp: 1234567890}

	var c tlv.Codec
	b, err := c.Marshal(in)
	require.NoError(t, err)

	var out Reading
	require.NoError(t, c.Unmarshal(b, &out))
	assert.Equal(t, in, out)
}

func TestReadingRejectsUnknownType(t *testing.T) {
	var c tlv.Codec
	_, err := c.Marshal(Reading{Type: ReadingType(9)})
	assert.ErrorIs(t, err, ErrUnknownReadingType)

	fs := tlv.Fields{tlv.U16(FieldSensorID, 1), tlv.U8(FieldType, 9), tlv.I32(FieldValue, 0), tlv.U64(FieldTimestamp, 0)}
	var r Reading
	assert.ErrorIs(t, r.UnmarshalTLV(fs), ErrUnknownReadingType)
}

func TestReadingMissingField(t *testing.T) {
	var r Reading
	err := r.UnmarshalTLV(tlv.Fields{tlv.U16(FieldSensorID, 1)})
	assert.ErrorIs(t, err, tlv.ErrMissingField)
}

func TestParseReadingType(t *testing.T) {
	for _, rt := range []ReadingType{Depth, Temperature, Pressure, Battery} {
		got, err := ParseReadingType(rt.String())
		require.NoError(t, err)
		assert.Equal(t, rt, got)
	}
	_, err := ParseReadingType("salinity")
	assert.ErrorIs(t, err, ErrUnknownReadingType)
}
