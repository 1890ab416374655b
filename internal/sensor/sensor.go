// Package sensor holds the measurement data model exchanged with the device.
package sensor

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hjeldin/dive-computer-proto/internal/protocol/tlv"
)

// NameLen is the fixed width of a sensor name on the device.
const NameLen = 16

var ErrUnknownReadingType = errors.New("sensor: unknown reading type")

// ReadingType identifies the physical quantity a reading measures.
type ReadingType uint8

const (
	// Depth in centimeters.
	Depth ReadingType = iota
	// Temperature in tenths of a degree Celsius (215 = 21.5°C).
	Temperature
	// Pressure in millibars.
	Pressure
	// Battery level in percent.
	Battery
)

func (t ReadingType) Valid() bool {
	return t <= Battery
}

func (t ReadingType) String() string {
	switch t {
	case Depth:
		return "depth"
	case Temperature:
		return "temperature"
	case Pressure:
		return "pressure"
	case Battery:
		return "battery"
	default:
		return fmt.Sprintf("reading(%d)", uint8(t))
	}
}

// ParseReadingType accepts the names printed by String.
func ParseReadingType(raw string) (ReadingType, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "depth":
		return Depth, nil
	case "temperature", "temp":
		return Temperature, nil
	case "pressure":
		return Pressure, nil
	case "battery":
		return Battery, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownReadingType, raw)
	}
}

// Sensor is a physical sensor attached to the device.
type Sensor struct {
	ID   uint16        `cbor:"1,keyasint"`
	Name [NameLen]byte `cbor:"2,keyasint"`
}

// New builds a sensor, truncating or space-padding name to NameLen bytes.
func New(id uint16, name string) Sensor {
	s := Sensor{ID: id}
	for i := range s.Name {
		s.Name[i] = ' '
	}
	copy(s.Name[:], name)
	return s
}

// DisplayName returns the name without trailing padding.
func (s Sensor) DisplayName() string {
	return strings.TrimRight(string(s.Name[:]), " \x00")
}

// Reading is one timestamped measurement.
type Reading struct {
	SensorID uint16      `cbor:"1,keyasint"`
	Type     ReadingType `cbor:"2,keyasint"`
	Value    int32       `cbor:"3,keyasint"`
	// Timestamp is milliseconds since device start.
	Timestamp uint64 `cbor:"4,keyasint"`
}

// Field ids used when a Reading travels as a TLV payload.
const (
	FieldSensorID  uint8 = 1
	FieldType      uint8 = 2
	FieldValue     uint8 = 3
	FieldTimestamp uint8 = 4
)

func (r Reading) MarshalTLV() (tlv.Fields, error) {
	if !r.Type.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownReadingType, r.Type)
	}
	return tlv.Fields{
		tlv.U16(FieldSensorID, r.SensorID),
		tlv.U8(FieldType, uint8(r.Type)),
		tlv.I32(FieldValue, r.Value),
		tlv.U64(FieldTimestamp, r.Timestamp),
	}, nil
}

func (r *Reading) UnmarshalTLV(fs tlv.Fields) error {
	var out Reading
	f, ok := fs.Get(FieldSensorID)
	if !ok {
		return fmt.Errorf("%w: sensor id", tlv.ErrMissingField)
	}
	var err error
	if out.SensorID, err = f.Uint16(); err != nil {
		return err
	}

	if f, ok = fs.Get(FieldType); !ok {
		return fmt.Errorf("%w: reading type", tlv.ErrMissingField)
	}
	t, err := f.Uint8()
	if err != nil {
		return err
	}
	out.Type = ReadingType(t)
	if !out.Type.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownReadingType, t)
	}

	if f, ok = fs.Get(FieldValue); !ok {
		return fmt.Errorf("%w: value", tlv.ErrMissingField)
	}
	if out.Value, err = f.Int32(); err != nil {
		return err
	}

	if f, ok = fs.Get(FieldTimestamp); !ok {
		return fmt.Errorf("%w: timestamp", tlv.ErrMissingField)
	}
	if out.Timestamp, err = f.Uint64(); err != nil {
		return err
	}

	*r = out
	return nil
}
