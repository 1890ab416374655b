package tlv

import (
	"errors"
	"fmt"
)

var (
	ErrNotMarshaler   = errors.New("tlv: value does not implement Marshaler")
	ErrNotUnmarshaler = errors.New("tlv: value does not implement Unmarshaler")
)

// Marshaler is implemented by payload values that know their TLV fields.
type Marshaler interface {
	MarshalTLV() (Fields, error)
}

// Unmarshaler is implemented by pointers to payload values that can rebuild
// themselves from TLV fields.
type Unmarshaler interface {
	UnmarshalTLV(Fields) error
}

// Codec adapts Marshaler/Unmarshaler values to byte slices.
type Codec struct{}

func (Codec) Marshal(v any) ([]byte, error) {
	m, ok := v.(Marshaler)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrNotMarshaler, v)
	}
	fields, err := m.MarshalTLV()
	if err != nil {
		return nil, err
	}
	return EncodeFields(fields)
}

func (Codec) Unmarshal(data []byte, v any) error {
	u, ok := v.(Unmarshaler)
	if !ok {
		return fmt.Errorf("%w: %T", ErrNotUnmarshaler, v)
	}
	fields, err := DecodeFields(data)
	if err != nil {
		return err
	}
	return u.UnmarshalTLV(fields)
}
