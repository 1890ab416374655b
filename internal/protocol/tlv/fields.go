package tlv

import (
	"encoding/binary"
	"fmt"
)

// U8 creates a uint8 field.
func U8(id uint8, v uint8) Field {
	return Field{ID: id, Type: TypeU8, Value: []byte{v}}
}

// U16 creates a uint16 field.
func U16(id uint8, v uint16) Field {
	return Field{ID: id, Type: TypeU16, Value: putU16(v)}
}

// U32 creates a uint32 field.
func U32(id uint8, v uint32) Field {
	return Field{ID: id, Type: TypeU32, Value: putU32(v)}
}

// U64 creates a uint64 field.
func U64(id uint8, v uint64) Field {
	return Field{ID: id, Type: TypeU64, Value: putU64(v)}
}

// I32 creates a two's complement int32 field.
func I32(id uint8, v int32) Field {
	return Field{ID: id, Type: TypeI32, Value: putU32(uint32(v))}
}

// Bool creates a bool field.
func Bool(id uint8, v bool) Field {
	b := byte(0)
	if v {
		b = 1
	}
	return Field{ID: id, Type: TypeBool, Value: []byte{b}}
}

// String creates a string field.
func String(id uint8, v string) Field {
	return Field{ID: id, Type: TypeString, Value: []byte(v)}
}

// Bytes creates a bytes field holding a copy of v.
func Bytes(id uint8, v []byte) Field {
	buf := make([]byte, len(v))
	copy(buf, v)
	return Field{ID: id, Type: TypeBytes, Value: buf}
}

// Uint8 returns the field value as uint8.
func (f Field) Uint8() (uint8, error) {
	if err := MustType(f, TypeU8); err != nil {
		return 0, err
	}
	return f.Value[0], nil
}

// Uint16 returns the field value as uint16.
func (f Field) Uint16() (uint16, error) {
	if err := MustType(f, TypeU16); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(f.Value), nil
}

// Uint32 returns the field value as uint32.
func (f Field) Uint32() (uint32, error) {
	if err := MustType(f, TypeU32); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(f.Value), nil
}

// Uint64 returns the field value as uint64.
func (f Field) Uint64() (uint64, error) {
	if err := MustType(f, TypeU64); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(f.Value), nil
}

// Int32 returns the field value as int32.
func (f Field) Int32() (int32, error) {
	if err := MustType(f, TypeI32); err != nil {
		return 0, err
	}
	return int32(binary.BigEndian.Uint32(f.Value)), nil
}

// Bool returns the field value as bool.
func (f Field) Bool() (bool, error) {
	if err := MustType(f, TypeBool); err != nil {
		return false, err
	}
	switch f.Value[0] {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, ErrInvalidBool
	}
}

// String returns the field value as string.
func (f Field) String() (string, error) {
	if err := MustType(f, TypeString); err != nil {
		return "", err
	}
	return string(f.Value), nil
}

// Bytes returns a copy of the field value.
func (f Field) Bytes() ([]byte, error) {
	if err := MustType(f, TypeBytes); err != nil {
		return nil, err
	}
	buf := make([]byte, len(f.Value))
	copy(buf, f.Value)
	return buf, nil
}

// FixedBytes copies a bytes field of exactly len(dst) bytes into dst.
func (f Field) FixedBytes(dst []byte) error {
	if err := MustType(f, TypeBytes); err != nil {
		return err
	}
	if len(f.Value) != len(dst) {
		return fmt.Errorf("%w: field %d len %d want %d", ErrInvalidLength, f.ID, len(f.Value), len(dst))
	}
	copy(dst, f.Value)
	return nil
}
