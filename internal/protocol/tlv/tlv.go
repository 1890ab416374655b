// Package tlv is the self-describing payload encoding used inside protocol
// messages: a flat sequence of id | type | length | value fields.
package tlv

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// HeaderLen is the per-field overhead: id, type and length, one byte each.
const HeaderLen = 3

// MaxValueLen is the longest value a single field can carry.
const MaxValueLen = 0xFF

var (
	ErrShortFieldHeader = errors.New("tlv: short field header")
	ErrShortFieldValue  = errors.New("tlv: short field value")
	ErrValueTooLong     = errors.New("tlv: value too long")
	ErrUnknownType      = errors.New("tlv: unknown field type")
	ErrInvalidLength    = errors.New("tlv: invalid length for field type")
	ErrTypeMismatch     = errors.New("tlv: field type mismatch")
	ErrMissingField     = errors.New("tlv: missing field")
	ErrInvalidBool      = errors.New("tlv: invalid bool value")
)

// Type IDs. Fixed-width types must carry exactly their width.
const (
	TypeU8     uint8 = 1
	TypeU16    uint8 = 2
	TypeU32    uint8 = 3
	TypeU64    uint8 = 4
	TypeBool   uint8 = 5
	TypeString uint8 = 6
	TypeBytes  uint8 = 7
	TypeI32    uint8 = 8
)

// Field is one decoded TLV field.
type Field struct {
	ID    uint8
	Type  uint8
	Value []byte
}

// Fields is an ordered field list. It satisfies both Marshaler and
// Unmarshaler, so raw field lists can be framed directly.
type Fields []Field

// fixedWidth returns the required value width for t, or -1 when the type is
// variable length.
func fixedWidth(t uint8) int {
	switch t {
	case TypeU8, TypeBool:
		return 1
	case TypeU16:
		return 2
	case TypeU32, TypeI32:
		return 4
	case TypeU64:
		return 8
	case TypeString, TypeBytes:
		return -1
	default:
		return 0
	}
}

func checkField(f Field) error {
	w := fixedWidth(f.Type)
	if w == 0 {
		return fmt.Errorf("%w: field %d type %d", ErrUnknownType, f.ID, f.Type)
	}
	if w > 0 && len(f.Value) != w {
		return fmt.Errorf("%w: field %d type %d len %d", ErrInvalidLength, f.ID, f.Type, len(f.Value))
	}
	if len(f.Value) > MaxValueLen {
		return fmt.Errorf("%w: field %d len %d", ErrValueTooLong, f.ID, len(f.Value))
	}
	return nil
}

// AppendField appends the wire form of f to dst.
func AppendField(dst []byte, f Field) ([]byte, error) {
	if err := checkField(f); err != nil {
		return nil, err
	}
	dst = append(dst, f.ID, f.Type, byte(len(f.Value)))
	return append(dst, f.Value...), nil
}

// EncodeFields encodes fields in order. An empty list encodes to zero bytes.
func EncodeFields(fields []Field) ([]byte, error) {
	size := 0
	for _, f := range fields {
		size += HeaderLen + len(f.Value)
	}
	out := make([]byte, 0, size)
	for _, f := range fields {
		var err error
		out, err = AppendField(out, f)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// DecodeFields parses payload into fields. Unknown ids are preserved; unknown
// types and wrong fixed widths are rejected. Empty input yields nil.
func DecodeFields(payload []byte) (Fields, error) {
	if len(payload) == 0 {
		return nil, nil
	}
	fields := make(Fields, 0, 4)
	for i := 0; i < len(payload); {
		if len(payload)-i < HeaderLen {
			return nil, ErrShortFieldHeader
		}
		id := payload[i]
		typeID := payload[i+1]
		l := int(payload[i+2])
		i += HeaderLen
		if len(payload)-i < l {
			return nil, ErrShortFieldValue
		}
		val := make([]byte, l)
		copy(val, payload[i:i+l])
		i += l
		f := Field{ID: id, Type: typeID, Value: val}
		if err := checkField(f); err != nil {
			return nil, err
		}
		fields = append(fields, f)
	}
	return fields, nil
}

// Get returns the first field with the given id.
func (fs Fields) Get(id uint8) (Field, bool) {
	for _, f := range fs {
		if f.ID == id {
			return f, true
		}
	}
	return Field{}, false
}

// MustType checks that f has the expected type.
func MustType(f Field, expected uint8) error {
	if f.Type != expected {
		return fmt.Errorf("%w: field %d got %d want %d", ErrTypeMismatch, f.ID, f.Type, expected)
	}
	return nil
}

func (fs Fields) MarshalTLV() (Fields, error) {
	return fs, nil
}

func (fs *Fields) UnmarshalTLV(in Fields) error {
	*fs = in
	return nil
}

func putU16(v uint16) []byte {
	buf := make([]byte, 2)
	binary.BigEndian.PutUint16(buf, v)
	return buf
}

func putU32(v uint32) []byte {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, v)
	return buf
}

func putU64(v uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, v)
	return buf
}
