package protocol

import (
	"fmt"
	"math"
)

// Message couples a header with a typed payload and the checksum of its
// encoded form. A Message is immutable: the encoded payload and both
// checksums are fixed when it is built or parsed.
type Message[T any] struct {
	header          Header
	payload         T
	payloadChecksum uint8
	encoded         []byte
}

// NewMessage encodes payload once to learn its length and checksum and builds
// the header from them.
func NewMessage[T any](kind Kind, sequence uint16, payload T, opts ...Option) (Message[T], error) {
	o := buildOptions(opts)

	encoded, err := o.codec.Marshal(payload)
	if err != nil {
		return Message[T]{}, fmt.Errorf("%w: %w", ErrSerialization, err)
	}
	if len(encoded) > math.MaxUint16 || len(encoded) > MaxPayloadSize {
		return Message[T]{}, fmt.Errorf("%w: payload is %d bytes, limit %d", ErrMessageTooLarge, len(encoded), MaxPayloadSize)
	}

	raw := make([]byte, len(encoded))
	copy(raw, encoded)
	return Message[T]{
		header:          NewHeader(kind, sequence, uint16(len(raw))),
		payload:         payload,
		payloadChecksum: Checksum(raw),
		encoded:         raw,
	}, nil
}

func (m Message[T]) Header() Header {
	return m.header
}

func (m Message[T]) Payload() T {
	return m.payload
}

func (m Message[T]) PayloadChecksum() uint8 {
	return m.payloadChecksum
}

func (m Message[T]) Kind() Kind {
	return m.header.Kind
}

func (m Message[T]) Sequence() uint16 {
	return m.header.Sequence
}

// EncodedPayload returns a copy of the payload bytes as they appear on the wire.
func (m Message[T]) EncodedPayload() []byte {
	out := make([]byte, len(m.encoded))
	copy(out, m.encoded)
	return out
}

// Len is the total serialized size.
func (m Message[T]) Len() int {
	return HeaderSize + len(m.encoded) + 1
}

// Serialize writes header, payload and payload checksum into a fixed buffer
// and returns the number of bytes used. Bytes past n are zero and carry no
// meaning.
func (m Message[T]) Serialize() (int, [MaxMessageSize]byte, error) {
	var buf [MaxMessageSize]byte

	head := m.header.Bytes()
	offset := copy(buf[:], head[:])
	if len(m.encoded) > len(buf)-offset {
		return 0, [MaxMessageSize]byte{}, ErrMessageTooLarge
	}
	offset += copy(buf[offset:], m.encoded)

	if offset >= MaxMessageSize {
		return 0, [MaxMessageSize]byte{}, ErrMessageTooLarge
	}
	buf[offset] = m.payloadChecksum
	offset++

	return offset, buf, nil
}

// MarshalBinary returns exactly the serialized bytes.
func (m Message[T]) MarshalBinary() ([]byte, error) {
	n, buf, err := m.Serialize()
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, buf[:n])
	return out, nil
}

// ParseMessage validates data and decodes its payload as T. Every gate is
// hard: later checks never run when an earlier one fails, and no partially
// validated message is returned.
//
// Bytes after the payload checksum are ignored.
func ParseMessage[T any](data []byte, opts ...Option) (Message[T], error) {
	o := buildOptions(opts)

	h, err := ParseHeader(data)
	if err != nil {
		return Message[T]{}, err
	}

	payloadEnd := HeaderSize + int(h.PayloadLength)
	if len(data) < payloadEnd+1 {
		return Message[T]{}, fmt.Errorf("%w: truncated, have %d bytes, header declares %d",
			ErrInvalidFormat, len(data), payloadEnd+1)
	}

	raw := make([]byte, h.PayloadLength)
	copy(raw, data[HeaderSize:payloadEnd])

	var payload T
	if err := o.codec.Unmarshal(raw, &payload); err != nil {
		return Message[T]{}, fmt.Errorf("%w: %w", ErrDeserialization, err)
	}

	sum := data[payloadEnd]
	if Checksum(raw) != sum {
		return Message[T]{}, fmt.Errorf("%w: payload", ErrChecksumMismatch)
	}

	return Message[T]{
		header:          h,
		payload:         payload,
		payloadChecksum: sum,
		encoded:         raw,
	}, nil
}
