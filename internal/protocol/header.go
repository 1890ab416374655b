package protocol

import (
	"encoding/binary"
	"fmt"
)

// Header is the fixed wire header. Values built by NewHeader or returned by
// ParseHeader always carry a checksum matching their other fields.
type Header struct {
	Magic          [2]byte
	Version        uint8
	Kind           Kind
	Sequence       uint16
	PayloadLength  uint16
	HeaderChecksum uint8
}

// NewHeader builds a header for the current protocol revision.
func NewHeader(kind Kind, sequence, payloadLength uint16) Header {
	h := Header{
		Magic:         Magic,
		Version:       Version,
		Kind:          kind,
		Sequence:      sequence,
		PayloadLength: payloadLength,
	}
	h.HeaderChecksum = h.computeChecksum()
	return h
}

// ValidChecksum recomputes the checksum from the header fields and compares it
// with the stored one.
func (h Header) ValidChecksum() bool {
	return h.computeChecksum() == h.HeaderChecksum
}

// Bytes returns the 9-byte wire image.
func (h Header) Bytes() [HeaderSize]byte {
	var buf [HeaderSize]byte
	h.putFields(buf[:HeaderSize-1])
	buf[HeaderSize-1] = h.HeaderChecksum
	return buf
}

// AppendBinary appends the wire image to b.
func (h Header) AppendBinary(b []byte) ([]byte, error) {
	img := h.Bytes()
	return append(b, img[:]...), nil
}

func (h Header) String() string {
	return fmt.Sprintf("magic=%#02x%02x version=%d kind=%s seq=%d len=%d checksum=%#02x",
		h.Magic[0], h.Magic[1], h.Version, h.Kind, h.Sequence, h.PayloadLength, h.HeaderChecksum)
}

// computeChecksum covers the byte image, not the abstract fields, so the field
// order and widths are part of the contract.
func (h Header) computeChecksum() uint8 {
	var fields [HeaderSize - 1]byte
	h.putFields(fields[:])
	return Checksum(fields[:])
}

func (h Header) putFields(buf []byte) {
	buf[0] = h.Magic[0]
	buf[1] = h.Magic[1]
	buf[2] = h.Version
	buf[3] = byte(h.Kind)
	binary.BigEndian.PutUint16(buf[4:6], h.Sequence)
	binary.BigEndian.PutUint16(buf[6:8], h.PayloadLength)
}

// ParseHeader decodes and validates the header at the front of data. Checks
// run in a fixed order so the same input always reports the same error:
// length, kind tag, magic, version, checksum.
func ParseHeader(data []byte) (Header, error) {
	if len(data) < HeaderSize {
		return Header{}, fmt.Errorf("%w: %d bytes, header needs %d", ErrInvalidFormat, len(data), HeaderSize)
	}
	h, err := decodeHeader(data[:HeaderSize])
	if err != nil {
		return Header{}, err
	}
	if h.Magic != Magic {
		return Header{}, ErrInvalidMagic
	}
	if h.Version != Version {
		return Header{}, fmt.Errorf("%w: %d", ErrUnsupportedVersion, h.Version)
	}
	if !h.ValidChecksum() {
		return Header{}, fmt.Errorf("%w: header", ErrChecksumMismatch)
	}
	return h, nil
}

func decodeHeader(buf []byte) (Header, error) {
	kind := Kind(buf[3])
	if !kind.Valid() {
		return Header{}, fmt.Errorf("%w: unknown kind tag %d", ErrDeserialization, buf[3])
	}
	return Header{
		Magic:          [2]byte{buf[0], buf[1]},
		Version:        buf[2],
		Kind:           kind,
		Sequence:       binary.BigEndian.Uint16(buf[4:6]),
		PayloadLength:  binary.BigEndian.Uint16(buf[6:8]),
		HeaderChecksum: buf[8],
	}, nil
}
