package protocol

import "errors"

var (
	ErrMessageTooLarge    = errors.New("protocol: message too large")
	ErrInvalidFormat      = errors.New("protocol: invalid format")
	ErrChecksumMismatch   = errors.New("protocol: checksum mismatch")
	ErrInvalidMagic       = errors.New("protocol: invalid magic")
	ErrUnsupportedVersion = errors.New("protocol: unsupported version")
	ErrSerialization      = errors.New("protocol: payload serialization failed")
	ErrDeserialization    = errors.New("protocol: payload deserialization failed")
)
