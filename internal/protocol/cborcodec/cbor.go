// Package cborcodec is a protocol.Codec backed by deterministic CBOR
// (RFC 8949 core deterministic encoding). It suits plain struct payloads such
// as sensor readings; it cannot carry the sealed command interfaces.
package cborcodec

import (
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

var ErrEmptyPayload = errors.New("cborcodec: empty payload")

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("cborcodec: encoder initialization failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{
		// A corrupted key must not decode as an ignored field.
		ExtraReturnErrors: cbor.ExtraDecErrorUnknownField,
		MaxNestedLevels:   16,
		MaxArrayElements:  256,
		MaxMapPairs:       256,
	}.DecMode()
	if err != nil {
		panic("cborcodec: decoder initialization failed: " + err.Error())
	}
}

// Codec encodes payloads as a single CBOR data item.
type Codec struct{}

func (Codec) Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes exactly one CBOR item; trailing bytes are an error.
func (Codec) Unmarshal(data []byte, v any) error {
	if len(data) == 0 {
		return ErrEmptyPayload
	}
	return decMode.Unmarshal(data, v)
}

// Diagnose renders data in CBOR diagnostic notation.
func Diagnose(data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyPayload
	}
	out, err := cbor.Diagnose(data)
	if err != nil {
		return "", fmt.Errorf("cborcodec: diagnose: %w", err)
	}
	return out, nil
}
