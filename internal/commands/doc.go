// Package commands defines the command/response vocabulary carried inside
// protocol messages and its TLV field contract.
//
// The framing layer never looks inside these values; it only needs them to
// implement tlv.Marshaler and tlv.Unmarshaler.
package commands
