// Package protocol owns the device/host wire contract.
//
// Ownership boundary:
// - checksum primitive
// - fixed 9-byte header
// - message envelope construction, serialization and parsing
// - payload codec boundary (see Codec)
//
// Nothing in this package performs I/O or keeps state between calls.
package protocol
