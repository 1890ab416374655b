package protocol

import "testing"

func TestChecksum(t *testing.T) {
	cases := []struct {
		name string
		in   []byte
		want byte
	}{
		{"empty", nil, 0xFF},
		{"single ff", []byte{0xFF}, 0x00},
		{"wrapping", []byte{0x80, 0x80}, 0xFF},
		{"small", []byte{1, 2, 3}, 0xF9},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Checksum(tc.in); got != tc.want {
				t.Fatalf("checksum mismatch: got=%#02x want=%#02x", got, tc.want)
			}
		})
	}
}

// Transpositions keep the sum unchanged. This is a known limit of the
// algorithm and part of the wire contract.
func TestChecksumMissesTransposition(t *testing.T) {
	if Checksum([]byte{0x01, 0x02}) != Checksum([]byte{0x02, 0x01}) {
		t.Fatalf("expected transposed bytes to share a checksum")
	}
	// +1 on one byte and -1 on another cancel out as well.
	if Checksum([]byte{0x10, 0x20}) != Checksum([]byte{0x11, 0x1F}) {
		t.Fatalf("expected cancelling deltas to share a checksum")
	}
}
