package protocol

import (
	"errors"
	"testing"
)

func TestNewHeaderWireImage(t *testing.T) {
	h := NewHeader(KindCommand, 123, 4)
	want := [HeaderSize]byte{0xDC, 0x42, 0x01, 0x01, 0x00, 0x7B, 0x00, 0x04, 0x60}
	if got := h.Bytes(); got != want {
		t.Fatalf("header mismatch: got=% x want=% x", got, want)
	}
	if !h.ValidChecksum() {
		t.Fatalf("expected valid checksum")
	}
}

func TestHeaderBigEndianFields(t *testing.T) {
	h := NewHeader(KindResponse, 0x1234, 0x00F6)
	b := h.Bytes()
	if b[4] != 0x12 || b[5] != 0x34 {
		t.Fatalf("sequence not big-endian: % x", b[4:6])
	}
	if b[6] != 0x00 || b[7] != 0xF6 {
		t.Fatalf("payload length not big-endian: % x", b[6:8])
	}
}

func TestHeaderChecksumTracksFields(t *testing.T) {
	h := NewHeader(KindNotification, 1, 0)
	h.Sequence = 2
	if h.ValidChecksum() {
		t.Fatalf("expected checksum to fail after field change")
	}
}

func TestParseHeaderRoundTrip(t *testing.T) {
	in := NewHeader(KindAck, 65535, 246)
	b := in.Bytes()
	out, err := ParseHeader(b[:])
	if err != nil {
		t.Fatalf("parse header: %v", err)
	}
	if out != in {
		t.Fatalf("header mismatch: got=%+v want=%+v", out, in)
	}
}

func TestAppendBinary(t *testing.T) {
	h := NewHeader(KindError, 9, 3)
	out, err := h.AppendBinary([]byte{0xAA})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if len(out) != 1+HeaderSize || out[0] != 0xAA || out[1] != Magic[0] {
		t.Fatalf("unexpected append result: % x", out)
	}
}

func TestParseHeaderShortInput(t *testing.T) {
	for n := 0; n < HeaderSize; n++ {
		_, err := ParseHeader(make([]byte, n))
		if !errors.Is(err, ErrInvalidFormat) {
			t.Fatalf("len=%d: expected ErrInvalidFormat, got %v", n, err)
		}
	}
}

func TestParseHeaderGateOrder(t *testing.T) {
	valid := NewHeader(KindCommand, 7, 0).Bytes()

	cases := []struct {
		name   string
		mutate func(b []byte)
		want   error
	}{
		{"unknown kind beats magic", func(b []byte) { b[0] = 0; b[3] = 0x09 }, ErrDeserialization},
		{"magic first byte", func(b []byte) { b[0] ^= 0x01 }, ErrInvalidMagic},
		{"magic second byte", func(b []byte) { b[1] = 0x00 }, ErrInvalidMagic},
		{"magic beats version", func(b []byte) { b[1] = 0x00; b[2] = 9 }, ErrInvalidMagic},
		{"version", func(b []byte) { b[2] = 2 }, ErrUnsupportedVersion},
		{"version beats checksum", func(b []byte) { b[2] = 0; b[8]++ }, ErrUnsupportedVersion},
		{"kind swapped to another valid kind", func(b []byte) { b[3] = byte(KindResponse) }, ErrChecksumMismatch},
		{"sequence", func(b []byte) { b[5]++ }, ErrChecksumMismatch},
		{"header checksum", func(b []byte) { b[8]++ }, ErrChecksumMismatch},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := valid
			tc.mutate(b[:])
			_, err := ParseHeader(b[:])
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestKindNames(t *testing.T) {
	for _, k := range []Kind{KindCommand, KindResponse, KindNotification, KindAck, KindError} {
		got, err := ParseKind(k.String())
		if err != nil {
			t.Fatalf("parse %s: %v", k, err)
		}
		if got != k {
			t.Fatalf("kind mismatch: got=%s want=%s", got, k)
		}
	}
	if _, err := ParseKind("broadcast"); err == nil {
		t.Fatalf("expected error for unknown kind")
	}
	if Kind(0).Valid() || Kind(6).Valid() {
		t.Fatalf("expected out-of-range kinds to be invalid")
	}
}
