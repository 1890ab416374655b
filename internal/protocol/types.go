package protocol

import (
	"fmt"
	"strings"
)

const (
	// MaxMessageSize bounds a complete serialized message.
	MaxMessageSize = 256
	// HeaderSize is the fixed wire size of Header.
	HeaderSize = 9
	// MaxPayloadSize is the largest encoded payload that still leaves room for
	// the header and the trailing payload checksum.
	MaxPayloadSize = MaxMessageSize - HeaderSize - 1

	Version uint8 = 1
)

// Magic marks the first two bytes of every message.
var Magic = [2]byte{0xDC, 0x42}

// Kind describes the role of a message. It never changes parsing logic.
type Kind uint8

const (
	KindCommand      Kind = 0x01
	KindResponse     Kind = 0x02
	KindNotification Kind = 0x03
	KindAck          Kind = 0x04
	KindError        Kind = 0x05
)

// Valid reports whether k is one of the defined wire tags.
func (k Kind) Valid() bool {
	return k >= KindCommand && k <= KindError
}

func (k Kind) String() string {
	switch k {
	case KindCommand:
		return "command"
	case KindResponse:
		return "response"
	case KindNotification:
		return "notification"
	case KindAck:
		return "ack"
	case KindError:
		return "error"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// ParseKind maps a kind name (as printed by String) back to its tag.
func ParseKind(raw string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "command", "cmd":
		return KindCommand, nil
	case "response", "resp":
		return KindResponse, nil
	case "notification", "notify":
		return KindNotification, nil
	case "ack":
		return KindAck, nil
	case "error", "err":
		return KindError, nil
	default:
		return 0, fmt.Errorf("protocol: unknown message kind %q", raw)
	}
}
