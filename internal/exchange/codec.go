package exchange

import (
	"fmt"

	"github.com/hjeldin/dive-computer-proto/internal/config"
	"github.com/hjeldin/dive-computer-proto/internal/protocol"
	"github.com/hjeldin/dive-computer-proto/internal/protocol/cborcodec"
	"github.com/hjeldin/dive-computer-proto/internal/protocol/tlv"
)

// NotificationCodec resolves a configured codec name. Commands and responses
// always use TLV; only notification payloads are switchable.
func NotificationCodec(name string) (protocol.Codec, error) {
	switch name {
	case config.CodecTLV, "":
		return tlv.Codec{}, nil
	case config.CodecCBOR:
		return cborcodec.Codec{}, nil
	default:
		return nil, fmt.Errorf("exchange: unknown notification codec %q", name)
	}
}
