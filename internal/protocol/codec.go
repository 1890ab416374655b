package protocol

import "github.com/hjeldin/dive-computer-proto/internal/protocol/tlv"

// Codec turns payload values into bytes and back. The framing layer treats
// the encoded payload as opaque; the codec must be self-describing enough to
// decode exactly the bytes it produced, including an empty slice.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

// DefaultCodec is the TLV codec used when no CodecOption is supplied.
var DefaultCodec Codec = tlv.Codec{}

type options struct {
	codec Codec
}

// Option configures message construction and parsing.
type Option func(*options)

// CodecOption returns an Option that sets the payload codec. Both sides of a
// link must agree on it; it is not carried on the wire.
func CodecOption(c Codec) Option {
	return func(o *options) {
		o.codec = c
	}
}

func buildOptions(opts []Option) options {
	o := options{codec: DefaultCodec}
	for _, opt := range opts {
		opt(&o)
	}
	if o.codec == nil {
		o.codec = DefaultCodec
	}
	return o
}
