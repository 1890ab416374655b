package exchange

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/hjeldin/dive-computer-proto/internal/commands"
	"github.com/hjeldin/dive-computer-proto/internal/observability"
	"github.com/hjeldin/dive-computer-proto/internal/protocol"
	"github.com/hjeldin/dive-computer-proto/internal/sensor"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Errors a Handler returns to select the ErrorInfo code sent back. Any other
// error is reported as ErrCodeInternal.
var (
	ErrUnsupported = errors.New("exchange: command not supported")
	ErrBusy        = errors.New("exchange: device busy")
)

// Handler executes one decoded command. A nil payload is answered with Ack.
type Handler interface {
	Handle(ctx context.Context, cmd commands.Command) (commands.ResponsePayload, error)
}

type HandlerFunc func(ctx context.Context, cmd commands.Command) (commands.ResponsePayload, error)

func (f HandlerFunc) Handle(ctx context.Context, cmd commands.Command) (commands.ResponsePayload, error) {
	return f(ctx, cmd)
}

type DeviceOption func(*Device)

func WithDeviceName(name string) DeviceOption {
	return func(d *Device) {
		d.name = name
	}
}

func WithDeviceLogger(logger zerolog.Logger) DeviceOption {
	return func(d *Device) {
		d.logger = logger
	}
}

// WithDeviceClock sets the source of response timestamps.
func WithDeviceClock(now func() time.Time) DeviceOption {
	return func(d *Device) {
		d.now = now
	}
}

// WithNotificationCodec sets the codec for Notify payloads.
func WithNotificationCodec(c protocol.Codec) DeviceOption {
	return func(d *Device) {
		d.notifyCodec = c
	}
}

// Device answers command frames through a Handler.
type Device struct {
	name        string
	handler     Handler
	notifyCodec protocol.Codec
	logger      zerolog.Logger
	now         func() time.Time
	started     time.Time
	responseID  atomic.Uint32
}

func NewDevice(handler Handler, opts ...DeviceOption) *Device {
	d := &Device{
		name:        "device",
		handler:     handler,
		notifyCodec: protocol.DefaultCodec,
		logger:      log.Logger,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.started = d.now()
	d.logger = d.logger.With().Str("device", d.name).Logger()
	return d
}

// Serve handles one inbound frame and returns the reply frame to send.
//
// A frame without a trustworthy header, or one that is not a command, gets
// no reply: Serve returns only the parse error. A command whose header
// validates but whose payload does not is answered with an error frame under
// the same sequence, and the parse error is returned alongside it.
func (d *Device) Serve(ctx context.Context, frame []byte) ([]byte, error) {
	hdr, err := protocol.ParseHeader(frame)
	if err != nil {
		return nil, d.reject(err)
	}
	if hdr.Kind != protocol.KindCommand {
		return nil, d.reject(fmt.Errorf("%w: %s", ErrUnexpectedKind, hdr.Kind))
	}

	msg, err := protocol.ParseMessage[commands.Request](frame)
	if err != nil {
		if errors.Is(err, protocol.ErrInvalidFormat) {
			return nil, d.reject(err)
		}
		reply, rerr := d.reply(hdr.Sequence, 0, commands.StatusError, commands.ErrorInfo{Code: payloadErrorCode(err)})
		if rerr != nil {
			return nil, errors.Join(d.reject(err), rerr)
		}
		return reply, d.reject(err)
	}
	observability.RecordFrameDecoded(d.name, hdr.Kind)

	cmd := msg.Payload().Command
	d.logger.Debug().
		Uint16("seq", hdr.Sequence).
		Str("opcode", cmd.Opcode().String()).
		Msg("exchange.device command")

	payload, herr := d.handler.Handle(ctx, cmd)
	if herr != nil {
		code := handlerErrorCode(herr)
		d.logger.Warn().
			Err(herr).
			Uint16("seq", hdr.Sequence).
			Str("opcode", cmd.Opcode().String()).
			Uint16("code", code).
			Msg("exchange.device command failed")
		return d.reply(hdr.Sequence, cmd.Opcode(), commands.StatusError, commands.ErrorInfo{Code: code})
	}
	if payload == nil {
		payload = commands.Ack{}
	}
	return d.reply(hdr.Sequence, cmd.Opcode(), commands.StatusSuccess, payload)
}

func (d *Device) reply(seq uint16, op commands.Opcode, status commands.Status, payload commands.ResponsePayload) ([]byte, error) {
	kind := protocol.KindResponse
	switch {
	case status == commands.StatusError:
		kind = protocol.KindError
	case payload.PayloadKind() == commands.PayloadAck:
		kind = protocol.KindAck
	}

	resp := commands.NewResponse(d.responseID.Add(1), uint32(seq), status, d.uptimeMillis(), payload)
	msg, err := protocol.NewMessage(kind, seq, resp)
	if err != nil {
		return nil, fmt.Errorf("frame %s reply: %w", op, err)
	}
	frame, err := msg.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("frame %s reply: %w", op, err)
	}
	observability.RecordFrameEncoded(d.name, kind)
	return frame, nil
}

// Notify frames an unsolicited sensor reading.
func (d *Device) Notify(r sensor.Reading) ([]byte, error) {
	msg, err := protocol.NewMessage(protocol.KindNotification, NotificationSequence, r, protocol.CodecOption(d.notifyCodec))
	if err != nil {
		return nil, fmt.Errorf("frame notification: %w", err)
	}
	frame, err := msg.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("frame notification: %w", err)
	}
	observability.RecordFrameEncoded(d.name, protocol.KindNotification)
	return frame, nil
}

// Uptime is the device clock that response and reading timestamps count from.
func (d *Device) Uptime() time.Duration {
	return d.now().Sub(d.started)
}

func (d *Device) uptimeMillis() uint64 {
	up := d.Uptime()
	if up < 0 {
		return 0
	}
	return uint64(up / time.Millisecond)
}

func (d *Device) reject(err error) error {
	observability.RecordFrameRejected(d.name, err)
	d.logger.Warn().Err(err).Msg("exchange.device frame rejected")
	return err
}

func payloadErrorCode(err error) uint16 {
	switch {
	case errors.Is(err, protocol.ErrChecksumMismatch):
		return commands.ErrCodeChecksum
	case errors.Is(err, commands.ErrUnknownOpcode):
		return commands.ErrCodeUnsupported
	default:
		return commands.ErrCodeMalformed
	}
}

func handlerErrorCode(err error) uint16 {
	switch {
	case errors.Is(err, ErrUnsupported):
		return commands.ErrCodeUnsupported
	case errors.Is(err, ErrBusy):
		return commands.ErrCodeBusy
	default:
		return commands.ErrCodeInternal
	}
}
