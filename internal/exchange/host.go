package exchange

import (
	"errors"
	"fmt"
	"time"

	"github.com/hjeldin/dive-computer-proto/internal/commands"
	"github.com/hjeldin/dive-computer-proto/internal/config"
	"github.com/hjeldin/dive-computer-proto/internal/observability"
	"github.com/hjeldin/dive-computer-proto/internal/protocol"
	"github.com/hjeldin/dive-computer-proto/internal/sensor"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var ErrUnexpectedKind = errors.New("exchange: unexpected message kind")

// Outbound is a framed command ready to be written to the link.
type Outbound struct {
	Sequence uint16
	Opcode   commands.Opcode
	Frame    []byte
}

// Inbound is a validated frame received by a Host. Exactly one of Response
// and Reading is set.
type Inbound struct {
	Header   protocol.Header
	Response *commands.Response
	Reading  *sensor.Reading
	// Matched is true when the frame answered a pending command.
	Matched   bool
	Opcode    commands.Opcode
	RoundTrip time.Duration
}

type HostOption func(*Host)

func WithHostName(name string) HostOption {
	return func(h *Host) {
		h.name = name
	}
}

func WithHostLogger(logger zerolog.Logger) HostOption {
	return func(h *Host) {
		h.logger = logger
	}
}

func WithHostClock(now func() time.Time) HostOption {
	return func(h *Host) {
		h.now = now
	}
}

// Host frames commands and matches incoming frames to them. It is safe for
// concurrent use.
type Host struct {
	name        string
	seq         *Sequencer
	outbox      *Outbox
	timeout     time.Duration
	notifyCodec protocol.Codec
	logger      zerolog.Logger
	now         func() time.Time
}

func NewHost(cfg config.Config, opts ...HostOption) (*Host, error) {
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	codec, err := NotificationCodec(cfg.NotificationCodec)
	if err != nil {
		return nil, err
	}
	h := &Host{
		name:        "host",
		seq:         NewSequencer(cfg.SequenceStart),
		outbox:      NewOutbox(),
		timeout:     cfg.ResponseTimeout,
		notifyCodec: codec,
		logger:      log.Logger,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	h.logger = h.logger.With().Str("host", h.name).Logger()
	return h, nil
}

// Command frames cmd under a fresh sequence and records it as pending.
func (h *Host) Command(cmd commands.Command) (Outbound, error) {
	if cmd == nil {
		return Outbound{}, commands.ErrNoCommand
	}
	seq := h.seq.Next()
	msg, err := protocol.NewMessage(protocol.KindCommand, seq, commands.Request{Command: cmd})
	if err != nil {
		return Outbound{}, fmt.Errorf("frame %s: %w", cmd.Opcode(), err)
	}
	frame, err := msg.MarshalBinary()
	if err != nil {
		return Outbound{}, fmt.Errorf("frame %s: %w", cmd.Opcode(), err)
	}

	now := h.now()
	h.outbox.Upsert(Pending{
		Sequence:   seq,
		Opcode:     cmd.Opcode(),
		Frame:      frame,
		QueuedAt:   now,
		DeadlineAt: now.Add(h.timeout),
	})
	observability.RecordFrameEncoded(h.name, protocol.KindCommand)
	observability.SetPendingCommands(h.name, h.outbox.Len())
	h.logger.Debug().
		Uint16("seq", seq).
		Str("opcode", cmd.Opcode().String()).
		Int("bytes", len(frame)).
		Msg("exchange.host command framed")

	return Outbound{Sequence: seq, Opcode: cmd.Opcode(), Frame: frame}, nil
}

// Receive validates frame and decodes it according to its kind. Responses,
// acks and errors resolve the pending command with the same sequence;
// notifications never do.
func (h *Host) Receive(frame []byte) (Inbound, error) {
	hdr, err := protocol.ParseHeader(frame)
	if err != nil {
		return Inbound{}, h.reject(err)
	}

	switch hdr.Kind {
	case protocol.KindResponse, protocol.KindAck, protocol.KindError:
		msg, err := protocol.ParseMessage[commands.Response](frame)
		if err != nil {
			return Inbound{}, h.reject(err)
		}
		observability.RecordFrameDecoded(h.name, hdr.Kind)
		resp := msg.Payload()
		in := Inbound{Header: hdr, Response: &resp}
		h.resolve(&in)
		return in, nil

	case protocol.KindNotification:
		msg, err := protocol.ParseMessage[sensor.Reading](frame, protocol.CodecOption(h.notifyCodec))
		if err != nil {
			return Inbound{}, h.reject(err)
		}
		observability.RecordFrameDecoded(h.name, hdr.Kind)
		reading := msg.Payload()
		h.logger.Debug().
			Uint16("sensor", reading.SensorID).
			Str("type", reading.Type.String()).
			Int32("value", reading.Value).
			Msg("exchange.host notification")
		return Inbound{Header: hdr, Reading: &reading}, nil

	default:
		return Inbound{}, h.reject(fmt.Errorf("%w: %s", ErrUnexpectedKind, hdr.Kind))
	}
}

func (h *Host) resolve(in *Inbound) {
	seq := in.Header.Sequence
	pending, ok := h.outbox.Take(seq)
	if !ok {
		h.logger.Warn().
			Uint16("seq", seq).
			Str("kind", in.Header.Kind.String()).
			Msg("exchange.host unsolicited response")
		return
	}
	in.Matched = true
	in.Opcode = pending.Opcode
	in.RoundTrip = h.now().Sub(pending.QueuedAt)

	status := in.Response.Status.String()
	observability.RecordRoundTrip(h.name, pending.Opcode.String(), status, in.RoundTrip)
	observability.SetPendingCommands(h.name, h.outbox.Len())
	h.logger.Debug().
		Uint16("seq", seq).
		Str("opcode", pending.Opcode.String()).
		Str("status", status).
		Dur("rtt", in.RoundTrip).
		Msg("exchange.host response matched")
}

func (h *Host) reject(err error) error {
	observability.RecordFrameRejected(h.name, err)
	h.logger.Warn().Err(err).Msg("exchange.host frame rejected")
	return err
}

// Expire drops every command whose response window closed at or before now
// and returns them. A response arriving later is reported unmatched.
func (h *Host) Expire(now time.Time) []Pending {
	expired := h.outbox.TakeExpired(now)
	for _, p := range expired {
		h.logger.Warn().
			Uint16("seq", p.Sequence).
			Str("opcode", p.Opcode.String()).
			Dur("waited", now.Sub(p.QueuedAt)).
			Msg("exchange.host command expired")
	}
	observability.SetPendingCommands(h.name, h.outbox.Len())
	return expired
}

// Pending lists commands still awaiting a response.
func (h *Host) Pending() []Pending {
	return h.outbox.List()
}
