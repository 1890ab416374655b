package main

import (
	"fmt"

	"github.com/hjeldin/dive-computer-proto/internal/commands"
	"github.com/hjeldin/dive-computer-proto/internal/config"
	"github.com/hjeldin/dive-computer-proto/internal/exchange"
	"github.com/hjeldin/dive-computer-proto/internal/protocol"
	"github.com/hjeldin/dive-computer-proto/internal/protocol/cborcodec"
	"github.com/hjeldin/dive-computer-proto/internal/sensor"
	"github.com/spf13/pflag"
)

func runDecode(e env, args []string) error {
	codecName := e.cfg.NotificationCodec
	flags := pflag.NewFlagSet("decode", pflag.ContinueOnError)
	flags.SetOutput(e.stderr)
	flags.StringVar(&codecName, "codec", codecName, "notification payload codec (tlv|cbor)")
	if err := flags.Parse(args); err != nil {
		return err
	}
	frame, err := parseHex(flags.Args())
	if err != nil {
		return err
	}

	hdr, err := protocol.ParseHeader(frame)
	if err != nil {
		return err
	}
	fmt.Fprintf(e.stdout, "header:  %s\n", hdr)

	switch hdr.Kind {
	case protocol.KindCommand:
		msg, err := protocol.ParseMessage[commands.Request](frame)
		if err != nil {
			return err
		}
		cmd := msg.Payload().Command
		fmt.Fprintf(e.stdout, "command: %s %+v\n", cmd.Opcode(), cmd)
		printChecksum(e, msg.PayloadChecksum())

	case protocol.KindResponse, protocol.KindAck, protocol.KindError:
		msg, err := protocol.ParseMessage[commands.Response](frame)
		if err != nil {
			return err
		}
		resp := msg.Payload()
		fmt.Fprintf(e.stdout, "response: id=%d command=%d status=%s timestamp=%d\n",
			resp.ID, resp.CommandID, resp.Status, resp.Timestamp)
		if resp.Payload != nil {
			fmt.Fprintf(e.stdout, "payload: %T %+v\n", resp.Payload, resp.Payload)
		}
		printChecksum(e, msg.PayloadChecksum())

	case protocol.KindNotification:
		codec, err := exchange.NotificationCodec(codecName)
		if err != nil {
			return err
		}
		msg, err := protocol.ParseMessage[sensor.Reading](frame, protocol.CodecOption(codec))
		if err != nil {
			return err
		}
		r := msg.Payload()
		fmt.Fprintf(e.stdout, "reading: sensor=%d type=%s value=%d timestamp=%d\n", r.SensorID, r.Type, r.Value, r.Timestamp)
		if codecName == config.CodecCBOR {
			diag, err := cborcodec.Diagnose(msg.EncodedPayload())
			if err != nil {
				return err
			}
			fmt.Fprintf(e.stdout, "cbor:    %s\n", diag)
		}
		printChecksum(e, msg.PayloadChecksum())
	}
	return nil
}

func printChecksum(e env, sum uint8) {
	fmt.Fprintf(e.stdout, "payload checksum: 0x%02X ok\n", sum)
}

func runChecksum(e env, args []string) error {
	data, err := parseHex(args)
	if err != nil {
		return err
	}
	fmt.Fprintf(e.stdout, "0x%02X\n", protocol.Checksum(data))
	return nil
}
