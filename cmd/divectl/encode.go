package main

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/hjeldin/dive-computer-proto/internal/commands"
	"github.com/hjeldin/dive-computer-proto/internal/config"
	"github.com/hjeldin/dive-computer-proto/internal/protocol"
	"github.com/hjeldin/dive-computer-proto/internal/sensor"
	"github.com/spf13/pflag"
)

type encodeArgs struct {
	seq      uint16
	sensorID uint16
	reading  string
	maxDepth uint16
	maxTime  uint16
	diveID   uint32
	data     string
	version  string
	chunks   uint16
	chunkID  uint16
}

func runEncode(e env, args []string) error {
	var a encodeArgs
	flags := pflag.NewFlagSet("encode", pflag.ContinueOnError)
	flags.SetOutput(e.stderr)
	flags.Uint16Var(&a.seq, "seq", 1, "sequence number")
	flags.Uint16Var(&a.sensorID, "sensor", 1, "sensor id (read-sensor)")
	flags.StringVar(&a.reading, "reading", "depth", "reading type (read-sensor)")
	flags.Uint16Var(&a.maxDepth, "max-depth", 30, "maximum depth in meters (set-parameters)")
	flags.Uint16Var(&a.maxTime, "max-time", 45, "maximum time in minutes (set-parameters)")
	flags.Uint32Var(&a.diveID, "dive", 1, "dive id (log-dive, get-dive-log)")
	flags.StringVar(&a.data, "data", "", "payload text, truncated or zero padded to 32 bytes (log-dive, firmware-chunk)")
	flags.StringVar(&a.version, "version", "1.0.0.0", "firmware version (firmware-start)")
	flags.Uint16Var(&a.chunks, "chunks", 1, "total chunk count (firmware-start)")
	flags.Uint16Var(&a.chunkID, "chunk", 0, "chunk id (firmware-chunk)")
	flags.Usage = func() {
		fmt.Fprintf(e.stderr, "usage: divectl encode <%s> [flags]\n", strings.Join(commands.OpcodeNames(), "|"))
		fmt.Fprint(e.stderr, flags.FlagUsages())
	}
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() != 1 {
		flags.Usage()
		return errUsage
	}

	op, err := commands.ParseOpcode(flags.Arg(0))
	if err != nil {
		return err
	}
	cmd, err := buildCommand(op, a)
	if err != nil {
		return err
	}
	msg, err := protocol.NewMessage(protocol.KindCommand, a.seq, commands.Request{Command: cmd})
	if err != nil {
		return err
	}
	frame, err := msg.MarshalBinary()
	if err != nil {
		return err
	}
	fmt.Fprintln(e.stdout, hex.EncodeToString(frame))
	return nil
}

func buildCommand(op commands.Opcode, a encodeArgs) (commands.Command, error) {
	var data [commands.DataLen]byte
	copy(data[:], a.data)

	switch op {
	case commands.OpIdentify:
		return commands.Identify{}, nil
	case commands.OpReadSensor:
		rt, err := sensor.ParseReadingType(a.reading)
		if err != nil {
			return nil, err
		}
		return commands.ReadSensor{SensorID: a.sensorID, ReadingType: rt}, nil
	case commands.OpStartDive:
		return commands.StartDive{}, nil
	case commands.OpEndDive:
		return commands.EndDive{}, nil
	case commands.OpSetParameters:
		return commands.SetParameters{MaxDepth: a.maxDepth, MaxTime: a.maxTime}, nil
	case commands.OpGetParameters:
		return commands.GetParameters{}, nil
	case commands.OpLogDive:
		return commands.LogDive{DiveID: a.diveID, Data: data}, nil
	case commands.OpGetDiveLog:
		return commands.GetDiveLog{DiveID: a.diveID}, nil
	case commands.OpGetBatteryStatus:
		return commands.GetBatteryStatus{}, nil
	case commands.OpEnterLowPower:
		return commands.EnterLowPowerMode{}, nil
	case commands.OpExitLowPower:
		return commands.ExitLowPowerMode{}, nil
	case commands.OpCalibrateSensors:
		return commands.CalibrateSensors{}, nil
	case commands.OpRunDiagnostic:
		return commands.RunDiagnostic{}, nil
	case commands.OpFactoryReset:
		return commands.FactoryReset{}, nil
	case commands.OpFirmwareStart:
		v, err := config.ParseVersion(a.version)
		if err != nil {
			return nil, err
		}
		return commands.UpdateFirmwareStart{Version: v, TotalChunks: a.chunks}, nil
	case commands.OpFirmwareChunk:
		return commands.UpdateFirmwareChunk{ChunkID: a.chunkID, Data: data}, nil
	case commands.OpFirmwareComplete:
		return commands.UpdateFirmwareComplete{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", commands.ErrUnknownOpcode, op)
	}
}
