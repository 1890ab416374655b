package commands

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/hjeldin/dive-computer-proto/internal/protocol/tlv"
	"github.com/hjeldin/dive-computer-proto/internal/sensor"
)

var (
	ErrUnknownOpcode = errors.New("commands: unknown opcode")
	ErrNoCommand     = errors.New("commands: request carries no command")
)

// Opcode is the wire discriminant of a Command.
type Opcode uint8

const (
	OpIdentify Opcode = iota + 1
	OpReadSensor
	OpStartDive
	OpEndDive
	OpSetParameters
	OpGetParameters
	OpLogDive
	OpGetDiveLog
	OpGetBatteryStatus
	OpEnterLowPower
	OpExitLowPower
	OpCalibrateSensors
	OpRunDiagnostic
	OpFactoryReset
	OpFirmwareStart
	OpFirmwareChunk
	OpFirmwareComplete
)

var opcodeNames = map[Opcode]string{
	OpIdentify:         "identify",
	OpReadSensor:       "read-sensor",
	OpStartDive:        "start-dive",
	OpEndDive:          "end-dive",
	OpSetParameters:    "set-parameters",
	OpGetParameters:    "get-parameters",
	OpLogDive:          "log-dive",
	OpGetDiveLog:       "get-dive-log",
	OpGetBatteryStatus: "battery-status",
	OpEnterLowPower:    "enter-low-power",
	OpExitLowPower:     "exit-low-power",
	OpCalibrateSensors: "calibrate",
	OpRunDiagnostic:    "diagnostic",
	OpFactoryReset:     "factory-reset",
	OpFirmwareStart:    "firmware-start",
	OpFirmwareChunk:    "firmware-chunk",
	OpFirmwareComplete: "firmware-complete",
}

func (op Opcode) String() string {
	if name, ok := opcodeNames[op]; ok {
		return name
	}
	return fmt.Sprintf("opcode(%d)", uint8(op))
}

// ParseOpcode maps a name printed by Opcode.String back to the opcode.
func ParseOpcode(raw string) (Opcode, error) {
	name := strings.ToLower(strings.TrimSpace(raw))
	for op, n := range opcodeNames {
		if n == name {
			return op, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownOpcode, raw)
}

// OpcodeNames lists every opcode name in opcode order.
func OpcodeNames() []string {
	ops := make([]Opcode, 0, len(opcodeNames))
	for op := range opcodeNames {
		ops = append(ops, op)
	}
	sort.Slice(ops, func(i, j int) bool { return ops[i] < ops[j] })
	names := make([]string, len(ops))
	for i, op := range ops {
		names[i] = op.String()
	}
	return names
}

// Command is an operation requested from the device. The set of
// implementations is closed.
type Command interface {
	Opcode() Opcode
	fields() tlv.Fields
}

type Identify struct{}

type ReadSensor struct {
	SensorID    uint16
	ReadingType sensor.ReadingType
}

type StartDive struct{}

type EndDive struct{}

// SetParameters sets limits for the current or next dive.
type SetParameters struct {
	// MaxDepth in meters.
	MaxDepth uint16
	// MaxTime in minutes.
	MaxTime uint16
}

type GetParameters struct{}

type LogDive struct {
	DiveID uint32
	Data   [DataLen]byte
}

type GetDiveLog struct {
	DiveID uint32
}

type GetBatteryStatus struct{}

type EnterLowPowerMode struct{}

type ExitLowPowerMode struct{}

type CalibrateSensors struct{}

type RunDiagnostic struct{}

// FactoryReset clears all stored data on the device.
type FactoryReset struct{}

type UpdateFirmwareStart struct {
	Version     [4]byte
	TotalChunks uint16
}

type UpdateFirmwareChunk struct {
	ChunkID uint16
	Data    [DataLen]byte
}

type UpdateFirmwareComplete struct{}

func (Identify) Opcode() Opcode               { return OpIdentify }
func (ReadSensor) Opcode() Opcode             { return OpReadSensor }
func (StartDive) Opcode() Opcode              { return OpStartDive }
func (EndDive) Opcode() Opcode                { return OpEndDive }
func (SetParameters) Opcode() Opcode          { return OpSetParameters }
func (GetParameters) Opcode() Opcode          { return OpGetParameters }
func (LogDive) Opcode() Opcode                { return OpLogDive }
func (GetDiveLog) Opcode() Opcode             { return OpGetDiveLog }
func (GetBatteryStatus) Opcode() Opcode       { return OpGetBatteryStatus }
func (EnterLowPowerMode) Opcode() Opcode      { return OpEnterLowPower }
func (ExitLowPowerMode) Opcode() Opcode       { return OpExitLowPower }
func (CalibrateSensors) Opcode() Opcode       { return OpCalibrateSensors }
func (RunDiagnostic) Opcode() Opcode          { return OpRunDiagnostic }
func (FactoryReset) Opcode() Opcode           { return OpFactoryReset }
func (UpdateFirmwareStart) Opcode() Opcode    { return OpFirmwareStart }
func (UpdateFirmwareChunk) Opcode() Opcode    { return OpFirmwareChunk }
func (UpdateFirmwareComplete) Opcode() Opcode { return OpFirmwareComplete }

func (Identify) fields() tlv.Fields               { return nil }
func (StartDive) fields() tlv.Fields              { return nil }
func (EndDive) fields() tlv.Fields                { return nil }
func (GetParameters) fields() tlv.Fields          { return nil }
func (GetBatteryStatus) fields() tlv.Fields       { return nil }
func (EnterLowPowerMode) fields() tlv.Fields      { return nil }
func (ExitLowPowerMode) fields() tlv.Fields       { return nil }
func (CalibrateSensors) fields() tlv.Fields       { return nil }
func (RunDiagnostic) fields() tlv.Fields          { return nil }
func (FactoryReset) fields() tlv.Fields           { return nil }
func (UpdateFirmwareComplete) fields() tlv.Fields { return nil }

func (c ReadSensor) fields() tlv.Fields {
	return tlv.Fields{tlv.U16(FieldSensorID, c.SensorID), tlv.U8(FieldReadingType, uint8(c.ReadingType))}
}

func (c SetParameters) fields() tlv.Fields {
	return tlv.Fields{tlv.U16(FieldMaxDepth, c.MaxDepth), tlv.U16(FieldMaxTime, c.MaxTime)}
}

func (c LogDive) fields() tlv.Fields {
	return tlv.Fields{tlv.U32(FieldDiveID, c.DiveID), tlv.Bytes(FieldDiveData, c.Data[:])}
}

func (c GetDiveLog) fields() tlv.Fields {
	return tlv.Fields{tlv.U32(FieldDiveID, c.DiveID)}
}

func (c UpdateFirmwareStart) fields() tlv.Fields {
	return tlv.Fields{tlv.Bytes(FieldFirmwareVersion, c.Version[:]), tlv.U16(FieldTotalChunks, c.TotalChunks)}
}

func (c UpdateFirmwareChunk) fields() tlv.Fields {
	return tlv.Fields{tlv.U16(FieldChunkID, c.ChunkID), tlv.Bytes(FieldChunkData, c.Data[:])}
}

// Request is the framed form of a Command: the opcode field followed by the
// variant's own fields.
type Request struct {
	Command Command
}

func (r Request) MarshalTLV() (tlv.Fields, error) {
	if r.Command == nil {
		return nil, ErrNoCommand
	}
	op := r.Command.Opcode()
	fs := append(tlv.Fields{tlv.U8(FieldOpcode, uint8(op))}, r.Command.fields()...)
	if err := ValidateCommand(op, fs); err != nil {
		return nil, err
	}
	return fs, nil
}

func (r *Request) UnmarshalTLV(fs tlv.Fields) error {
	f, ok := fs.Get(FieldOpcode)
	if !ok {
		return ValidationError{Scope: "command", FieldID: FieldOpcode, Reason: "missing opcode"}
	}
	raw, err := f.Uint8()
	if err != nil {
		return err
	}
	cmd, err := decodeCommand(Opcode(raw), fs)
	if err != nil {
		return err
	}
	r.Command = cmd
	return nil
}

func decodeCommand(op Opcode, fs tlv.Fields) (Command, error) {
	if _, ok := opcodeNames[op]; !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownOpcode, uint8(op))
	}
	if err := ValidateCommand(op, fs); err != nil {
		return nil, err
	}

	switch op {
	case OpIdentify:
		return Identify{}, nil
	case OpReadSensor:
		return ReadSensor{
			SensorID:    getU16(fs, FieldSensorID),
			ReadingType: sensor.ReadingType(getU8(fs, FieldReadingType)),
		}, nil
	case OpStartDive:
		return StartDive{}, nil
	case OpEndDive:
		return EndDive{}, nil
	case OpSetParameters:
		return SetParameters{
			MaxDepth: getU16(fs, FieldMaxDepth),
			MaxTime:  getU16(fs, FieldMaxTime),
		}, nil
	case OpGetParameters:
		return GetParameters{}, nil
	case OpLogDive:
		c := LogDive{DiveID: getU32(fs, FieldDiveID)}
		if err := getFixed(fs, FieldDiveData, c.Data[:]); err != nil {
			return nil, err
		}
		return c, nil
	case OpGetDiveLog:
		return GetDiveLog{DiveID: getU32(fs, FieldDiveID)}, nil
	case OpGetBatteryStatus:
		return GetBatteryStatus{}, nil
	case OpEnterLowPower:
		return EnterLowPowerMode{}, nil
	case OpExitLowPower:
		return ExitLowPowerMode{}, nil
	case OpCalibrateSensors:
		return CalibrateSensors{}, nil
	case OpRunDiagnostic:
		return RunDiagnostic{}, nil
	case OpFactoryReset:
		return FactoryReset{}, nil
	case OpFirmwareStart:
		c := UpdateFirmwareStart{TotalChunks: getU16(fs, FieldTotalChunks)}
		if err := getFixed(fs, FieldFirmwareVersion, c.Version[:]); err != nil {
			return nil, err
		}
		return c, nil
	case OpFirmwareChunk:
		c := UpdateFirmwareChunk{ChunkID: getU16(fs, FieldChunkID)}
		if err := getFixed(fs, FieldChunkData, c.Data[:]); err != nil {
			return nil, err
		}
		return c, nil
	case OpFirmwareComplete:
		return UpdateFirmwareComplete{}, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownOpcode, uint8(op))
	}
}
