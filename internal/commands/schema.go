package commands

import (
	"fmt"

	"github.com/hjeldin/dive-computer-proto/internal/protocol/tlv"
	"github.com/hjeldin/dive-computer-proto/internal/sensor"
	"github.com/rs/zerolog/log"
)

// Command field ids.
const (
	FieldOpcode uint8 = 1

	FieldSensorID    uint8 = 10
	FieldReadingType uint8 = 11

	FieldMaxDepth uint8 = 20
	FieldMaxTime  uint8 = 21

	FieldDiveID   uint8 = 30
	FieldDiveData uint8 = 31

	FieldFirmwareVersion uint8 = 40
	FieldTotalChunks     uint8 = 41
	FieldChunkID         uint8 = 42
	FieldChunkData       uint8 = 43
)

// Response field ids.
const (
	FieldResponseID  uint8 = 1
	FieldCommandID   uint8 = 2
	FieldStatus      uint8 = 3
	FieldTimestamp   uint8 = 4
	FieldPayloadKind uint8 = 5

	FieldDeviceID        uint8 = 10
	FieldFirmwareRev     uint8 = 11
	FieldHardwareRev     uint8 = 12
	FieldDataSensorID    uint8 = 13
	FieldDataReadingType uint8 = 14
	FieldDataValue       uint8 = 15
	FieldParamMaxDepth   uint8 = 16
	FieldParamMaxTime    uint8 = 17
	FieldCurrentDepth    uint8 = 18
	FieldElapsedTime     uint8 = 19
	FieldLogDiveID       uint8 = 20
	FieldLogData         uint8 = 21
	FieldBatteryLevel    uint8 = 22
	FieldBatteryVoltage  uint8 = 23
	FieldTimeRemaining   uint8 = 24
	FieldDiagStatus      uint8 = 25
	FieldDiagErrorCodes  uint8 = 26
	FieldErrorCode       uint8 = 27
)

// DataLen is the fixed width of dive log and firmware chunk data.
const DataLen = 32

type Requirement struct {
	ID   uint8
	Type uint8
}

// ValidationError reports a schema violation. Scope is "command",
// "response" or "payload"; Code is the opcode or payload kind.
type ValidationError struct {
	Scope   string
	Code    uint8
	FieldID uint8
	Reason  string
}

func (e ValidationError) Error() string {
	if e.FieldID == 0 {
		return fmt.Sprintf("schema: %s=%d: %s", e.Scope, e.Code, e.Reason)
	}
	return fmt.Sprintf("schema: %s=%d field=%d: %s", e.Scope, e.Code, e.FieldID, e.Reason)
}

var commandRequirements = map[Opcode][]Requirement{
	OpIdentify:         {},
	OpReadSensor:       {{FieldSensorID, tlv.TypeU16}, {FieldReadingType, tlv.TypeU8}},
	OpStartDive:        {},
	OpEndDive:          {},
	OpSetParameters:    {{FieldMaxDepth, tlv.TypeU16}, {FieldMaxTime, tlv.TypeU16}},
	OpGetParameters:    {},
	OpLogDive:          {{FieldDiveID, tlv.TypeU32}, {FieldDiveData, tlv.TypeBytes}},
	OpGetDiveLog:       {{FieldDiveID, tlv.TypeU32}},
	OpGetBatteryStatus: {},
	OpEnterLowPower:    {},
	OpExitLowPower:     {},
	OpCalibrateSensors: {},
	OpRunDiagnostic:    {},
	OpFactoryReset:     {},
	OpFirmwareStart:    {{FieldFirmwareVersion, tlv.TypeBytes}, {FieldTotalChunks, tlv.TypeU16}},
	OpFirmwareChunk:    {{FieldChunkID, tlv.TypeU16}, {FieldChunkData, tlv.TypeBytes}},
	OpFirmwareComplete: {},
}

var responseRequirements = []Requirement{
	{FieldResponseID, tlv.TypeU32},
	{FieldCommandID, tlv.TypeU32},
	{FieldStatus, tlv.TypeU8},
	{FieldTimestamp, tlv.TypeU64},
}

var payloadRequirements = map[PayloadKind][]Requirement{
	PayloadDeviceInfo: {
		{FieldDeviceID, tlv.TypeU32},
		{FieldFirmwareRev, tlv.TypeBytes},
		{FieldHardwareRev, tlv.TypeBytes},
	},
	PayloadSensorData: {
		{FieldDataSensorID, tlv.TypeU8},
		{FieldDataReadingType, tlv.TypeU8},
		{FieldDataValue, tlv.TypeI32},
	},
	PayloadDiveParameters: {
		{FieldParamMaxDepth, tlv.TypeU16},
		{FieldParamMaxTime, tlv.TypeU16},
		{FieldCurrentDepth, tlv.TypeU16},
		{FieldElapsedTime, tlv.TypeU16},
	},
	PayloadDiveLog: {
		{FieldLogDiveID, tlv.TypeU32},
		{FieldLogData, tlv.TypeBytes},
	},
	PayloadBatteryStatus: {
		{FieldBatteryLevel, tlv.TypeU8},
		{FieldBatteryVoltage, tlv.TypeU16},
		{FieldTimeRemaining, tlv.TypeU16},
	},
	PayloadDiagnosticResults: {
		{FieldDiagStatus, tlv.TypeU8},
		{FieldDiagErrorCodes, tlv.TypeBytes},
	},
	PayloadErrorInfo: {
		{FieldErrorCode, tlv.TypeU16},
	},
	PayloadAck: {},
}

// ValidateCommand enforces required fields and their types for op.
// Unknown fields are ignored.
func ValidateCommand(op Opcode, fields tlv.Fields) error {
	reqs, ok := commandRequirements[op]
	if !ok {
		log.Debug().Uint8("opcode", uint8(op)).Msg("schema: unknown opcode")
		return ValidationError{Scope: "command", Code: uint8(op), Reason: "unknown opcode"}
	}
	if err := check("command", uint8(op), reqs, fields); err != nil {
		return err
	}
	if op == OpReadSensor {
		return checkReadingType(fields, FieldReadingType)
	}
	return nil
}

// ValidateResponse enforces the response envelope fields.
func ValidateResponse(fields tlv.Fields) error {
	return check("response", 0, responseRequirements, fields)
}

// ValidatePayload enforces required fields and their types for a response
// payload kind.
func ValidatePayload(kind PayloadKind, fields tlv.Fields) error {
	reqs, ok := payloadRequirements[kind]
	if !ok {
		log.Debug().Uint8("payload_kind", uint8(kind)).Msg("schema: unknown payload kind")
		return ValidationError{Scope: "payload", Code: uint8(kind), Reason: "unknown payload kind"}
	}
	if err := check("payload", uint8(kind), reqs, fields); err != nil {
		return err
	}
	if kind == PayloadSensorData {
		return checkReadingType(fields, FieldDataReadingType)
	}
	return nil
}

// checkReadingType runs after check, so the field is present and a u8.
func checkReadingType(fields tlv.Fields, id uint8) error {
	if t := sensor.ReadingType(getU8(fields, id)); !t.Valid() {
		return fmt.Errorf("%w: %d", sensor.ErrUnknownReadingType, uint8(t))
	}
	return nil
}

func check(scope string, code uint8, reqs []Requirement, fields tlv.Fields) error {
	for _, req := range reqs {
		f, found := fields.Get(req.ID)
		if !found {
			log.Debug().
				Str("scope", scope).
				Uint8("code", code).
				Uint8("field_id", req.ID).
				Msg("schema: missing field")
			return ValidationError{Scope: scope, Code: code, FieldID: req.ID, Reason: "missing required field"}
		}
		if err := tlv.MustType(f, req.Type); err != nil {
			log.Debug().
				Str("scope", scope).
				Uint8("code", code).
				Uint8("field_id", req.ID).
				Uint8("got", f.Type).
				Uint8("want", req.Type).
				Msg("schema: field type mismatch")
			return ValidationError{Scope: scope, Code: code, FieldID: req.ID, Reason: "field type mismatch"}
		}
	}
	return nil
}

// Lookups below run after validation, so presence and type are already
// guaranteed.

func getU8(fs tlv.Fields, id uint8) uint8 {
	f, _ := fs.Get(id)
	v, _ := f.Uint8()
	return v
}

func getU16(fs tlv.Fields, id uint8) uint16 {
	f, _ := fs.Get(id)
	v, _ := f.Uint16()
	return v
}

func getU32(fs tlv.Fields, id uint8) uint32 {
	f, _ := fs.Get(id)
	v, _ := f.Uint32()
	return v
}

func getU64(fs tlv.Fields, id uint8) uint64 {
	f, _ := fs.Get(id)
	v, _ := f.Uint64()
	return v
}

func getI32(fs tlv.Fields, id uint8) int32 {
	f, _ := fs.Get(id)
	v, _ := f.Int32()
	return v
}

func getFixed(fs tlv.Fields, id uint8, dst []byte) error {
	f, _ := fs.Get(id)
	return f.FixedBytes(dst)
}
