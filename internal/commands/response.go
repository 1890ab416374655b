package commands

import (
	"errors"
	"fmt"

	"github.com/hjeldin/dive-computer-proto/internal/protocol/tlv"
	"github.com/hjeldin/dive-computer-proto/internal/sensor"
)

var (
	ErrUnknownStatus      = errors.New("commands: unknown response status")
	ErrUnknownPayloadKind = errors.New("commands: unknown payload kind")
)

// Status is the outcome reported by a Response.
type Status uint8

const (
	StatusSuccess Status = iota
	StatusError
	StatusInProgress
	StatusPending
)

func (s Status) Valid() bool {
	return s <= StatusPending
}

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	case StatusInProgress:
		return "in_progress"
	case StatusPending:
		return "pending"
	default:
		return fmt.Sprintf("status(%d)", uint8(s))
	}
}

// Device error codes carried in ErrorInfo.
const (
	ErrCodeMalformed   uint16 = 1
	ErrCodeChecksum    uint16 = 2
	ErrCodeUnsupported uint16 = 3
	ErrCodeBusy        uint16 = 4
	ErrCodeInternal    uint16 = 5
)

// Response answers a command. Payload is nil when the response carries no data.
type Response struct {
	ID        uint32
	CommandID uint32
	Status    Status
	Timestamp uint64
	Payload   ResponsePayload
}

func NewResponse(id, commandID uint32, status Status, timestamp uint64, payload ResponsePayload) Response {
	return Response{
		ID:        id,
		CommandID: commandID,
		Status:    status,
		Timestamp: timestamp,
		Payload:   payload,
	}
}

// Success builds a response with StatusSuccess.
func Success(id, commandID uint32, timestamp uint64, payload ResponsePayload) Response {
	return NewResponse(id, commandID, StatusSuccess, timestamp, payload)
}

// Failure builds a response with StatusError and an ErrorInfo payload.
func Failure(id, commandID uint32, timestamp uint64, code uint16) Response {
	return NewResponse(id, commandID, StatusError, timestamp, ErrorInfo{Code: code})
}

func (r Response) MarshalTLV() (tlv.Fields, error) {
	if !r.Status.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownStatus, r.Status)
	}
	fs := tlv.Fields{
		tlv.U32(FieldResponseID, r.ID),
		tlv.U32(FieldCommandID, r.CommandID),
		tlv.U8(FieldStatus, uint8(r.Status)),
		tlv.U64(FieldTimestamp, r.Timestamp),
	}
	if r.Payload == nil {
		return fs, nil
	}
	kind := r.Payload.PayloadKind()
	pf := r.Payload.fields()
	if err := ValidatePayload(kind, pf); err != nil {
		return nil, err
	}
	fs = append(fs, tlv.U8(FieldPayloadKind, uint8(kind)))
	return append(fs, pf...), nil
}

func (r *Response) UnmarshalTLV(fs tlv.Fields) error {
	if err := ValidateResponse(fs); err != nil {
		return err
	}
	out := Response{
		ID:        getU32(fs, FieldResponseID),
		CommandID: getU32(fs, FieldCommandID),
		Status:    Status(getU8(fs, FieldStatus)),
		Timestamp: getU64(fs, FieldTimestamp),
	}
	if !out.Status.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownStatus, out.Status)
	}

	if f, ok := fs.Get(FieldPayloadKind); ok {
		raw, err := f.Uint8()
		if err != nil {
			return err
		}
		p, err := decodePayload(PayloadKind(raw), fs)
		if err != nil {
			return err
		}
		out.Payload = p
	}

	*r = out
	return nil
}

// PayloadKind is the wire discriminant of a ResponsePayload.
type PayloadKind uint8

const (
	PayloadDeviceInfo PayloadKind = iota + 1
	PayloadSensorData
	PayloadDiveParameters
	PayloadDiveLog
	PayloadBatteryStatus
	PayloadDiagnosticResults
	PayloadErrorInfo
	PayloadAck
)

// ResponsePayload is the typed data attached to a Response. The set of
// implementations is closed.
type ResponsePayload interface {
	PayloadKind() PayloadKind
	fields() tlv.Fields
}

type DeviceInfo struct {
	DeviceID uint32
	// FirmwareVersion is major, minor, patch, build.
	FirmwareVersion [4]byte
	// HardwareVersion is major, minor, patch, revision.
	HardwareVersion [4]byte
}

type SensorData struct {
	SensorID    uint8
	ReadingType sensor.ReadingType
	Value       int32
}

type DiveParameters struct {
	// MaxDepth in centimeters.
	MaxDepth uint16
	// MaxTime in minutes.
	MaxTime uint16
	// CurrentDepth in centimeters.
	CurrentDepth uint16
	// ElapsedTime in seconds.
	ElapsedTime uint16
}

type DiveLog struct {
	DiveID uint32
	Data   [DataLen]byte
}

type BatteryStatus struct {
	// Level in percent.
	Level uint8
	// Voltage in millivolts.
	Voltage uint16
	// EstimatedTimeRemaining in minutes.
	EstimatedTimeRemaining uint16
}

type DiagnosticResults struct {
	// Status is zero when every subsystem passed.
	Status     uint8
	ErrorCodes [4]byte
}

type ErrorInfo struct {
	Code uint16
}

// Ack acknowledges a command without data.
type Ack struct{}

func (DeviceInfo) PayloadKind() PayloadKind        { return PayloadDeviceInfo }
func (SensorData) PayloadKind() PayloadKind        { return PayloadSensorData }
func (DiveParameters) PayloadKind() PayloadKind    { return PayloadDiveParameters }
func (DiveLog) PayloadKind() PayloadKind           { return PayloadDiveLog }
func (BatteryStatus) PayloadKind() PayloadKind     { return PayloadBatteryStatus }
func (DiagnosticResults) PayloadKind() PayloadKind { return PayloadDiagnosticResults }
func (ErrorInfo) PayloadKind() PayloadKind         { return PayloadErrorInfo }
func (Ack) PayloadKind() PayloadKind               { return PayloadAck }

func (p DeviceInfo) fields() tlv.Fields {
	return tlv.Fields{
		tlv.U32(FieldDeviceID, p.DeviceID),
		tlv.Bytes(FieldFirmwareRev, p.FirmwareVersion[:]),
		tlv.Bytes(FieldHardwareRev, p.HardwareVersion[:]),
	}
}

func (p SensorData) fields() tlv.Fields {
	return tlv.Fields{
		tlv.U8(FieldDataSensorID, p.SensorID),
		tlv.U8(FieldDataReadingType, uint8(p.ReadingType)),
		tlv.I32(FieldDataValue, p.Value),
	}
}

func (p DiveParameters) fields() tlv.Fields {
	return tlv.Fields{
		tlv.U16(FieldParamMaxDepth, p.MaxDepth),
		tlv.U16(FieldParamMaxTime, p.MaxTime),
		tlv.U16(FieldCurrentDepth, p.CurrentDepth),
		tlv.U16(FieldElapsedTime, p.ElapsedTime),
	}
}

func (p DiveLog) fields() tlv.Fields {
	return tlv.Fields{tlv.U32(FieldLogDiveID, p.DiveID), tlv.Bytes(FieldLogData, p.Data[:])}
}

func (p BatteryStatus) fields() tlv.Fields {
	return tlv.Fields{
		tlv.U8(FieldBatteryLevel, p.Level),
		tlv.U16(FieldBatteryVoltage, p.Voltage),
		tlv.U16(FieldTimeRemaining, p.EstimatedTimeRemaining),
	}
}

func (p DiagnosticResults) fields() tlv.Fields {
	return tlv.Fields{tlv.U8(FieldDiagStatus, p.Status), tlv.Bytes(FieldDiagErrorCodes, p.ErrorCodes[:])}
}

func (p ErrorInfo) fields() tlv.Fields {
	return tlv.Fields{tlv.U16(FieldErrorCode, p.Code)}
}

func (Ack) fields() tlv.Fields { return nil }

func decodePayload(kind PayloadKind, fs tlv.Fields) (ResponsePayload, error) {
	if _, ok := payloadRequirements[kind]; !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownPayloadKind, uint8(kind))
	}
	if err := ValidatePayload(kind, fs); err != nil {
		return nil, err
	}

	switch kind {
	case PayloadDeviceInfo:
		p := DeviceInfo{DeviceID: getU32(fs, FieldDeviceID)}
		if err := getFixed(fs, FieldFirmwareRev, p.FirmwareVersion[:]); err != nil {
			return nil, err
		}
		if err := getFixed(fs, FieldHardwareRev, p.HardwareVersion[:]); err != nil {
			return nil, err
		}
		return p, nil
	case PayloadSensorData:
		return SensorData{
			SensorID:    getU8(fs, FieldDataSensorID),
			ReadingType: sensor.ReadingType(getU8(fs, FieldDataReadingType)),
			Value:       getI32(fs, FieldDataValue),
		}, nil
	case PayloadDiveParameters:
		return DiveParameters{
			MaxDepth:     getU16(fs, FieldParamMaxDepth),
			MaxTime:      getU16(fs, FieldParamMaxTime),
			CurrentDepth: getU16(fs, FieldCurrentDepth),
			ElapsedTime:  getU16(fs, FieldElapsedTime),
		}, nil
	case PayloadDiveLog:
		p := DiveLog{DiveID: getU32(fs, FieldLogDiveID)}
		if err := getFixed(fs, FieldLogData, p.Data[:]); err != nil {
			return nil, err
		}
		return p, nil
	case PayloadBatteryStatus:
		return BatteryStatus{
			Level:                  getU8(fs, FieldBatteryLevel),
			Voltage:                getU16(fs, FieldBatteryVoltage),
			EstimatedTimeRemaining: getU16(fs, FieldTimeRemaining),
		}, nil
	case PayloadDiagnosticResults:
		p := DiagnosticResults{Status: getU8(fs, FieldDiagStatus)}
		if err := getFixed(fs, FieldDiagErrorCodes, p.ErrorCodes[:]); err != nil {
			return nil, err
		}
		return p, nil
	case PayloadErrorInfo:
		return ErrorInfo{Code: getU16(fs, FieldErrorCode)}, nil
	case PayloadAck:
		return Ack{}, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownPayloadKind, uint8(kind))
	}
}
