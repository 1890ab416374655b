// Package simulator is an in-memory dive computer that answers every command
// in the vocabulary. The CLI demo and the exchange tests drive it.
package simulator

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/hjeldin/dive-computer-proto/internal/commands"
	"github.com/hjeldin/dive-computer-proto/internal/config"
	"github.com/hjeldin/dive-computer-proto/internal/divecalc"
	"github.com/hjeldin/dive-computer-proto/internal/exchange"
	"github.com/hjeldin/dive-computer-proto/internal/sensor"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	ErrNoActiveDive  = errors.New("simulator: no dive in progress")
	ErrDiveActive    = errors.New("simulator: dive already in progress")
	ErrUnknownDive   = errors.New("simulator: unknown dive id")
	ErrUnknownSensor = errors.New("simulator: unknown sensor")
	ErrFirmwareState = errors.New("simulator: firmware update out of order")
)

// Sensor ids fitted to the simulated device, one per reading type.
const (
	SensorDepth       uint16 = 1
	SensorTemperature uint16 = 2
	SensorPressure    uint16 = 3
	SensorBattery     uint16 = 4
)

type firmwareUpdate struct {
	version  [4]byte
	total    uint16
	received map[uint16]bool
}

// Simulator implements exchange.Handler.
type Simulator struct {
	mu       sync.Mutex
	device   config.Device
	gas      divecalc.GasType
	profile  *divecalc.Profile
	diving   bool
	lowPower bool
	// maxDepthM and maxTimeMin are the limits set by SetParameters.
	maxDepthM  uint16
	maxTimeMin uint16
	logs       map[uint32][commands.DataLen]byte
	battery    commands.BatteryStatus
	firmware   *firmwareUpdate
	sensors    map[uint16]sensor.Sensor
	logger     zerolog.Logger
}

type Option func(*Simulator)

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Simulator) {
		s.logger = logger
	}
}

var _ exchange.Handler = (*Simulator)(nil)

func New(device config.Device, gas divecalc.GasType, opts ...Option) *Simulator {
	s := &Simulator{
		device:  device,
		gas:     gas,
		profile: divecalc.NewProfile(gas),
		logs:    make(map[uint32][commands.DataLen]byte),
		battery: commands.BatteryStatus{Level: 87, Voltage: 3910, EstimatedTimeRemaining: 1260},
		sensors: map[uint16]sensor.Sensor{
			SensorDepth:       sensor.New(SensorDepth, "depth"),
			SensorTemperature: sensor.New(SensorTemperature, "temperature"),
			SensorPressure:    sensor.New(SensorPressure, "pressure"),
			SensorBattery:     sensor.New(SensorBattery, "battery"),
		},
		logger: log.Logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With().Uint32("device_id", device.ID).Logger()
	return s
}

// Sensors lists the fitted sensors in id order.
func (s *Simulator) Sensors() []sensor.Sensor {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]sensor.Sensor, 0, len(s.sensors))
	for id := SensorDepth; id <= SensorBattery; id++ {
		out = append(out, s.sensors[id])
	}
	return out
}

// Descend moves the simulated diver to depthCM and advances the dive clock.
func (s *Simulator) Descend(depthCM uint16, elapsed time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile.UpdateDepth(depthCM)
	s.profile.IncrementDuration(uint32(elapsed / time.Second))
}

func (s *Simulator) SetTemperature(celsiusX10 int16) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile.UpdateTemperature(celsiusX10)
}

// Reading samples one sensor. timestampMS is the device uptime in
// milliseconds.
func (s *Simulator) Reading(t sensor.ReadingType, timestampMS uint64) (sensor.Reading, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, value, err := s.sample(t)
	if err != nil {
		return sensor.Reading{}, err
	}
	return sensor.Reading{SensorID: id, Type: t, Value: value, Timestamp: timestampMS}, nil
}

func (s *Simulator) sample(t sensor.ReadingType) (uint16, int32, error) {
	switch t {
	case sensor.Depth:
		return SensorDepth, int32(s.profile.CurrentDepthCM), nil
	case sensor.Temperature:
		return SensorTemperature, int32(s.profile.TemperatureX10), nil
	case sensor.Pressure:
		bar := divecalc.AmbientPressure(float64(s.profile.CurrentDepthCM) / 100)
		return SensorPressure, int32(math.Round(bar * 1000)), nil
	case sensor.Battery:
		return SensorBattery, int32(s.battery.Level), nil
	default:
		return 0, 0, fmt.Errorf("%w: reading type %d", exchange.ErrUnsupported, t)
	}
}

func (s *Simulator) Handle(ctx context.Context, cmd commands.Command) (commands.ResponsePayload, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lowPower {
		switch cmd.(type) {
		case commands.ExitLowPowerMode, commands.Identify, commands.GetBatteryStatus:
		default:
			return nil, fmt.Errorf("%w: low power mode", exchange.ErrBusy)
		}
	}

	switch c := cmd.(type) {
	case commands.Identify:
		return commands.DeviceInfo{
			DeviceID:        s.device.ID,
			FirmwareVersion: s.device.Firmware,
			HardwareVersion: s.device.Hardware,
		}, nil

	case commands.ReadSensor:
		if _, ok := s.sensors[c.SensorID]; !ok {
			return nil, fmt.Errorf("%w: %d", ErrUnknownSensor, c.SensorID)
		}
		id, value, err := s.sample(c.ReadingType)
		if err != nil {
			return nil, err
		}
		if id != c.SensorID {
			return nil, fmt.Errorf("%w: sensor %d does not measure %s", exchange.ErrUnsupported, c.SensorID, c.ReadingType)
		}
		return commands.SensorData{SensorID: uint8(id), ReadingType: c.ReadingType, Value: value}, nil

	case commands.StartDive:
		if s.diving {
			return nil, fmt.Errorf("%w: %w", exchange.ErrBusy, ErrDiveActive)
		}
		s.diving = true
		s.profile = divecalc.NewProfile(s.gas)
		s.logger.Info().Str("gas", s.gas.String()).Msg("simulator dive started")
		return nil, nil

	case commands.EndDive:
		if !s.diving {
			return nil, ErrNoActiveDive
		}
		s.diving = false
		s.logger.Info().
			Uint16("max_depth_cm", s.profile.MaxDepthCM).
			Uint32("duration_s", s.profile.DurationSec).
			Msg("simulator dive ended")
		return nil, nil

	case commands.SetParameters:
		s.maxDepthM = c.MaxDepth
		s.maxTimeMin = c.MaxTime
		return nil, nil

	case commands.GetParameters:
		return commands.DiveParameters{
			MaxDepth:     clampU16(uint32(s.maxDepthM) * 100),
			MaxTime:      s.maxTimeMin,
			CurrentDepth: s.profile.CurrentDepthCM,
			ElapsedTime:  clampU16(s.profile.DurationSec),
		}, nil

	case commands.LogDive:
		s.logs[c.DiveID] = c.Data
		return nil, nil

	case commands.GetDiveLog:
		data, ok := s.logs[c.DiveID]
		if !ok {
			return nil, fmt.Errorf("%w: %d", ErrUnknownDive, c.DiveID)
		}
		return commands.DiveLog{DiveID: c.DiveID, Data: data}, nil

	case commands.GetBatteryStatus:
		return s.battery, nil

	case commands.EnterLowPowerMode:
		s.lowPower = true
		s.logger.Info().Msg("simulator entered low power")
		return nil, nil

	case commands.ExitLowPowerMode:
		s.lowPower = false
		s.logger.Info().Msg("simulator left low power")
		return nil, nil

	case commands.CalibrateSensors:
		return nil, nil

	case commands.RunDiagnostic:
		var res commands.DiagnosticResults
		if s.battery.Level < 10 {
			res.Status = 1
			res.ErrorCodes[0] = 0xB1
		}
		return res, nil

	case commands.FactoryReset:
		s.logs = make(map[uint32][commands.DataLen]byte)
		s.maxDepthM, s.maxTimeMin = 0, 0
		s.diving = false
		s.firmware = nil
		s.profile = divecalc.NewProfile(s.gas)
		s.logger.Warn().Msg("simulator factory reset")
		return nil, nil

	case commands.UpdateFirmwareStart:
		if c.TotalChunks == 0 {
			return nil, fmt.Errorf("%w: zero chunks", ErrFirmwareState)
		}
		s.firmware = &firmwareUpdate{version: c.Version, total: c.TotalChunks, received: make(map[uint16]bool)}
		s.logger.Info().
			Str("version", config.FormatVersion(c.Version)).
			Uint16("chunks", c.TotalChunks).
			Msg("simulator firmware update started")
		return nil, nil

	case commands.UpdateFirmwareChunk:
		if s.firmware == nil || c.ChunkID >= s.firmware.total {
			return nil, fmt.Errorf("%w: chunk %d", ErrFirmwareState, c.ChunkID)
		}
		s.firmware.received[c.ChunkID] = true
		s.logger.Debug().
			Uint16("chunk", c.ChunkID).
			Int("received", len(s.firmware.received)).
			Uint16("total", s.firmware.total).
			Msg("simulator firmware chunk stored")
		return nil, nil

	case commands.UpdateFirmwareComplete:
		if s.firmware == nil || len(s.firmware.received) != int(s.firmware.total) {
			return nil, fmt.Errorf("%w: incomplete image", ErrFirmwareState)
		}
		s.device.Firmware = s.firmware.version
		s.firmware = nil
		s.logger.Info().
			Str("version", config.FormatVersion(s.device.Firmware)).
			Msg("simulator firmware installed")
		return nil, nil

	default:
		return nil, fmt.Errorf("%w: %s", exchange.ErrUnsupported, cmd.Opcode())
	}
}

func clampU16(v uint32) uint16 {
	if v > math.MaxUint16 {
		return math.MaxUint16
	}
	return uint16(v)
}
