package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/hjeldin/dive-computer-proto/internal/logging"
)

const (
	CodecTLV  = "tlv"
	CodecCBOR = "cbor"
)

// Device is the identity a simulated device reports for Identify.
type Device struct {
	ID       uint32
	Firmware [4]byte
	Hardware [4]byte
}

type Config struct {
	// NotificationCodec selects the payload codec for notification frames.
	NotificationCodec string
	SequenceStart     uint16
	// ResponseTimeout is how long a command stays pending before it expires.
	ResponseTimeout time.Duration
	Log             logging.Config
	Device          Device
}

type fileConfig struct {
	NotificationCodec string     `toml:"notification_codec"`
	SequenceStart     int64      `toml:"sequence_start"`
	ResponseTimeout   string     `toml:"response_timeout"`
	Log               fileLog    `toml:"log"`
	Device            fileDevice `toml:"device"`
}

type fileLog struct {
	Level     string `toml:"level"`
	Timestamp bool   `toml:"timestamp"`
	NoColor   bool   `toml:"no_color"`
}

type fileDevice struct {
	ID       int64  `toml:"id"`
	Firmware string `toml:"firmware"`
	Hardware string `toml:"hardware"`
}

func Default() Config {
	return Config{
		NotificationCodec: CodecTLV,
		SequenceStart:     1,
		ResponseTimeout:   2 * time.Second,
		Log:               logging.DefaultConfig(logging.ProfileRuntime),
		Device: Device{
			ID:       0x0000D1CE,
			Firmware: [4]byte{1, 0, 0, 0},
			Hardware: [4]byte{1, 0, 0, 0},
		},
	}
}

// Load reads a TOML file over Default. Keys absent from the file keep their
// default value.
func Load(path string) (Config, error) {
	cfg := Default()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("config %s: unknown key %q", path, undecoded[0].String())
	}

	if meta.IsDefined("notification_codec") {
		cfg.NotificationCodec = strings.ToLower(strings.TrimSpace(raw.NotificationCodec))
	}
	if meta.IsDefined("sequence_start") {
		if raw.SequenceStart < 0 || raw.SequenceStart > 0xFFFF {
			return Config{}, fmt.Errorf("sequence_start %d out of range", raw.SequenceStart)
		}
		cfg.SequenceStart = uint16(raw.SequenceStart)
	}
	if meta.IsDefined("response_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.ResponseTimeout))
		if err != nil {
			return Config{}, fmt.Errorf("parse response_timeout: %w", err)
		}
		cfg.ResponseTimeout = d
	}

	if meta.IsDefined("log", "level") {
		level, ok := logging.ParseLevel(raw.Log.Level)
		if !ok {
			return Config{}, fmt.Errorf("parse log.level: unknown level %q", raw.Log.Level)
		}
		cfg.Log.Level = level
	}
	if meta.IsDefined("log", "timestamp") {
		cfg.Log.Timestamp = raw.Log.Timestamp
	}
	if meta.IsDefined("log", "no_color") {
		cfg.Log.NoColor = raw.Log.NoColor
	}

	if meta.IsDefined("device", "id") {
		if raw.Device.ID < 0 || raw.Device.ID > 0xFFFFFFFF {
			return Config{}, fmt.Errorf("device.id %d out of range", raw.Device.ID)
		}
		cfg.Device.ID = uint32(raw.Device.ID)
	}
	if meta.IsDefined("device", "firmware") {
		v, err := ParseVersion(raw.Device.Firmware)
		if err != nil {
			return Config{}, fmt.Errorf("parse device.firmware: %w", err)
		}
		cfg.Device.Firmware = v
	}
	if meta.IsDefined("device", "hardware") {
		v, err := ParseVersion(raw.Device.Hardware)
		if err != nil {
			return Config{}, fmt.Errorf("parse device.hardware: %w", err)
		}
		cfg.Device.Hardware = v
	}

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func Validate(cfg Config) error {
	switch cfg.NotificationCodec {
	case CodecTLV, CodecCBOR:
	default:
		return fmt.Errorf("notification_codec must be %q or %q, got %q", CodecTLV, CodecCBOR, cfg.NotificationCodec)
	}
	if cfg.ResponseTimeout <= 0 {
		return fmt.Errorf("response_timeout must be positive")
	}
	return nil
}

// ParseVersion reads a dotted version of up to four components, each 0-255.
// Missing trailing components are zero.
func ParseVersion(raw string) ([4]byte, error) {
	var out [4]byte
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return out, fmt.Errorf("empty version")
	}
	parts := strings.Split(raw, ".")
	if len(parts) > len(out) {
		return out, fmt.Errorf("version %q has more than %d components", raw, len(out))
	}
	for i, p := range parts {
		n, err := strconv.ParseUint(strings.TrimSpace(p), 10, 8)
		if err != nil {
			return [4]byte{}, fmt.Errorf("version %q: %w", raw, err)
		}
		out[i] = byte(n)
	}
	return out, nil
}

// FormatVersion prints v as major.minor.patch.build.
func FormatVersion(v [4]byte) string {
	return fmt.Sprintf("%d.%d.%d.%d", v[0], v[1], v[2], v[3])
}
