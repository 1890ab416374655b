package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "divectl.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadEmptyFileKeepsDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg != Default() {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestLoadOverrides(t *testing.T) {
	path := writeConfig(t, `
notification_codec = "CBOR"
sequence_start = 65535
response_timeout = "750ms"

[log]
level = "debug"
no_color = true

[device]
id = 42
firmware = "2.1.3"
hardware = "1.0.0.7"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.NotificationCodec != CodecCBOR {
		t.Fatalf("unexpected codec: %q", cfg.NotificationCodec)
	}
	if cfg.SequenceStart != 0xFFFF {
		t.Fatalf("unexpected sequence start: %d", cfg.SequenceStart)
	}
	if cfg.ResponseTimeout != 750*time.Millisecond {
		t.Fatalf("unexpected timeout: %v", cfg.ResponseTimeout)
	}
	if cfg.Device.Hardware == ([4]byte{}) {
		t.Fatalf("hardware should keep a version")
	}
	if cfg.Log.Level != zerolog.DebugLevel || !cfg.Log.NoColor || !cfg.Log.Timestamp {
		t.Fatalf("unexpected log config: %+v", cfg.Log)
	}
	if cfg.Device.ID != 42 {
		t.Fatalf("unexpected device id: %d", cfg.Device.ID)
	}
	if cfg.Device.Firmware != [4]byte{2, 1, 3, 0} || cfg.Device.Hardware != [4]byte{1, 0, 0, 7} {
		t.Fatalf("unexpected versions: %v %v", cfg.Device.Firmware, cfg.Device.Hardware)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"codec":         `notification_codec = "json"`,
		"sequence":      `sequence_start = 70000`,
		"timeout":       `response_timeout = "soon"`,
		"zero timeout":  `response_timeout = "0s"`,
		"device id":     "[device]\nid = -1",
		"level":         "[log]\nlevel = \"loud\"",
		"firmware":      "[device]\nfirmware = \"1.2.3.4.5\"",
		"firmware byte": "[device]\nfirmware = \"1.256\"",
		"unknown key":   `baud_rate = 9600`,
	}
	for name, body := range cases {
		if _, err := Load(writeConfig(t, body)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err == nil || !strings.Contains(err.Error(), "config load failed") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestVersionRoundTrip(t *testing.T) {
	v, err := ParseVersion(" 3.14.0.9 ")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := FormatVersion(v); got != "3.14.0.9" {
		t.Fatalf("unexpected format: %q", got)
	}
	if _, err := ParseVersion(""); err == nil {
		t.Fatalf("expected error for empty version")
	}
}
