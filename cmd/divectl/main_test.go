package main

import (
	"bytes"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hjeldin/dive-computer-proto/internal/exchange"
	"github.com/hjeldin/dive-computer-proto/internal/protocol"
	"github.com/hjeldin/dive-computer-proto/internal/protocol/cborcodec"
	"github.com/hjeldin/dive-computer-proto/internal/sensor"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(append([]string{"--log-level", "error"}, args...), &stdout, &stderr)
	return stdout.String(), err
}

func TestChecksumCommand(t *testing.T) {
	out, err := runCLI(t, "checksum", "01 01 01 09")
	if err != nil {
		t.Fatalf("checksum: %v", err)
	}
	if out != "0xF3\n" {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestEncodeBatteryStatus(t *testing.T) {
	out, err := runCLI(t, "encode", "battery-status", "--seq", "123")
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if strings.TrimSpace(out) != "dc420101007b00046001010109f3" {
		t.Fatalf("unexpected frame: %q", out)
	}
}

func TestEncodeRejectsUnknownOpcode(t *testing.T) {
	if _, err := runCLI(t, "encode", "surface"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestDecodeCommand(t *testing.T) {
	out, err := runCLI(t, "decode", "DC:42:01:01:00:7B:00:04:60:01:01:01:09:F3")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	for _, want := range []string{"kind=command", "seq=123", "command: battery-status", "0xF3 ok"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in output:\n%s", want, out)
		}
	}
}

func TestDecodeReportsParseErrors(t *testing.T) {
	_, err := runCLI(t, "decode", "00420101007b00046001010109f3")
	if !errors.Is(err, protocol.ErrInvalidMagic) {
		t.Fatalf("expected ErrInvalidMagic, got %v", err)
	}
	_, err = runCLI(t, "decode", "dc420101007b00046001010109f4")
	if !errors.Is(err, protocol.ErrChecksumMismatch) {
		t.Fatalf("expected ErrChecksumMismatch, got %v", err)
	}
	if _, err := runCLI(t, "decode", "zz"); err == nil {
		t.Fatalf("expected hex error")
	}
}

func TestDecodeCBORNotification(t *testing.T) {
	dev := exchange.NewDevice(nil, exchange.WithNotificationCodec(cborcodec.Codec{}))
	frame, err := dev.Notify(sensor.Reading{SensorID: 3, Type: sensor.Pressure, Value: 2850, Timestamp: 900})
	if err != nil {
		t.Fatalf("notify: %v", err)
	}
	out, err := runCLI(t, "decode", "--codec", "cbor", hex.EncodeToString(frame))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	for _, want := range []string{"kind=notification", "type=pressure value=2850", "cbor:    {1: 3, 2: 2, 3: 2850, 4: 900}"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in output:\n%s", want, out)
		}
	}
}

func TestGasCommand(t *testing.T) {
	out, err := runCLI(t, "gas", "--depth", "30", "--mix", "EAN32", "--time", "20", "--sac", "15")
	if err != nil {
		t.Fatalf("gas: %v", err)
	}
	for _, want := range []string{"gas:  EAN32 at 30m", "ppo2: 1.28 bar", "ead:  24m", "ndl:  27 min", "use:  1200 l over 20 min"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in output:\n%s", want, out)
		}
	}
}

func TestGasCommandShallowNDL(t *testing.T) {
	out, err := runCLI(t, "gas", "--depth", "10")
	if err != nil {
		t.Fatalf("gas: %v", err)
	}
	if !strings.Contains(out, "ndl:  >99 min") {
		t.Fatalf("expected capped ndl in output:\n%s", out)
	}
}

func TestDemoWithConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "divectl.toml")
	body := "notification_codec = \"cbor\"\n[device]\nid = 4242\nfirmware = \"2.0.1\"\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	var stdout, stderr bytes.Buffer
	err := run([]string{"--config", path, "--log-level", "error", "demo", "--metrics"}, &stdout, &stderr)
	if err != nil {
		t.Fatalf("demo: %v\n%s", err, stderr.String())
	}
	out := stdout.String()
	for _, want := range []string{
		"DeviceID:4242",
		"notification sensor=1 depth=1850",
		"commands.SensorData {SensorID:3 ReadingType:pressure Value:2850}",
		"error error commands.ErrorInfo {Code:4}",
		"battery-status (damaged) -> 14 bytes",
		"device rejected payload: protocol: checksum mismatch",
		"commands.ErrorInfo {Code:2}",
		"calibrate expired",
		"diveproto_frames_encoded_total",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in output:\n%s", want, out)
		}
	}
}

func TestUnknownSubcommand(t *testing.T) {
	if _, err := runCLI(t, "surface"); err == nil {
		t.Fatalf("expected error")
	}
	if _, err := runCLI(t); !errors.Is(err, errUsage) {
		t.Fatalf("expected usage error, got %v", err)
	}
}
