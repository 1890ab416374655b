package divecalc

import (
	"errors"
	"math"
	"testing"
)

func TestPPO2(t *testing.T) {
	cases := []struct {
		depth uint16
		gas   GasType
		want  uint16
	}{
		{0, Air(), 21},
		{30, Air(), 84},
		{30, Nitrox(32), 128},
		{40, Trimix(21, 35), 105},
		{6, Nitrox(100), 160},
	}
	for _, tc := range cases {
		got, err := PPO2(tc.depth, tc.gas)
		if err != nil {
			t.Fatalf("PPO2(%d, %s): %v", tc.depth, tc.gas, err)
		}
		if got != tc.want {
			t.Fatalf("PPO2(%d, %s) = %d want %d", tc.depth, tc.gas, got, tc.want)
		}
	}
}

func TestEAD(t *testing.T) {
	cases := []struct {
		depth uint16
		gas   GasType
		want  uint16
	}{
		{30, Air(), 30},
		{30, Nitrox(32), 24},
		{0, Nitrox(40), 0},
		{40, Trimix(21, 35), 18},
	}
	for _, tc := range cases {
		got, err := EAD(tc.depth, tc.gas)
		if err != nil {
			t.Fatalf("EAD(%d, %s): %v", tc.depth, tc.gas, err)
		}
		if got != tc.want {
			t.Fatalf("EAD(%d, %s) = %d want %d", tc.depth, tc.gas, got, tc.want)
		}
	}
}

func TestInvalidGas(t *testing.T) {
	for _, gas := range []GasType{Nitrox(0), Nitrox(101), Trimix(30, 80), {Kind: 9}} {
		if _, err := PPO2(10, gas); !errors.Is(err, ErrInvalidGas) {
			t.Fatalf("%s: expected ErrInvalidGas, got %v", gas, err)
		}
		if _, err := EAD(10, gas); !errors.Is(err, ErrInvalidGas) {
			t.Fatalf("%s: expected ErrInvalidGas, got %v", gas, err)
		}
	}
}

func TestGasConsumption(t *testing.T) {
	got := GasConsumption(20, 45, 20)
	if math.Abs(got-2700) > 1e-9 {
		t.Fatalf("unexpected consumption: %v", got)
	}
}

func TestProfileTracksMaxDepth(t *testing.T) {
	p := NewProfile(Nitrox(32))
	p.UpdateDepth(1500)
	p.UpdateDepth(3000)
	p.UpdateDepth(1200)
	p.IncrementDuration(60)
	p.IncrementDuration(30)

	if p.MaxDepthCM != 3000 || p.CurrentDepthCM != 1200 {
		t.Fatalf("unexpected depths: %+v", p)
	}
	if p.DurationSec != 90 {
		t.Fatalf("unexpected duration: %d", p.DurationSec)
	}
	if p.TemperatureX10 != 200 {
		t.Fatalf("unexpected default temperature: %d", p.TemperatureX10)
	}
	ppo2, err := p.CurrentPPO2()
	if err != nil || ppo2 != 70 {
		t.Fatalf("unexpected ppo2: %d %v", ppo2, err)
	}
}

func TestParseGas(t *testing.T) {
	for _, gas := range []GasType{Air(), Nitrox(32), Trimix(18, 45)} {
		got, err := ParseGas(gas.String())
		if err != nil {
			t.Fatalf("ParseGas(%q): %v", gas.String(), err)
		}
		if got != gas {
			t.Fatalf("ParseGas(%q) = %+v", gas.String(), got)
		}
	}
	for _, raw := range []string{"", "nitrox", "ean", "ean0", "tx21", "tx60/60", "ean300"} {
		if _, err := ParseGas(raw); !errors.Is(err, ErrInvalidGas) {
			t.Fatalf("ParseGas(%q): expected ErrInvalidGas, got %v", raw, err)
		}
	}
}

func TestPPO2AndEADSaturateAtDepthLimit(t *testing.T) {
	ppo2, err := PPO2(math.MaxUint16, Nitrox(100))
	if err != nil || ppo2 != math.MaxUint16 {
		t.Fatalf("PPO2 at max depth = %d, %v; want %d", ppo2, err, math.MaxUint16)
	}
	ppo2, err = PPO2(6543, Nitrox(100))
	if err != nil || ppo2 != 65530 {
		t.Fatalf("PPO2 below limit = %d, %v; want 65530", ppo2, err)
	}
	ead, err := EAD(math.MaxUint16, Trimix(10, 0))
	if err != nil || ead != math.MaxUint16 {
		t.Fatalf("EAD at max depth = %d, %v; want %d", ead, err, math.MaxUint16)
	}
}

func TestNDL(t *testing.T) {
	cases := []struct {
		depth uint16
		gas   GasType
		want  uint16
	}{
		{0, Air(), NDLCutoff},
		{10, Air(), NDLCutoff},
		{18, Air(), 59},
		{30, Air(), 16},
		{40, Air(), 8},
		{30, Nitrox(32), 27},
		{30, Trimix(21, 35), 13},
	}
	for _, tc := range cases {
		got, err := NDL(tc.depth, tc.gas)
		if err != nil {
			t.Fatalf("NDL(%d, %s): %v", tc.depth, tc.gas, err)
		}
		if got != tc.want {
			t.Fatalf("NDL(%d, %s) = %d want %d", tc.depth, tc.gas, got, tc.want)
		}
	}
}

func TestNDLShrinksWithDepth(t *testing.T) {
	prev := NDLCutoff
	for depth := uint16(15); depth <= 60; depth += 5 {
		got, err := NDL(depth, Air())
		if err != nil {
			t.Fatalf("NDL(%d): %v", depth, err)
		}
		if got > prev {
			t.Fatalf("NDL(%d) = %d, above the shallower %d", depth, got, prev)
		}
		prev = got
	}
	nitrox, _ := NDL(30, Nitrox(32))
	air, _ := NDL(30, Air())
	if nitrox <= air {
		t.Fatalf("expected nitrox NDL %d above air NDL %d", nitrox, air)
	}
	if _, err := NDL(30, Nitrox(0)); !errors.Is(err, ErrInvalidGas) {
		t.Fatalf("expected ErrInvalidGas, got %v", err)
	}
}
