// Package divecalc holds the gas and depth arithmetic a dive computer shows
// alongside its sensor readings. Depths are meters of sea water; one bar of
// pressure is added for every ten meters.
package divecalc

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var ErrInvalidGas = errors.New("divecalc: invalid gas mix")

const airNitrogen = 0.79

type GasKind uint8

const (
	GasAir GasKind = iota
	GasNitrox
	GasTrimix
)

// GasType is a breathing mix. Helium is only meaningful for trimix.
type GasType struct {
	Kind          GasKind
	OxygenPercent uint8
	HeliumPercent uint8
}

func Air() GasType {
	return GasType{Kind: GasAir, OxygenPercent: 21}
}

func Nitrox(oxygenPercent uint8) GasType {
	return GasType{Kind: GasNitrox, OxygenPercent: oxygenPercent}
}

func Trimix(oxygenPercent, heliumPercent uint8) GasType {
	return GasType{Kind: GasTrimix, OxygenPercent: oxygenPercent, HeliumPercent: heliumPercent}
}

func (g GasType) Validate() error {
	switch g.Kind {
	case GasAir:
		return nil
	case GasNitrox:
		if g.OxygenPercent == 0 || g.OxygenPercent > 100 {
			return fmt.Errorf("%w: nitrox with %d%% oxygen", ErrInvalidGas, g.OxygenPercent)
		}
	case GasTrimix:
		if g.OxygenPercent == 0 || int(g.OxygenPercent)+int(g.HeliumPercent) > 100 {
			return fmt.Errorf("%w: trimix %d/%d", ErrInvalidGas, g.OxygenPercent, g.HeliumPercent)
		}
	default:
		return fmt.Errorf("%w: kind %d", ErrInvalidGas, g.Kind)
	}
	return nil
}

func (g GasType) OxygenFraction() float64 {
	if g.Kind == GasAir {
		return 0.21
	}
	return float64(g.OxygenPercent) / 100
}

func (g GasType) NitrogenFraction() float64 {
	switch g.Kind {
	case GasAir:
		return airNitrogen
	case GasTrimix:
		return float64(100-int(g.OxygenPercent)-int(g.HeliumPercent)) / 100
	default:
		return float64(100-int(g.OxygenPercent)) / 100
	}
}

func (g GasType) HeliumFraction() float64 {
	if g.Kind != GasTrimix {
		return 0
	}
	return float64(g.HeliumPercent) / 100
}

func (g GasType) String() string {
	switch g.Kind {
	case GasAir:
		return "air"
	case GasNitrox:
		return fmt.Sprintf("EAN%d", g.OxygenPercent)
	case GasTrimix:
		return fmt.Sprintf("TX%d/%d", g.OxygenPercent, g.HeliumPercent)
	default:
		return fmt.Sprintf("gas(%d)", g.Kind)
	}
}

// ParseGas reads the names String prints: "air", "EAN32", "TX21/35".
// Matching is case-insensitive.
func ParseGas(raw string) (GasType, error) {
	name := strings.ToLower(strings.TrimSpace(raw))
	var g GasType
	switch {
	case name == "air":
		return Air(), nil
	case strings.HasPrefix(name, "ean"):
		o, err := parsePercent(name[3:])
		if err != nil {
			return GasType{}, fmt.Errorf("%w: %q", ErrInvalidGas, raw)
		}
		g = Nitrox(o)
	case strings.HasPrefix(name, "tx"):
		o2, he, ok := strings.Cut(name[2:], "/")
		if !ok {
			return GasType{}, fmt.Errorf("%w: %q", ErrInvalidGas, raw)
		}
		o, err1 := parsePercent(o2)
		h, err2 := parsePercent(he)
		if err1 != nil || err2 != nil {
			return GasType{}, fmt.Errorf("%w: %q", ErrInvalidGas, raw)
		}
		g = Trimix(o, h)
	default:
		return GasType{}, fmt.Errorf("%w: %q", ErrInvalidGas, raw)
	}
	if err := g.Validate(); err != nil {
		return GasType{}, err
	}
	return g, nil
}

func parsePercent(raw string) (uint8, error) {
	n, err := strconv.ParseUint(raw, 10, 8)
	return uint8(n), err
}

// AmbientPressure returns absolute pressure in bar at depthMeters.
func AmbientPressure(depthMeters float64) float64 {
	return depthMeters/10 + 1
}

// PPO2 returns the oxygen partial pressure at depthMeters in hundredths of a
// bar, rounded to the nearest unit (121 means 1.21 bar).
func PPO2(depthMeters uint16, gas GasType) (uint16, error) {
	if err := gas.Validate(); err != nil {
		return 0, err
	}
	v := AmbientPressure(float64(depthMeters)) * gas.OxygenFraction() * 100
	return saturate(v), nil
}

// GasConsumption estimates liters of gas used at an average depth for the
// given duration and surface consumption rate in liters per minute.
func GasConsumption(depthMeters, durationMinutes uint16, sacRate float64) float64 {
	return sacRate * AmbientPressure(float64(depthMeters)) * float64(durationMinutes)
}

// EAD returns the equivalent air depth in meters. Mixes leaner in nitrogen
// than air can produce a negative depth near the surface; it is clamped to
// zero.
func EAD(depthMeters uint16, gas GasType) (uint16, error) {
	if err := gas.Validate(); err != nil {
		return 0, err
	}
	if gas.Kind == GasAir {
		return depthMeters, nil
	}
	ead := (float64(depthMeters)+10)*gas.NitrogenFraction()/airNitrogen - 10
	if ead <= 0 {
		return 0, nil
	}
	return saturate(ead), nil
}

// saturate rounds v and clamps it to the uint16 range.
func saturate(v float64) uint16 {
	switch r := math.Round(v); {
	case r <= 0:
		return 0
	case r >= math.MaxUint16:
		return math.MaxUint16
	default:
		return uint16(r)
	}
}
