package divecalc

import "math"

// NDLCutoff caps NDL. Anything longer is reported as the cutoff.
const NDLCutoff uint16 = 99

// waterVapor is the alveolar water vapor pressure in bar.
const waterVapor = 0.0627

const surfacePressure = 1.0

type compartment struct {
	n2HalfTime, n2A, n2B float64
	heHalfTime, heA, heB float64
}

// zhl16c holds the Bühlmann ZH-L16C coefficients, compartment 1b first.
var zhl16c = [16]compartment{
	{5.0, 1.1696, 0.5578, 1.88, 1.6189, 0.4770},
	{8.0, 1.0000, 0.6514, 3.02, 1.3830, 0.5747},
	{12.5, 0.8618, 0.7222, 4.72, 1.1919, 0.6527},
	{18.5, 0.7562, 0.7825, 6.99, 1.0458, 0.7223},
	{27.0, 0.6200, 0.8126, 10.21, 0.9220, 0.7582},
	{38.3, 0.5043, 0.8434, 14.48, 0.8205, 0.7957},
	{54.3, 0.4410, 0.8693, 20.53, 0.7305, 0.8279},
	{77.0, 0.4000, 0.8910, 29.11, 0.6502, 0.8553},
	{109.0, 0.3750, 0.9092, 41.20, 0.5950, 0.8757},
	{146.0, 0.3500, 0.9222, 55.19, 0.5545, 0.8903},
	{187.0, 0.3295, 0.9319, 70.69, 0.5333, 0.8997},
	{239.0, 0.3065, 0.9403, 90.34, 0.5189, 0.9073},
	{305.0, 0.2835, 0.9477, 115.29, 0.5181, 0.9122},
	{390.0, 0.2610, 0.9544, 147.42, 0.5176, 0.9171},
	{498.0, 0.2480, 0.9602, 188.24, 0.5172, 0.9217},
	{635.0, 0.2327, 0.9653, 240.03, 0.5119, 0.9267},
}

// NDL returns the no-decompression limit in whole minutes for a square
// profile: instant descent to depthMeters, tissues saturated with surface air
// beforehand, no gradient factors. The result is capped at NDLCutoff.
func NDL(depthMeters uint16, gas GasType) (uint16, error) {
	if err := gas.Validate(); err != nil {
		return 0, err
	}
	inspired := AmbientPressure(float64(depthMeters)) - waterVapor
	n2In := inspired * gas.NitrogenFraction()
	heIn := inspired * gas.HeliumFraction()
	n2Start := (surfacePressure - waterVapor) * airNitrogen

	var ndl uint16
	for minute := uint16(1); minute <= NDLCutoff; minute++ {
		for _, c := range zhl16c {
			if !c.surfaceable(n2Start, n2In, heIn, float64(minute)) {
				return ndl, nil
			}
		}
		ndl = minute
	}
	return ndl, nil
}

// surfaceable reports whether the compartment, after minutes at constant
// depth, stays within its M-value at the surface.
func (c compartment) surfaceable(n2Start, n2In, heIn, minutes float64) bool {
	n2 := haldane(n2Start, n2In, c.n2HalfTime, minutes)
	he := haldane(0, heIn, c.heHalfTime, minutes)
	total := n2 + he
	a := (c.n2A*n2 + c.heA*he) / total
	b := (c.n2B*n2 + c.heB*he) / total
	return total <= a+surfacePressure/b
}

func haldane(start, inspired, halfTime, minutes float64) float64 {
	return inspired + (start-inspired)*math.Exp(-math.Ln2/halfTime*minutes)
}
