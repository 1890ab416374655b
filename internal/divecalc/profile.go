package divecalc

// Profile tracks the running state of one dive.
type Profile struct {
	// MaxDepthCM and CurrentDepthCM are in centimeters.
	MaxDepthCM     uint16
	CurrentDepthCM uint16
	DurationSec    uint32
	Gas            GasType
	// TemperatureX10 is degrees Celsius scaled by ten (215 is 21.5 C).
	TemperatureX10 int16
}

func NewProfile(gas GasType) *Profile {
	return &Profile{Gas: gas, TemperatureX10: 200}
}

func (p *Profile) UpdateDepth(cm uint16) {
	p.CurrentDepthCM = cm
	if cm > p.MaxDepthCM {
		p.MaxDepthCM = cm
	}
}

func (p *Profile) IncrementDuration(seconds uint32) {
	p.DurationSec += seconds
}

func (p *Profile) UpdateTemperature(celsiusX10 int16) {
	p.TemperatureX10 = celsiusX10
}

// CurrentPPO2 is PPO2 at the current depth, truncated to whole meters.
func (p *Profile) CurrentPPO2() (uint16, error) {
	return PPO2(p.CurrentDepthCM/100, p.Gas)
}
