package gauge

// Mapping converts a ratio in [0, 1] to a step target. The defaults are
// calibrated to the gauge faces: 21 steps per percent, with gauge A offset
// so both needles are distinguishable at zero.
type Mapping struct {
	Scale   float64
	OffsetA float64
	OffsetB float64
}

// DefaultMapping is the calibration of the reference hardware.
var DefaultMapping = Mapping{
	Scale:   2100,
	OffsetA: 10,
}

// Positions maps both ratios.
func (m Mapping) Positions(ratioA, ratioB float64) (int, int) {
	return clamp(int(ratioA*m.Scale + m.OffsetA)), clamp(int(ratioB*m.Scale + m.OffsetB))
}
