package sensors

const (
	pressureName = "Pressure Sensor"
	pressureUnit = "Pa"
	pressureMax  = 200.0
)

// Pressure simulates a barometer reporting values in [0, 200) Pa.
type Pressure struct {
	subject
}

// NewPressure returns a pressure sensor that has not been measured yet.
func NewPressure(opts ...Option) *Pressure {
	return &Pressure{subject: newSubject(KindPressure, pressureName, pressureUnit, opts)}
}

func (p *Pressure) Measure() error {
	return p.record(p.rng.Float64() * pressureMax)
}
