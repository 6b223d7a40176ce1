package sensors

const (
	temperatureName = "Temperature Sensor"
	temperatureUnit = "°C"
	temperatureMax  = 100.0
)

// Temperature simulates a thermometer reporting values in [0, 100) °C.
type Temperature struct {
	subject
}

// NewTemperature returns a temperature sensor that has not been measured yet.
func NewTemperature(opts ...Option) *Temperature {
	return &Temperature{subject: newSubject(KindTemperature, temperatureName, temperatureUnit, opts)}
}

func (t *Temperature) Measure() error {
	// Simulated reading, the source never fails
	return t.record(t.rng.Float64() * temperatureMax)
}
