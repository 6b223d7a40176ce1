package sensors

// Observer receives the value of a sensor each time it is measured.
type Observer interface {
	Update(value float64)
}

// ObserverFunc adapts a function to Observer. Functions are not comparable,
// so an ObserverFunc cannot be detached once attached.
type ObserverFunc func(value float64)

func (f ObserverFunc) Update(value float64) {
	f(value)
}

// Sensor interface that all sensors must implement
type Sensor interface {
	Name() string
	Kind() Kind
	Unit() string
	// Value returns the last measured value, zero before the first Measure.
	Value() float64
	Attach(o Observer)
	Detach(o Observer)
	// Measure takes a new reading and notifies every attached observer.
	// The returned error is non-nil only if an observer panicked.
	Measure() error
}

// Kind is the type label accepted by New.
type Kind string

const (
	KindTemperature Kind = "Temperature"
	KindPressure    Kind = "Pressure"
)

// Kinds returns every label New accepts.
func Kinds() []Kind {
	return []Kind{KindTemperature, KindPressure}
}
