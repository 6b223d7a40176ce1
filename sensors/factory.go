package sensors

import (
	"strings"

	"github.com/pkg/errors"
)

// ErrUnknownSensorType is returned by New for a label it does not know.
var ErrUnknownSensorType = errors.New("unknown sensor type")

// New builds the sensor variant named by label. Labels are matched exactly,
// see Kinds. No sensor is returned alongside an error.
func New(label string, opts ...Option) (Sensor, error) {
	switch Kind(label) {
	case KindTemperature:
		return NewTemperature(opts...), nil
	case KindPressure:
		return NewPressure(opts...), nil
	default:
		return nil, errors.Wrapf(ErrUnknownSensorType, "%q (want one of %s)", label, kindList())
	}
}

// ParseKind validates label without constructing anything.
func ParseKind(label string) (Kind, error) {
	for _, k := range Kinds() {
		if string(k) == label {
			return k, nil
		}
	}
	return "", errors.Wrapf(ErrUnknownSensorType, "%q (want one of %s)", label, kindList())
}

func kindList() string {
	kinds := Kinds()
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = string(k)
	}
	return strings.Join(names, ", ")
}
