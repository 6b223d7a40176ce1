// Package server exposes a set of sensors over HTTP and measures them on a
// schedule. Sensors are not safe for concurrent use, so every access goes
// through the Station's lock.
package server

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Uranury/sensornet/sensors"
	"github.com/Uranury/sensornet/sinks"
)

// ErrSensorNotFound is returned for an id the station does not hold.
var ErrSensorNotFound = errors.New("sensor not found")

// SensorStatus is the JSON view of one sensor.
type SensorStatus struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	SensorType string  `json:"sensor_type"`
	Unit       string  `json:"unit"`
	Value      float64 `json:"value"`
	Measured   bool    `json:"measured"`
}

type entry struct {
	id       string
	sensor   sensors.Sensor
	measured bool
}

// Station owns a fixed list of sensors.
type Station struct {
	logger *zap.SugaredLogger

	mu      sync.Mutex
	entries []*entry
	byID    map[string]*entry
}

// NewStation gives every sensor an id of the form "<type>-<n>", counting per type.
func NewStation(list []sensors.Sensor, logger *zap.SugaredLogger) *Station {
	st := &Station{
		logger: logger,
		byID:   make(map[string]*entry, len(list)),
	}
	counts := map[sensors.Kind]int{}
	for _, s := range list {
		counts[s.Kind()]++
		e := &entry{
			id:     fmt.Sprintf("%s-%d", strings.ToLower(string(s.Kind())), counts[s.Kind()]),
			sensor: s,
		}
		st.entries = append(st.entries, e)
		st.byID[e.id] = e
	}
	return st
}

// IDs returns the sensor ids in construction order.
func (st *Station) IDs() []string {
	ids := make([]string, len(st.entries))
	for i, e := range st.entries {
		ids[i] = e.id
	}
	return ids
}

// Status lists every sensor with its last value.
func (st *Station) Status() []SensorStatus {
	st.mu.Lock()
	defer st.mu.Unlock()

	out := make([]SensorStatus, 0, len(st.entries))
	for _, e := range st.entries {
		out = append(out, status(e))
	}
	return out
}

// Measure measures one sensor. The reading is returned even when an
// observer failed; that failure comes back as the error.
func (st *Station) Measure(id string) (sinks.SensorData, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	e, ok := st.byID[id]
	if !ok {
		return sinks.SensorData{}, errors.Wrapf(ErrSensorNotFound, "%q", id)
	}
	return st.measure(e)
}

// MeasureAll measures every sensor once, in order.
func (st *Station) MeasureAll() {
	st.mu.Lock()
	defer st.mu.Unlock()

	for _, e := range st.entries {
		if _, err := st.measure(e); err != nil {
			st.logger.Errorw("measurement had failing observers", "sensor", e.id, "error", err)
		}
	}
}

// Run measures all sensors every interval until ctx is done.
func (st *Station) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			st.MeasureAll()
		}
	}
}

func (st *Station) measure(e *entry) (sinks.SensorData, error) {
	err := e.sensor.Measure()
	e.measured = true
	return sinks.NewSensorData(e.sensor, e.sensor.Value(), time.Now()), err
}

func status(e *entry) SensorStatus {
	return SensorStatus{
		ID:         e.id,
		Name:       e.sensor.Name(),
		SensorType: string(e.sensor.Kind()),
		Unit:       e.sensor.Unit(),
		Value:      e.sensor.Value(),
		Measured:   e.measured,
	}
}
