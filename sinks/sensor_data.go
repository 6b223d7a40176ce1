// Package sinks contains observers that forward sensor readings outside the
// process: InfluxDB, websocket clients and MQTT.
package sinks

import (
	"time"

	"github.com/Uranury/sensornet/sensors"
)

// Source describes the sensor a sink observer is attached to. An observer
// only receives the value, so the sink is bound to its sensor up front.
type Source interface {
	Name() string
	Kind() sensors.Kind
	Unit() string
}

// SensorData is the unified data structure sent by every sink
type SensorData struct {
	Sensor     string    `json:"sensor"`
	SensorType string    `json:"sensor_type"`
	Value      float64   `json:"value"`
	Unit       string    `json:"unit"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewSensorData stamps value with the identity of src.
func NewSensorData(src Source, value float64, at time.Time) SensorData {
	return SensorData{
		Sensor:     src.Name(),
		SensorType: string(src.Kind()),
		Value:      value,
		Unit:       src.Unit(),
		Timestamp:  at,
	}
}
