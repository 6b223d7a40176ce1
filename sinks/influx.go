package sinks

import (
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

const measurementName = "sensor_data"

// PointWriter is the part of api.WriteAPI used by Influx.
type PointWriter interface {
	WritePoint(point *write.Point)
}

// Influx writes every value of one sensor as a point. Writes are
// asynchronous; delivery errors surface on the WriteAPI's Errors channel.
type Influx struct {
	writer PointWriter
	source Source
	now    func() time.Time
}

func NewInflux(w PointWriter, src Source) *Influx {
	return &Influx{writer: w, source: src, now: time.Now}
}

func (i *Influx) Update(value float64) {
	p := influxdb2.NewPointWithMeasurement(measurementName).
		AddTag("sensor", i.source.Name()).
		AddTag("sensor_type", string(i.source.Kind())).
		AddTag("unit", i.source.Unit()).
		AddField("value", value).
		SetTime(i.now())

	i.writer.WritePoint(p)
}
