package sinks

import (
	"encoding/json"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

const publishTimeout = 2 * time.Second

// Publisher is the part of mqtt.Client used by MQTT.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// MQTT publishes the readings of one sensor as JSON to <prefix>/<sensor name>.
type MQTT struct {
	client Publisher
	topic  string
	source Source
	logger *zap.SugaredLogger
}

func NewMQTT(client Publisher, prefix string, src Source, logger *zap.SugaredLogger) *MQTT {
	return &MQTT{
		client: client,
		topic:  Topic(prefix, src.Name()),
		source: src,
		logger: logger,
	}
}

// Topic joins prefix and the sensor name.
func Topic(prefix, sensorName string) string {
	if prefix == "" {
		return sensorName
	}
	return prefix + "/" + sensorName
}

func (m *MQTT) Update(value float64) {
	payload, err := json.Marshal(NewSensorData(m.source, value, time.Now()))
	if err != nil {
		m.logger.Errorw("encode reading", "sensor", m.source.Name(), "error", err)
		return
	}

	token := m.client.Publish(m.topic, 1, false, payload)
	if !token.WaitTimeout(publishTimeout) {
		m.logger.Warnw("mqtt publish timed out", "topic", m.topic)
		return
	}
	if err := token.Error(); err != nil {
		m.logger.Errorw("mqtt publish failed", "topic", m.topic, "error", err)
	}
}
