// Package config reads the demo driver's settings from .env, the environment
// and command-line flags, in increasing order of precedence.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"

	"github.com/Uranury/sensornet/sensors"
)

type Config struct {
	SensorTypes  []sensors.Kind
	ReceiverName string
	// MeasureInterval of zero measures every sensor once and exits.
	MeasureInterval time.Duration
	// Seed is nil when values should not be reproducible.
	Seed     *uint64
	LogLevel string
	// HTTPAddr enables the gin server when non-empty.
	HTTPAddr string
	Influx   InfluxConfig
	MQTT     MQTTConfig
}

type InfluxConfig struct {
	URL    string
	Token  string
	Org    string
	Bucket string
}

func (c InfluxConfig) Enabled() bool {
	return c.URL != "" && c.Bucket != ""
}

type MQTTConfig struct {
	Broker      string
	TopicPrefix string
	ClientID    string
}

func (c MQTTConfig) Enabled() bool {
	return c.Broker != ""
}

// LoadDotenv loads the given files (".env" when none) into the environment.
// It reports whether a file was found; a missing file is not an error.
func LoadDotenv(filenames ...string) bool {
	return godotenv.Load(filenames...) == nil
}

// Load builds a Config from the environment, then applies args as flags.
// A --help request comes back as pflag.ErrHelp.
func Load(args []string) (*Config, error) {
	fs := pflag.NewFlagSet("sensornet", pflag.ContinueOnError)
	types := fs.StringSlice("types", splitList(getEnv("SENSOR_TYPES", "Temperature,Pressure")), "sensor types to create")
	receiver := fs.String("receiver", getEnv("RECEIVER_NAME", "Receiver 1"), "name of the logging receiver")
	interval := fs.String("interval", getEnv("MEASURE_INTERVAL", "0s"), "measurement period, 0 to measure once")
	seed := fs.String("seed", getEnv("SEED", ""), "seed for reproducible readings")
	logLevel := fs.String("log-level", getEnv("LOG_LEVEL", "info"), "debug, info, warn or error")
	httpAddr := fs.String("http-addr", getEnv("HTTP_ADDR", ""), "serve the HTTP API on this address")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg := &Config{
		ReceiverName: *receiver,
		LogLevel:     *logLevel,
		HTTPAddr:     *httpAddr,
		Influx: InfluxConfig{
			URL:    getEnv("INFLUX_URL", "http://localhost:8086"),
			Token:  getEnv("INFLUX_TOKEN", ""),
			Org:    getEnv("INFLUX_ORG", ""),
			Bucket: getEnv("INFLUX_BUCKET", ""),
		},
		MQTT: MQTTConfig{
			Broker:      getEnv("MQTT_BROKER", ""),
			TopicPrefix: getEnv("MQTT_TOPIC_PREFIX", "sensornet"),
			ClientID:    getEnv("MQTT_CLIENT_ID", "sensornet"),
		},
	}

	for _, t := range *types {
		kind, err := sensors.ParseKind(strings.TrimSpace(t))
		if err != nil {
			return nil, errors.Wrap(err, "SENSOR_TYPES")
		}
		cfg.SensorTypes = append(cfg.SensorTypes, kind)
	}
	if len(cfg.SensorTypes) == 0 {
		return nil, errors.New("SENSOR_TYPES must name at least one sensor type")
	}

	d, err := time.ParseDuration(*interval)
	if err != nil {
		return nil, errors.Wrap(err, "bad MEASURE_INTERVAL")
	}
	if d < 0 {
		return nil, errors.Errorf("MEASURE_INTERVAL must not be negative, got %s", d)
	}
	cfg.MeasureInterval = d

	if *seed != "" {
		v, err := strconv.ParseUint(*seed, 10, 64)
		if err != nil {
			return nil, errors.Wrap(err, "bad SEED")
		}
		cfg.Seed = &v
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
