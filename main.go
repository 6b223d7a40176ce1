// Command sensornet simulates a small sensor network: sensors are built by
// type label, a logging receiver is attached to each of them and every
// measurement is pushed to the attached observers.
//
// With no configuration it measures each sensor once and exits. Setting
// MEASURE_INTERVAL keeps measuring; HTTP_ADDR, INFLUX_* and MQTT_BROKER attach
// the optional gin API, InfluxDB and MQTT sinks.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gin-gonic/gin"
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	pkgerrors "github.com/pkg/errors"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Uranury/sensornet/config"
	"github.com/Uranury/sensornet/sensors"
	"github.com/Uranury/sensornet/server"
	"github.com/Uranury/sensornet/sinks"
)

func main() {
	foundDotenv := config.LoadDotenv()

	cfg, err := config.Load(os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	defer logger.Sync() //nolint:errcheck
	if !foundDotenv {
		logger.Debug("No .env file found, using environment variables")
	}

	if err := run(cfg, logger); err != nil {
		logger.Errorw("sensornet stopped", "error", err)
		os.Exit(1)
	}
}

func newLogger(level string) (*zap.SugaredLogger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	zc := zap.NewDevelopmentConfig()
	zc.Level = zap.NewAtomicLevelAt(lvl)
	zc.DisableStacktrace = true
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	l, err := zc.Build()
	if err != nil {
		return nil, err
	}
	return l.Sugar(), nil
}

func run(cfg *config.Config, logger *zap.SugaredLogger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if len(cfg.SensorTypes) == 0 {
		return pkgerrors.New("no sensor types configured")
	}

	// Initialize all sensors
	all := make([]sensors.Sensor, 0, len(cfg.SensorTypes))
	for i, kind := range cfg.SensorTypes {
		opts := []sensors.Option{sensors.WithLogger(logger.Named("sensor"))}
		if cfg.Seed != nil {
			opts = append(opts, sensors.WithSeed(*cfg.Seed+uint64(i)))
		}
		s, err := sensors.New(string(kind), opts...)
		if err != nil {
			return err
		}
		all = append(all, s)
	}

	receiver := sensors.NewReceiver(cfg.ReceiverName, sensors.WithLogger(logger.Named("receiver")))
	for _, s := range all {
		s.Attach(receiver)
	}

	closeSinks, err := attachSinks(cfg, all, logger)
	if err != nil {
		return err
	}
	defer closeSinks()

	var hub *sinks.Hub
	if cfg.HTTPAddr != "" {
		hub = sinks.NewHub(logger.Named("ws"))
		defer hub.Close()
		for _, s := range all {
			s.Attach(hub.For(s))
		}
	}

	station := server.NewStation(all, logger.Named("station"))

	logger.Infof("Monitoring sensors: %d", len(all))
	for _, id := range station.IDs() {
		logger.Infof("  - %s", id)
	}

	if cfg.MeasureInterval == 0 && cfg.HTTPAddr == "" {
		station.MeasureAll()
		return nil
	}

	if cfg.HTTPAddr != "" {
		gin.SetMode(gin.ReleaseMode)
		srv := &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           server.NewRouter(station, hub),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logger.Infof("Server starting on %s", cfg.HTTPAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Errorw("http server failed", "error", err)
				stop()
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Warnw("http shutdown", "error", err)
			}
		}()
	}

	if cfg.MeasureInterval > 0 {
		station.Run(ctx, cfg.MeasureInterval)
	} else {
		<-ctx.Done()
	}
	return nil
}

// attachSinks connects the configured external sinks and attaches one
// observer per sensor to each. The returned func releases the clients.
func attachSinks(cfg *config.Config, all []sensors.Sensor, logger *zap.SugaredLogger) (func(), error) {
	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if cfg.Influx.Enabled() {
		// Initialize InfluxDB client
		client := influxdb2.NewClient(cfg.Influx.URL, cfg.Influx.Token)
		writeAPI := client.WriteAPI(cfg.Influx.Org, cfg.Influx.Bucket)
		influxLog := logger.Named("influx")
		go func() {
			for err := range writeAPI.Errors() {
				influxLog.Errorw("influx write failed", "error", err)
			}
		}()
		closers = append(closers, func() {
			writeAPI.Flush()
			client.Close()
		})
		for _, s := range all {
			s.Attach(sinks.NewInflux(writeAPI, s))
		}
		influxLog.Infof("Writing to %s bucket %q", cfg.Influx.URL, cfg.Influx.Bucket)
	}

	if cfg.MQTT.Enabled() {
		mqttLog := logger.Named("mqtt")
		opts := mqtt.NewClientOptions()
		opts.AddBroker(cfg.MQTT.Broker)
		opts.SetClientID(cfg.MQTT.ClientID)
		opts.SetCleanSession(true)
		opts.SetAutoReconnect(true)
		opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			mqttLog.Warnw("lost connection to MQTT broker", "error", err)
		})

		client := mqtt.NewClient(opts)
		if token := client.Connect(); token.Wait() && token.Error() != nil {
			closeAll()
			return nil, pkgerrors.Wrapf(token.Error(), "connect to MQTT broker %s", cfg.MQTT.Broker)
		}
		closers = append(closers, func() { client.Disconnect(250) })
		for _, s := range all {
			s.Attach(sinks.NewMQTT(client, cfg.MQTT.TopicPrefix, s, mqttLog))
		}
		mqttLog.Infof("Publishing to %s under %q", cfg.MQTT.Broker, cfg.MQTT.TopicPrefix)
	}

	return closeAll, nil
}
