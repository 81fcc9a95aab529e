package telemetry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/berfenger/rfxcom2mqtt/internal/config"
	"github.com/berfenger/rfxcom2mqtt/internal/core/domain"
	"github.com/berfenger/rfxcom2mqtt/internal/core/events"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"go.uber.org/zap"
)

const (
	CONNECT_TIMEOUT = 10 * time.Second
)

var ErrDisabled = errors.New("influxdb telemetry is disabled")

type pointWriter interface {
	WritePoint(point *write.Point)
	Flush()
}

// InfluxSink writes the numeric readings of device events to InfluxDB.
// Writes are batched and never block the caller.
type InfluxSink struct {
	writer pointWriter
	close  func()
	now    func() time.Time
	logger *zap.Logger
}

func NewInfluxSink(cfg config.InfluxDBConfig, logger *zap.Logger) (*InfluxSink, error) {
	if !cfg.Enabled {
		return nil, ErrDisabled
	}
	client := influxdb2.NewClientWithOptions(cfg.Url, cfg.Token, influxdb2.DefaultOptions())

	ctx, cancel := context.WithTimeout(context.Background(), CONNECT_TIMEOUT)
	defer cancel()
	healthy, err := client.Ping(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("influxdb ping failed: %w", err)
	}
	if !healthy {
		client.Close()
		return nil, errors.New("influxdb server not healthy")
	}

	writeAPI := client.WriteAPI(cfg.Org, cfg.Bucket)
	go func() {
		for err := range writeAPI.Errors() {
			logger.Warn("telemetry@write write failed", zap.Error(err))
		}
	}()
	return newInfluxSink(writeAPI, client.Close, logger), nil
}

func newInfluxSink(writer pointWriter, closer func(), logger *zap.Logger) *InfluxSink {
	return &InfluxSink{
		writer: writer,
		close:  closer,
		now:    time.Now,
		logger: logger,
	}
}

func (s *InfluxSink) WriteEvent(payload domain.DevicePayload) {
	ev, ok := events.DevicePayloadToMeasurement(payload, s.now())
	if !ok {
		return
	}
	s.writer.WritePoint(ToPoint(ev))
}

func (s *InfluxSink) Close() {
	s.writer.Flush()
	if s.close != nil {
		s.close()
	}
}

func ToPoint(ev events.MeasurementUpdateEvent) *write.Point {
	fields := make(map[string]any, len(ev.Fields))
	for k, v := range ev.Fields {
		fields[k] = v
	}
	return write.NewPoint(ev.Measurement, ev.Tags, fields, ev.Time)
}
