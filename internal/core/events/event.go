package events

import (
	"math"
	"time"

	"github.com/berfenger/rfxcom2mqtt/internal/core/domain"
)

const (
	MEASUREMENT_DEVICE = "rfxcom_device"

	TAG_ID      = "id"
	TAG_TYPE    = "type"
	TAG_SUBTYPE = "subtype"
	TAG_UNIT    = "unit"
)

type numericField struct {
	name     string
	decimals int
}

// numeric fields reported by the sensor families
var telemetryFields = []numericField{
	{"temperature", 2},
	{"humidity", 0},
	{"batteryLevel", 0},
	{"batteryVoltage", 0},
	{"rssi", 0},
	{"co2", 0},
	{"power", 2},
	{"energy", 3},
	{"barometer", 1},
	{"count", 0},
}

// MeasurementUpdateEvent is a device event reduced to its numeric readings.
type MeasurementUpdateEvent struct {
	Measurement string
	Tags        map[string]string
	Fields      map[string]float64
	Time        time.Time
}

// DevicePayloadToMeasurement extracts the numeric readings of payload. It
// returns false when payload carries none, as switch events do.
func DevicePayloadToMeasurement(payload domain.DevicePayload, at time.Time) (MeasurementUpdateEvent, bool) {
	fields := map[string]float64{}
	for _, f := range telemetryFields {
		if v, ok := asFloat(payload[f.name]); ok {
			fields[f.name] = round(v, f.decimals)
		}
	}
	if len(fields) == 0 {
		return MeasurementUpdateEvent{}, false
	}

	tags := map[string]string{
		TAG_ID:      payload.ID(),
		TAG_TYPE:    payload.Type(),
		TAG_SUBTYPE: payload.SubtypeValue(),
	}
	if unit, ok := payload.UnitCode(); ok {
		tags[TAG_UNIT] = domain.AsString(unit)
	}
	return MeasurementUpdateEvent{
		Measurement: MEASUREMENT_DEVICE,
		Tags:        tags,
		Fields:      fields,
		Time:        at,
	}, true
}

func asFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case int32:
		return float64(t), true
	case uint8:
		return float64(t), true
	case uint16:
		return float64(t), true
	}
	return 0, false
}

func round(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}
