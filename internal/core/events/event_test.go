package events

import (
	"testing"
	"time"

	"github.com/berfenger/rfxcom2mqtt/internal/core/domain"

	"github.com/stretchr/testify/assert"
)

func TestDevicePayloadToMeasurement(t *testing.T) {
	assert := assert.New(t)
	now := time.Now()

	ev, ok := DevicePayloadToMeasurement(domain.DevicePayload{
		"type":           "temperaturehumidity1",
		"subtype":        13,
		"subTypeValue":   "TH13",
		"id":             "0x5C03",
		"temperature":    18.456,
		"humidity":       74,
		"batteryLevel":   9,
		"rssi":           6,
		"seqnbr":         3,
		"humidityStatus": "comfort",
	}, now)

	assert.True(ok)
	assert.Equal(MEASUREMENT_DEVICE, ev.Measurement)
	assert.Equal(now, ev.Time)
	assert.Equal(map[string]string{"id": "0x5C03", "type": "temperaturehumidity1", "subtype": "TH13"}, ev.Tags)
	assert.Equal(map[string]float64{
		"temperature":  18.46,
		"humidity":     74,
		"batteryLevel": 9,
		"rssi":         6,
	}, ev.Fields)
}

func TestSwitchEventHasNoMeasurement(t *testing.T) {
	assert := assert.New(t)

	_, ok := DevicePayloadToMeasurement(domain.DevicePayload{
		"type":          "lighting2",
		"subtype":       0,
		"id":            "0x00ABCDEF",
		"unitCode":      3,
		"commandNumber": 1,
		"command":       "On",
	}, time.Now())
	assert.False(ok)

	ev, ok := DevicePayloadToMeasurement(domain.DevicePayload{
		"type": "lighting2", "subtype": 0, "id": "0x00ABCDEF", "unitCode": 3, "rssi": 5,
	}, time.Now())
	assert.True(ok)
	assert.Equal("3", ev.Tags[TAG_UNIT])
}
