package discovery

import (
	"fmt"

	"github.com/berfenger/rfxcom2mqtt/internal/core/domain"
)

// sensorSpec describes the sensor entity published when a device event
// carries field. Entries are independent of each other.
type sensorSpec struct {
	field          string
	key            string
	nameSuffix     string
	objectIdSuffix string
	enabled        bool
	category       string
	deviceClass    string
	icon           string
	stateClass     string
	unit           string
}

var sensorRegistry = []sensorSpec{
	{
		field:          "rssi",
		key:            "linkquality",
		nameSuffix:     " Linkquality",
		objectIdSuffix: "_linkquality",
		enabled:        false,
		category:       domain.ENTITY_CATEGORY_DIAGNOSTIC,
		deviceClass:    domain.DEVICE_CLASS_SIGNAL_STRENGTH,
		icon:           "mdi:signal",
		stateClass:     domain.STATE_CLASS_MEASUREMENT,
		unit:           "dBm",
	},
	{
		field:          "batteryLevel",
		key:            "battery",
		nameSuffix:     " Batterie",
		objectIdSuffix: "__battery",
		enabled:        true,
		deviceClass:    domain.DEVICE_CLASS_BATTERY,
		icon:           "mdi:battery",
		stateClass:     domain.STATE_CLASS_MEASUREMENT,
		unit:           "%",
	},
	{
		field:          "batteryVoltage",
		key:            "voltage",
		nameSuffix:     " Tension",
		objectIdSuffix: "__voltage",
		enabled:        true,
		deviceClass:    domain.DEVICE_CLASS_VOLTAGE,
		icon:           "mdi:sine-wave",
		stateClass:     domain.STATE_CLASS_MEASUREMENT,
		unit:           "mV",
	},
	{
		field:          "humidity",
		key:            "humidity",
		nameSuffix:     " Humidity",
		objectIdSuffix: "__humidity",
		enabled:        true,
		deviceClass:    domain.DEVICE_CLASS_HUMIDITY,
		icon:           "mdi:humidity",
		stateClass:     domain.STATE_CLASS_MEASUREMENT,
		unit:           "%",
	},
	{
		field:          "temperature",
		key:            "temperature",
		nameSuffix:     " Temperature",
		objectIdSuffix: "__temperature",
		enabled:        true,
		deviceClass:    domain.DEVICE_CLASS_TEMPERATURE,
		icon:           "mdi:temperature-celsius",
		stateClass:     domain.STATE_CLASS_MEASUREMENT,
		unit:           "°C",
	},
	{
		field:          "co2",
		key:            "co2",
		nameSuffix:     " Co2",
		objectIdSuffix: "__co2",
		enabled:        true,
		deviceClass:    domain.DEVICE_CLASS_CARBON_DIOXIDE,
		stateClass:     domain.STATE_CLASS_MEASUREMENT,
		unit:           "°C",
	},
	{
		field:          "power",
		key:            "power",
		nameSuffix:     " Power",
		objectIdSuffix: "__power",
		enabled:        true,
		category:       domain.ENTITY_CATEGORY_DIAGNOSTIC,
		deviceClass:    domain.DEVICE_CLASS_POWER,
		stateClass:     domain.STATE_CLASS_MEASUREMENT,
	},
	{
		field:          "energy",
		key:            "energy",
		nameSuffix:     " Energy",
		objectIdSuffix: "__energy",
		enabled:        true,
		category:       domain.ENTITY_CATEGORY_DIAGNOSTIC,
		deviceClass:    domain.DEVICE_CLASS_ENERGY,
		stateClass:     domain.STATE_CLASS_TOTAL_INCREASING,
	},
	{
		field:          "barometer",
		key:            "barometer",
		nameSuffix:     " Barometer",
		objectIdSuffix: "__barometer",
		enabled:        true,
		category:       domain.ENTITY_CATEGORY_DIAGNOSTIC,
		deviceClass:    domain.DEVICE_CLASS_PRESSURE,
		stateClass:     domain.STATE_CLASS_MEASUREMENT,
		unit:           "hPa",
	},
	{
		field:          "count",
		key:            "count",
		nameSuffix:     " Count",
		objectIdSuffix: "__count",
		enabled:        true,
		category:       domain.ENTITY_CATEGORY_DIAGNOSTIC,
		deviceClass:    domain.DEVICE_CLASS_PRESSURE,
		stateClass:     domain.STATE_CLASS_MEASUREMENT,
		unit:           "hPa",
	},
}

func (s sensorSpec) build(common domain.DiscoveryDocument, deviceName, deviceTopic, prefix string) domain.DiscoveryDocument {
	doc := common
	doc.EnabledByDefault = boolPtr(s.enabled)
	doc.EntityCategory = s.category
	doc.DeviceClass = s.deviceClass
	doc.Icon = s.icon
	doc.Name = deviceName + s.nameSuffix
	doc.ObjectId = deviceTopic + s.objectIdSuffix
	doc.StateClass = s.stateClass
	doc.UniqueId = fmt.Sprintf("%s_%s_%s", deviceTopic, s.key, prefix)
	doc.UnitOfMeasurement = s.unit
	doc.ValueTemplate = fmt.Sprintf("{{ value_json.%s }}", s.field)
	return doc
}
