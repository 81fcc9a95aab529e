package domain

const (
	COMPONENT_SWITCH        = "switch"
	COMPONENT_SENSOR        = "sensor"
	COMPONENT_BINARY_SENSOR = "binary_sensor"
	COMPONENT_SELECT        = "select"

	STATE_CLASS_MEASUREMENT      = "measurement"
	STATE_CLASS_TOTAL_INCREASING = "total_increasing"

	DEVICE_CLASS_BATTERY         = "battery"
	DEVICE_CLASS_CARBON_DIOXIDE  = "carbon_dioxide"
	DEVICE_CLASS_CONNECTIVITY    = "connectivity"
	DEVICE_CLASS_ENERGY          = "energy"
	DEVICE_CLASS_HUMIDITY        = "humidity"
	DEVICE_CLASS_POWER           = "power"
	DEVICE_CLASS_PRESSURE        = "pressure"
	DEVICE_CLASS_SIGNAL_STRENGTH = "signal_strength"
	DEVICE_CLASS_TEMPERATURE     = "temperature"
	DEVICE_CLASS_VOLTAGE         = "voltage"

	ENTITY_CATEGORY_DIAGNOSTIC = "diagnostic"
	ENTITY_CATEGORY_CONFIG     = "config"

	BRIDGE_NAME         = "Rfxcom2MQTT"
	BRIDGE_URL          = "https://sguernion.github.io/rfxcom2mqtt/"
	BRIDGE_DEVICE_NAME  = "Rfxcom2Mqtt Bridge"
	BRIDGE_MANUFACTURER = "Rfxcom2Mqtt"
)

// DeviceInfo is the "device" block of a discovery document. Home Assistant
// groups every entity sharing one of the identifiers under the same device.
type DeviceInfo struct {
	Identifiers  []string `json:"identifiers"`
	Name         string   `json:"name"`
	Model        string   `json:"model,omitempty"`
	SwVersion    string   `json:"sw_version,omitempty"`
	Manufacturer string   `json:"manufacturer,omitempty"`
}

func NewDeviceEntity(identifiers []string, name string) DeviceInfo {
	return DeviceInfo{
		Identifiers: identifiers,
		Name:        name,
	}
}

func NewDeviceBridge(identifiers []string, model string, swVersion string) DeviceInfo {
	return DeviceInfo{
		Identifiers:  identifiers,
		Name:         BRIDGE_DEVICE_NAME,
		Model:        model,
		SwVersion:    swVersion,
		Manufacturer: BRIDGE_MANUFACTURER,
	}
}

// Origin identifies this bridge to the discovery consumer.
type Origin struct {
	Name string `json:"name"`
	Sw   string `json:"sw"`
	Url  string `json:"url"`
}

type Availability struct {
	Topic string `json:"topic"`
}

type DiscoveryDocument struct {
	Availability        []Availability `json:"availability,omitempty"`
	AvailabilityMode    string         `json:"availability_mode,omitempty"`
	Device              *DeviceInfo    `json:"device,omitempty"`
	DeviceClass         string         `json:"device_class,omitempty"`
	EnabledByDefault    *bool          `json:"enabled_by_default,omitempty"`
	EntityCategory      string         `json:"entity_category,omitempty"`
	Icon                string         `json:"icon,omitempty"`
	JsonAttributesTopic string         `json:"json_attributes_topic,omitempty"`
	Name                string         `json:"name"`
	ObjectId            string         `json:"object_id"`
	Origin              *Origin        `json:"origin,omitempty"`
	PayloadOn           string         `json:"payload_on,omitempty"`
	PayloadOff          string         `json:"payload_off,omitempty"`
	StateOn             string         `json:"state_on,omitempty"`
	StateOff            string         `json:"state_off,omitempty"`
	StateClass          string         `json:"state_class,omitempty"`
	StateTopic          string         `json:"state_topic,omitempty"`
	CommandTopic        string         `json:"command_topic,omitempty"`
	CommandTemplate     string         `json:"command_template,omitempty"`
	Options             []string       `json:"options,omitempty"`
	UniqueId            string         `json:"unique_id"`
	UnitOfMeasurement   string         `json:"unit_of_measurement,omitempty"`
	ValueTemplate       string         `json:"value_template,omitempty"`
}
