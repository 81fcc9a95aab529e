package config

import (
	"errors"
	"regexp"
	"strings"

	"go.uber.org/zap/zapcore"
)

type Config struct {
	LogLevel      zapcore.Level
	MQTT          MQTTConfig          `mapstructure:"mqtt"`
	Homeassistant HomeassistantConfig `mapstructure:"homeassistant"`
	Rfxcom        RfxcomConfig        `mapstructure:"rfxcom"`
	State         StateConfig         `mapstructure:"state"`
	InfluxDB      InfluxDBConfig      `mapstructure:"influxdb"`
	Port          uint                `mapstructure:"port"`
	HttpLog       bool                `mapstructure:"http_log"`
}

type MQTTConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	BaseTopic string `mapstructure:"base_topic"`
	QoS       byte   `mapstructure:"qos"`
}

type HomeassistantConfig struct {
	Discovery       bool   `mapstructure:"discovery"`
	DiscoveryTopic  string `mapstructure:"discovery_topic"`
	DiscoveryDevice string `mapstructure:"discovery_device"`
}

type RfxcomConfig struct {
	UsbPort string         `mapstructure:"usbport"`
	Devices []DeviceConfig `mapstructure:"devices"`
}

// DeviceConfig holds the user aliases of one RF device.
type DeviceConfig struct {
	Id           string       `mapstructure:"id"`
	Name         string       `mapstructure:"name"`
	FriendlyName string       `mapstructure:"friendlyName"`
	Units        []UnitConfig `mapstructure:"units"`
}

type UnitConfig struct {
	UnitCode int    `mapstructure:"unitCode"`
	Name     string `mapstructure:"name"`
}

type StateConfig struct {
	Path                string `mapstructure:"path"`
	SaveIntervalSeconds uint32 `mapstructure:"save_interval_seconds"`
}

type InfluxDBConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Url     string `mapstructure:"url"`
	Token   string `mapstructure:"token"`
	Org     string `mapstructure:"org"`
	Bucket  string `mapstructure:"bucket"`
}

func (c RfxcomConfig) FindDevice(id string) (DeviceConfig, bool) {
	for _, dev := range c.Devices {
		if dev.Id == id {
			return dev, true
		}
	}
	return DeviceConfig{}, false
}

func (d DeviceConfig) FindUnit(unitCode int) (UnitConfig, bool) {
	for _, unit := range d.Units {
		if unit.UnitCode == unitCode {
			return unit, true
		}
	}
	return UnitConfig{}, false
}

func CheckMQTTTopic(baseTopic string) (string, error) {
	// check and fix base topic
	lowerBaseTopic := strings.ToLower(baseTopic)
	baseTopicRegexp := regexp.MustCompile("^[a-z0-9_]+$")
	matches := baseTopicRegexp.FindAllStringSubmatch(lowerBaseTopic, 1)
	if len(matches) <= 0 {
		return "", errors.New("invalid topic. can only contain letters, numbers and underscores")
	}
	return lowerBaseTopic, nil
}
