package util

import (
	"github.com/berfenger/rfxcom2mqtt/internal/config"

	"go.uber.org/zap"
)

func LoadTestConfig() config.Config {
	return config.Config{
		LogLevel: zap.DebugLevel,
		MQTT: config.MQTTConfig{
			Host:      "localhost",
			Port:      1883,
			BaseTopic: "rfxcom2mqtt",
			QoS:       0,
		},
		Homeassistant: config.HomeassistantConfig{
			Discovery:       true,
			DiscoveryTopic:  "homeassistant",
			DiscoveryDevice: "rfxcom2mqtt",
		},
		Rfxcom: config.RfxcomConfig{
			UsbPort: "dummy",
			Devices: []config.DeviceConfig{
				{
					Id:           "0x5C02",
					Name:         "living_room",
					FriendlyName: "Living Room",
				},
				{
					Id:   "0x0B1E",
					Name: "garden",
					Units: []config.UnitConfig{
						{UnitCode: 3, Name: "fountain"},
					},
				},
			},
		},
		State: config.StateConfig{
			Path:                "",
			SaveIntervalSeconds: 60,
		},
		InfluxDB: config.InfluxDBConfig{
			Enabled: false,
		},
		Port: 8080,
	}
}
