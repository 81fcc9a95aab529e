package discovery

import (
	"encoding/json"
	"fmt"

	"github.com/berfenger/rfxcom2mqtt/internal/config"
	"github.com/berfenger/rfxcom2mqtt/internal/core/domain"
	"github.com/berfenger/rfxcom2mqtt/internal/core/port"

	"go.uber.org/zap"
)

const (
	BRIDGE_DEVICE_ID          = "rfxcom2mqtt_bridge"
	BRIDGE_COORDINATOR_ID     = "bridge_rfxcom2mqtt_coordinator_version"
	BRIDGE_VERSION_ID         = "bridge_rfxcom2mqtt_version"
	BRIDGE_CONNECTION_ID      = "bridge_rfxcom2mqtt_connection_state"
	BRIDGE_LOG_LEVEL_ID       = "bridge_rfxcom2mqtt_log_level"
	AVAILABILITY_MODE_ALL     = "all"
	LOG_LEVEL_COMMAND_PAYLOAD = `{"log_level": "{{ value }}" }`
)

var logLevelOptions = []string{"info", "warn", "error", "debug"}

type logLevelRequest struct {
	LogLevel string `json:"log_level"`
}

// BridgeDiscovery exposes the bridge itself as a Home Assistant device and
// serves the bridge control requests.
type BridgeDiscovery struct {
	base
	levels port.LogLevelController
}

func NewBridgeDiscovery(publisher port.Publisher, sender port.CommandSender, levels port.LogLevelController,
	cfg *config.Config, logger *zap.Logger) *BridgeDiscovery {
	return &BridgeDiscovery{
		base:   newBase(publisher, sender, cfg, logger),
		levels: levels,
	}
}

func (b *BridgeDiscovery) Start() error {
	b.start()
	return nil
}

func (b *BridgeDiscovery) Stop() error {
	return nil
}

func (b *BridgeDiscovery) OnMQTTMessage(msg domain.InboundMessage) error {
	if msg.Topic != b.topics.BridgeRequestTopic(domain.TOPIC_LOG_LEVEL) {
		return nil
	}
	var req logLevelRequest
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		return fmt.Errorf("invalid log level request: %w", err)
	}
	if err := b.levels.SetLevel(req.LogLevel); err != nil {
		b.logger.Error("bridge@log_level could not update log level", zap.String("level", req.LogLevel), zap.Error(err))
		return nil
	}
	b.logger.Info("bridge@log_level update log level", zap.String("level", req.LogLevel))
	return nil
}

func (b *BridgeDiscovery) PublishDiscoveryToMQTT(payload any) error {
	var info domain.BridgeInfo
	switch p := payload.(type) {
	case domain.BridgeInfo:
		info = p
	case *domain.BridgeInfo:
		info = *p
	default:
		return fmt.Errorf("%w: %T", ErrUnexpectedPayload, payload)
	}

	device := domain.NewDeviceBridge(
		[]string{BRIDGE_DEVICE_ID},
		fmt.Sprintf("%s %d", info.Coordinator.HardwareVersion, info.Coordinator.FirmwareVersion),
		b.origin.Sw,
	)
	common := domain.DiscoveryDocument{
		Availability:     b.availability(),
		AvailabilityMode: AVAILABILITY_MODE_ALL,
		Device:           &device,
		Origin:           &b.origin,
	}

	coordinator := common
	coordinator.EntityCategory = domain.ENTITY_CATEGORY_DIAGNOSTIC
	coordinator.Icon = "mdi:chip"
	coordinator.Name = "Coordinator Version"
	coordinator.ObjectId = BRIDGE_COORDINATOR_ID
	coordinator.StateTopic = b.topics.InfoTopic()
	coordinator.UniqueId = BRIDGE_COORDINATOR_ID
	coordinator.ValueTemplate = "{{ value_json.coordinator.firmwareVersion }}"

	version := common
	version.EntityCategory = domain.ENTITY_CATEGORY_DIAGNOSTIC
	version.Name = "Version"
	version.ObjectId = BRIDGE_VERSION_ID
	version.StateTopic = b.topics.InfoTopic()
	version.UniqueId = BRIDGE_VERSION_ID
	version.ValueTemplate = "{{ value_json.version }}"

	connection := common
	connection.DeviceClass = domain.DEVICE_CLASS_CONNECTIVITY
	connection.EntityCategory = domain.ENTITY_CATEGORY_DIAGNOSTIC
	connection.Name = "Connection State"
	connection.PayloadOn = domain.PAYLOAD_ONLINE
	connection.PayloadOff = domain.PAYLOAD_OFFLINE
	connection.ObjectId = BRIDGE_CONNECTION_ID
	connection.StateTopic = b.topics.WillTopic()
	connection.UniqueId = BRIDGE_CONNECTION_ID
	connection.ValueTemplate = "{{ value }}"

	logLevel := common
	logLevel.EntityCategory = domain.ENTITY_CATEGORY_CONFIG
	logLevel.Name = "Log level"
	logLevel.ObjectId = BRIDGE_LOG_LEVEL_ID
	logLevel.StateTopic = b.topics.InfoTopic()
	logLevel.CommandTopic = b.topics.BridgeRequestTopic(domain.TOPIC_LOG_LEVEL)
	logLevel.CommandTemplate = LOG_LEVEL_COMMAND_PAYLOAD
	logLevel.Options = logLevelOptions
	logLevel.UniqueId = BRIDGE_LOG_LEVEL_ID
	logLevel.ValueTemplate = "{{ value_json.logLevel | lower }}"

	docs := []struct {
		topic string
		doc   domain.DiscoveryDocument
	}{
		{fmt.Sprintf("%s/%s/version/config", domain.COMPONENT_SENSOR, BRIDGE_COORDINATOR_ID), coordinator},
		{fmt.Sprintf("%s/%s/version/config", domain.COMPONENT_SENSOR, BRIDGE_VERSION_ID), version},
		// shares the node id of the version sensor
		{fmt.Sprintf("%s/%s/connection_state/config", domain.COMPONENT_BINARY_SENSOR, BRIDGE_VERSION_ID), connection},
		{fmt.Sprintf("%s/%s/log_level/config", domain.COMPONENT_SELECT, BRIDGE_LOG_LEVEL_ID), logLevel},
	}
	for _, d := range docs {
		if err := b.publishDiscovery(d.topic, d.doc); err != nil {
			return err
		}
	}
	return nil
}
