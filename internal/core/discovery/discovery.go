package discovery

import (
	"fmt"
	"strings"

	"github.com/berfenger/rfxcom2mqtt/internal/config"
	"github.com/berfenger/rfxcom2mqtt/internal/core/domain"
	"github.com/berfenger/rfxcom2mqtt/internal/core/port"

	"go.uber.org/zap"
)

// PublishRequest asks for discovery documents. Device selects the device
// variant, in which case Payload is a domain.DevicePayload; otherwise Payload
// is a domain.BridgeInfo.
type PublishRequest struct {
	Device  bool
	Payload any
}

// Discovery routes inbound commands and outbound discovery requests to the
// device or bridge variant.
type Discovery struct {
	topics        domain.Topics
	homeassistant *HomeassistantDiscovery
	bridge        *BridgeDiscovery
}

func NewDiscovery(publisher port.Publisher, sender port.CommandSender, store port.StateStore,
	levels port.LogLevelController, cfg *config.Config, logger *zap.Logger) *Discovery {
	return &Discovery{
		topics:        domain.NewTopics(cfg.MQTT.BaseTopic),
		homeassistant: NewHomeassistantDiscovery(publisher, sender, store, cfg, logger),
		bridge:        NewBridgeDiscovery(publisher, sender, levels, cfg, logger),
	}
}

func (d *Discovery) Start() error {
	if err := d.homeassistant.Start(); err != nil {
		return err
	}
	return d.bridge.Start()
}

func (d *Discovery) Stop() error {
	if err := d.homeassistant.Stop(); err != nil {
		return err
	}
	return d.bridge.Stop()
}

func (d *Discovery) SubscribeTopics() []string {
	return SubscribeTopics(d.topics)
}

// SubscribeTopics lists the topic filters whose messages OnMQTTMessage handles.
func SubscribeTopics(topics domain.Topics) []string {
	return []string{
		topics.CommandPrefix() + "#",
		topics.BridgeRequestTopic("#"),
	}
}

func (d *Discovery) OnMQTTMessage(msg domain.InboundMessage) error {
	return d.route(msg.Topic).OnMQTTMessage(msg)
}

func (d *Discovery) PublishDiscoveryToMQTT(req PublishRequest) error {
	var v variant = d.bridge
	if req.Device {
		v = d.homeassistant
	}
	if err := v.PublishDiscoveryToMQTT(req.Payload); err != nil {
		return fmt.Errorf("discovery publish failed: %w", err)
	}
	return nil
}

// DeviceStateTopic is the topic the state of payload's entity is published on.
func (d *Discovery) DeviceStateTopic(payload domain.DevicePayload) string {
	return d.topics.DeviceTopic(d.homeassistant.Resolve(payload).EntityTopic)
}

func (d *Discovery) route(topic string) variant {
	if strings.Contains(topic, d.topics.CommandPrefix()) {
		return d.homeassistant
	}
	return d.bridge
}
