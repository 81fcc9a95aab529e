package discovery

import (
	"encoding/json"
	"fmt"

	"github.com/berfenger/rfxcom2mqtt/internal/config"
	"github.com/berfenger/rfxcom2mqtt/internal/core/domain"
	"github.com/berfenger/rfxcom2mqtt/internal/core/port"

	"github.com/carlmjohnson/versioninfo"
	"go.uber.org/zap"
)

const (
	DISCOVERY_QOS = 1
)

// variant is implemented by the Home Assistant device discovery and by the
// bridge discovery. The facade composes one of each.
type variant interface {
	Start() error
	Stop() error
	OnMQTTMessage(msg domain.InboundMessage) error
	PublishDiscoveryToMQTT(payload any) error
}

// base is the configuration shared by both variants.
type base struct {
	publisher port.Publisher
	sender    port.CommandSender
	ha        config.HomeassistantConfig
	topics    domain.Topics
	origin    domain.Origin
	logger    *zap.Logger
}

func newBase(publisher port.Publisher, sender port.CommandSender, cfg *config.Config, logger *zap.Logger) base {
	return base{
		publisher: publisher,
		sender:    sender,
		ha:        cfg.Homeassistant,
		topics:    domain.NewTopics(cfg.MQTT.BaseTopic),
		origin: domain.Origin{
			Name: domain.BRIDGE_NAME,
			Url:  domain.BRIDGE_URL,
		},
		logger: logger,
	}
}

func (b *base) start() {
	b.origin.Sw = versioninfo.Short()
}

func (b *base) availability() []domain.Availability {
	return []domain.Availability{{Topic: b.topics.WillTopic()}}
}

// publishDiscovery publishes doc retained with QoS 1 under the discovery prefix.
func (b *base) publishDiscovery(topic string, doc domain.DiscoveryDocument) error {
	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("could not encode discovery document %s: %w", topic, err)
	}
	fullTopic := fmt.Sprintf("%s/%s", b.ha.DiscoveryTopic, topic)
	b.publisher.Publish(fullTopic, payload, DISCOVERY_QOS, true, b.publishContinuation(fullTopic))
	return nil
}

func (b *base) publishContinuation(topic string) func(error) {
	return func(err error) {
		if err != nil {
			b.logger.Error("discovery@publish could not publish", zap.String("topic", topic), zap.Error(err))
		}
	}
}

func boolPtr(v bool) *bool {
	return &v
}
