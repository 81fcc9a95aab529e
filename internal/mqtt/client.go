package mqtt

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/berfenger/rfxcom2mqtt/internal/config"
	"github.com/berfenger/rfxcom2mqtt/internal/core/domain"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
)

const (
	CLIENT_ID_PREFIX = "rfxcom2mqtt"
	WILL_QOS         = 1
)

func OptsFromConfig(cfg *config.Config) *mqtt.ClientOptions {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.MQTT.Host, cfg.MQTT.Port))
	opts.SetClientID(clientId())
	if cfg.MQTT.Username != "" && cfg.MQTT.Password != "" {
		opts.SetUsername(cfg.MQTT.Username)
		opts.SetPassword(cfg.MQTT.Password)
	}
	opts.WillEnabled = true
	opts.WillPayload = []byte(domain.PAYLOAD_OFFLINE)
	opts.WillRetained = true
	opts.WillTopic = domain.NewTopics(cfg.MQTT.BaseTopic).WillTopic()
	opts.WillQos = WILL_QOS

	return opts
}

func clientId() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("%s_%s", CLIENT_ID_PREFIX, id[:8])
}

func CreateMQTTClient(cfg *config.Config, opts *mqtt.ClientOptions, onConnectHandler func(client mqtt.Client),
	onConnectionLostHandler func(mqtt.Client, error)) *MQTTClient {
	if onConnectHandler != nil {
		opts.OnConnect = onConnectHandler
	}
	if onConnectionLostHandler != nil {
		opts.OnConnectionLost = onConnectionLostHandler
	}
	return &MQTTClient{
		client: mqtt.NewClient(opts),
		topics: domain.NewTopics(cfg.MQTT.BaseTopic),
		qos:    cfg.MQTT.QoS,
	}
}

type MQTTClient struct {
	client mqtt.Client
	topics domain.Topics
	qos    byte
}

// MessageHandler receives the messages of subscribed topics.
type MessageHandler func(topic string, payload []byte)

func (c *MQTTClient) BridgeStateTopic() string {
	return c.topics.WillTopic()
}

func (c *MQTTClient) IsConnected() bool {
	return c.client.IsConnected()
}

func (c *MQTTClient) Publish(topic string, payload any, qos byte, retain bool, continuation func(error), timeout time.Duration) {
	token := c.client.Publish(topic, qos, retain, payload)
	go awaitToken(token, "publish", continuation, timeout)
}

// SubscribeMultiple subscribes every filter with the client QoS. A panic in
// handler is reported to onPanic and does not stop message dispatch.
func (c *MQTTClient) SubscribeMultiple(filters []string, handler MessageHandler, onPanic func(topic string, r any),
	continuation func(error), timeout time.Duration) {
	qosFilters := make(map[string]byte, len(filters))
	for _, f := range filters {
		qosFilters[f] = c.qos
	}
	token := c.client.SubscribeMultiple(qosFilters, RecoverHandler(handler, onPanic))
	go awaitToken(token, "subscribe", continuation, timeout)
}

func (c *MQTTClient) Connect(continuation func(error), timeout time.Duration) {
	token := c.client.Connect()
	go awaitToken(token, "connect", continuation, timeout)
}

func (c *MQTTClient) Disconnect(timeout time.Duration) {
	c.client.Disconnect(uint(timeout.Milliseconds()))
}

func RecoverHandler(handler MessageHandler, onPanic func(topic string, r any)) mqtt.MessageHandler {
	return func(_ mqtt.Client, msg mqtt.Message) {
		defer func() {
			if r := recover(); r != nil && onPanic != nil {
				onPanic(msg.Topic(), r)
			}
		}()
		handler(msg.Topic(), msg.Payload())
	}
}

func awaitToken(token mqtt.Token, op string, continuation func(error), timeout time.Duration) {
	if continuation == nil {
		continuation = func(error) {}
	}
	if !token.WaitTimeout(timeout) {
		continuation(errors.New("MQTT " + op + " timed out"))
	} else {
		continuation(token.Error())
	}
}
