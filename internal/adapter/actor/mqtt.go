package actor

import (
	"fmt"
	"time"

	"github.com/berfenger/rfxcom2mqtt/internal/config"
	"github.com/berfenger/rfxcom2mqtt/internal/core/domain"
	"github.com/berfenger/rfxcom2mqtt/internal/mqtt"
	"github.com/berfenger/rfxcom2mqtt/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

const (
	MQTT_CONNECT_TIMEOUT   = 10 * time.Second
	MQTT_SUBSCRIBE_TIMEOUT = 2 * time.Second
	MQTT_PUBLISH_TIMEOUT   = 5 * time.Second
)

type MQTTActor struct {
	config   *config.Config
	filters  []string
	behavior actor.Behavior
	stash    *actorutil.Stash
	client   *mqtt.MQTTClient
	logger   *zap.Logger
}

type MQTTConnected struct {
}

type MQTTSubscribed struct {
}

type MQTTConnectionLost struct {
	Error error
}

type publishResult struct {
	ReplyTo *actor.PID
	Topic   string
	Error   error
}

// NewMQTTActor creates the broker connection actor. Messages received on
// filters are forwarded to the parent as domain.InboundMessage.
func NewMQTTActor(config *config.Config, filters []string, logger *zap.Logger) *MQTTActor {
	act := &MQTTActor{
		config:   config,
		filters:  filters,
		behavior: actor.NewBehavior(),
		stash:    &actorutil.Stash{},
		logger:   actorutil.ActorLogger(domain.ACTOR_ID_MQTT, logger),
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *MQTTActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *MQTTActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("mqtt@starting started")

		root := ctx.ActorSystem().Root
		self := ctx.Self()

		// create MQTT client
		state.client = mqtt.CreateMQTTClient(state.config, mqtt.OptsFromConfig(state.config), func(_ pahomqtt.Client) {
		}, func(_ pahomqtt.Client, err error) {
			root.Send(self, MQTTConnectionLost{Error: err})
		})

		// connect to MQTT server
		state.client.Connect(func(err error) {
			if err != nil {
				root.Send(self, MQTTConnectionLost{Error: err})
			} else {
				root.Send(self, MQTTConnected{})
			}
		}, MQTT_CONNECT_TIMEOUT)

	case MQTTConnected:
		state.logger.Debug("mqtt@starting connected")

		state.client.Publish(state.client.BridgeStateTopic(), domain.PAYLOAD_ONLINE, mqtt.WILL_QOS, true, state.logPublishError, MQTT_PUBLISH_TIMEOUT)

		root := ctx.ActorSystem().Root
		self := ctx.Self()
		parent := ctx.Parent()

		state.client.SubscribeMultiple(state.filters, func(topic string, payload []byte) {
			root.Send(parent, domain.InboundMessage{Topic: topic, Payload: payload})
		}, func(topic string, r any) {
			state.logger.Error("mqtt@default message handler panic", zap.String("topic", topic), zap.Any("reason", r))
		}, func(err error) {
			if err != nil {
				root.Send(self, MQTTConnectionLost{Error: err})
			} else {
				root.Send(self, MQTTSubscribed{})
			}
		}, MQTT_SUBSCRIBE_TIMEOUT)
	case MQTTSubscribed:
		// init completed, transition to default state
		state.logger.Debug("mqtt@starting subscribed", zap.Strings("topics", state.filters))
		state.behavior.Become(state.DefaultReceive)
		state.stash.UnstashAll(ctx)
	case MQTTConnectionLost:
		// if connection lost, stop actor and let supervisor decide
		state.logger.Error("mqtt@starting connection lost", zap.Error(msg.Error))
		panic(msg.Error)
	case *actor.Restarting:
		state.stop()
	case *actor.Stopping:
		state.stop()
	default:
		state.logger.Debug("mqtt@starting stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *MQTTActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Restarting:
		state.stop()
	case *actor.Stopping:
		state.stop()
	case domain.ActorHealthRequest:
		state.logger.Debug("mqtt@default ActorHealthRequest")
		connected := state.client.IsConnected()
		status := "connected"
		if !connected {
			status = "reconnecting"
		}
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_MQTT,
			Healthy: connected,
			State:   status,
		})
	case domain.PublishMessageRequest:
		state.logger.Debug("mqtt@default PublishMessageRequest", zap.String("topic", msg.Topic), zap.Bool("retain", msg.Retain))
		state.publishMessage(ctx, msg, actorutil.ForRequest(msg).ReplyTo(ctx))
	case publishResult:
		if msg.Error != nil {
			state.logger.Error("mqtt@default could not publish a message", zap.String("topic", msg.Topic), zap.Error(msg.Error))
		}
		if msg.ReplyTo != nil {
			ctx.Send(msg.ReplyTo, domain.PublishMessageResponse{
				ActorResponseMixIn: domain.ActorResponseMixIn{
					ResponseError: msg.Error,
				},
			})
		}
	case MQTTConnectionLost:
		// if connection lost, stop actor and let supervisor decide
		state.logger.Error("mqtt@default connection lost", zap.Error(msg.Error))
		panic(msg.Error)
	default:
		state.logger.Debug("mqtt@default unhandled", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

// publishMessage hands the message to the client, which keeps publish order.
// The outcome comes back as a publishResult.
func (state *MQTTActor) publishMessage(ctx actor.Context, msg domain.PublishMessageRequest, replyTo *actor.PID) {
	root := ctx.ActorSystem().Root
	self := ctx.Self()
	state.client.Publish(msg.Topic, msg.Payload, msg.QoS, msg.Retain, func(err error) {
		root.Send(self, publishResult{ReplyTo: replyTo, Topic: msg.Topic, Error: err})
	}, MQTT_PUBLISH_TIMEOUT)
}

func (state *MQTTActor) logPublishError(err error) {
	if err != nil {
		state.logger.Error("mqtt@publish bridge state", zap.Error(err))
	}
}

func (state *MQTTActor) stop() {
	if state.client == nil {
		return
	}
	state.logger.Debug("mqtt: disconnect")
	if state.client.IsConnected() {
		state.client.Publish(state.client.BridgeStateTopic(), domain.PAYLOAD_OFFLINE, mqtt.WILL_QOS, true, nil, 500*time.Millisecond)
	}
	state.client.Disconnect(500 * time.Millisecond)
}

// Dummy actor

// NewTestMQTTActor creates an actor that acknowledges publishes without a
// broker. Every PublishMessageRequest is also copied to published, when set.
func NewTestMQTTActor(config *config.Config, published chan<- domain.PublishMessageRequest, logger *zap.Logger) *MQTTActor {
	act := &MQTTActor{
		config:   config,
		behavior: actor.NewBehavior(),
		stash:    &actorutil.Stash{},
		logger:   actorutil.ActorLogger(domain.ACTOR_ID_MQTT, logger),
	}
	act.behavior.Become(act.dummyReceive(published))
	return act
}

func (state *MQTTActor) dummyReceive(published chan<- domain.PublishMessageRequest) actor.ReceiveFunc {
	return func(ctx actor.Context) {
		switch msg := ctx.Message().(type) {
		case domain.ActorHealthRequest:
			state.logger.Debug("mqtt@dummy ActorHealthRequest")
			ctx.Respond(domain.ActorHealthResponse{
				Id:      domain.ACTOR_ID_MQTT,
				Healthy: true,
				State:   "idle",
			})
		case domain.InboundMessage:
			ctx.Send(ctx.Parent(), msg)
		case domain.PublishMessageRequest:
			if published != nil {
				select {
				case published <- msg:
				default:
					state.logger.Warn("mqtt@dummy publish dropped", zap.String("topic", msg.Topic))
				}
			}
			if replyTo := actorutil.ForRequest(msg).ReplyTo(ctx); replyTo != nil {
				ctx.Send(replyTo, domain.PublishMessageResponse{})
			}
		}
	}
}
