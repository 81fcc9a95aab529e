package actor

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	adactor "github.com/berfenger/rfxcom2mqtt/internal/adapter/actor"
	"github.com/berfenger/rfxcom2mqtt/internal/config"
	"github.com/berfenger/rfxcom2mqtt/internal/core/discovery"
	"github.com/berfenger/rfxcom2mqtt/internal/core/domain"
	"github.com/berfenger/rfxcom2mqtt/internal/core/port"
	. "github.com/berfenger/rfxcom2mqtt/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/carlmjohnson/versioninfo"
	"go.uber.org/zap"
)

const (
	STATE_QOS            = 1
	HEALTH_CHECK_TIMEOUT = 500 * time.Millisecond
	BRIDGE_INFO_TIMEOUT  = 10 * time.Second
)

// MQTTActorProvider builds the MQTT child subscribed to filters.
type MQTTActorProvider func(filters []string) *adactor.MQTTActor

type RfxcomActorProvider func() *adactor.RfxcomActor

// BridgeActor is the single event loop of the bridge. Every inbound MQTT
// message and every decoded RF event is handled on its mailbox.
type BridgeActor struct {
	config   *config.Config
	behavior actor.Behavior
	stash    *Stash

	store     port.StateStore
	levels    port.LogLevelController
	telemetry port.TelemetrySink
	discovery *discovery.Discovery
	publisher port.Publisher

	stopping            bool
	coordinator         *domain.CoordinatorInfo
	currentHealthCheck  healthCheckResult
	rfxcomActor         *actor.PID
	mqttActor           *actor.PID
	rfxcomActorProvider RfxcomActorProvider
	mqttActorProvider   MQTTActorProvider
	logger              *zap.Logger
}

type healthCheckResult struct {
	rfxcomActorHealthy bool
	mqttActorHealthy   bool
	checksReceived     int
	respondTo          *actor.PID
}

// NewBridgeActor creates the master actor. telemetry may be nil.
func NewBridgeActor(config *config.Config, store port.StateStore, levels port.LogLevelController, telemetry port.TelemetrySink,
	rfxcomActorProvider RfxcomActorProvider, mqttActorProvider MQTTActorProvider, logger *zap.Logger) *BridgeActor {
	act := &BridgeActor{
		config:              config,
		behavior:            actor.NewBehavior(),
		stash:               &Stash{},
		store:               store,
		levels:              levels,
		telemetry:           telemetry,
		logger:              ActorLogger(domain.ACTOR_ID_MASTER, logger),
		rfxcomActorProvider: rfxcomActorProvider,
		mqttActorProvider:   mqttActorProvider,
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *BridgeActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *BridgeActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("master@starting started")

		state.currentHealthCheck = healthCheckResult{}
		state.currentHealthCheck.reset()

		// start Rfxcom child
		rfxcomActorPID, err := state.startRfxcomActor(ctx)
		if err != nil {
			panic(err)
		}
		state.rfxcomActor = rfxcomActorPID

		// start MQTT child
		topics := domain.NewTopics(state.config.MQTT.BaseTopic)
		mqttActorPID, err := state.startMQTTActor(ctx, discovery.SubscribeTopics(topics))
		if err != nil {
			panic(err)
		}
		state.mqttActor = mqttActorPID

		// build discovery over the children
		root := ctx.ActorSystem().Root
		state.publisher = adactor.NewActorPublisher(root, state.mqttActor)
		sender := adactor.NewActorCommandSender(root, state.rfxcomActor, state.logger)
		state.discovery = discovery.NewDiscovery(state.publisher, sender, state.store, state.levels, state.config, state.logger)
		if err := state.discovery.Start(); err != nil {
			state.logger.Error("master@starting discovery start failed", zap.Error(err))
			panic(err)
		}

		// bridge info is published once the transceiver answers
		PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.rfxcomActor, domain.GetBridgeInfoRequest{}, BRIDGE_INFO_TIMEOUT), func(err error) any {
			return domain.GetBridgeInfoResponse{
				ActorResponseMixIn: domain.ActorResponseMixIn{
					ResponseError: err,
				},
			}
		})

		state.behavior.Become(state.DefaultReceive)
		state.stash.UnstashAll(ctx)
	default:
		state.logger.Debug("master@starting stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *BridgeActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		state.logger.Debug("master@default ActorHealthRequest")
		state.currentHealthCheck.reset()
		state.currentHealthCheck.respondTo = ctx.Sender()
		// Rfxcom Actor Request
		PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.rfxcomActor, domain.ActorHealthRequest{}, HEALTH_CHECK_TIMEOUT), func(err error) any {
			return domain.ActorHealthResponse{
				Id:      domain.ACTOR_ID_RFXCOM,
				Healthy: false,
			}
		})
		// MQTT Actor Request
		PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.mqttActor, domain.ActorHealthRequest{}, HEALTH_CHECK_TIMEOUT), func(err error) any {
			return domain.ActorHealthResponse{
				Id:      domain.ACTOR_ID_MQTT,
				Healthy: false,
			}
		})

		ctx.SetReceiveTimeout(1 * time.Second)

		state.behavior.BecomeStacked(state.HealthCheckReceive)
	case domain.GetBridgeInfoResponse:
		if msg.HasResponseError() {
			state.logger.Error("master@default could not read transceiver status", zap.Error(msg.ResponseError))
			return
		}
		state.coordinator = msg.Coordinator
		state.publishBridgeInfo(msg.Coordinator)
	case domain.InboundMessage:
		state.logger.Debug("master@default InboundMessage", zap.String("topic", msg.Topic))
		level := state.levels.Level()
		if err := state.discovery.OnMQTTMessage(msg); err != nil {
			state.logger.Warn("master@default message dropped", zap.String("topic", msg.Topic), zap.Error(err))
			return
		}
		// the log level select reads its value from the info topic
		if state.levels.Level() != level {
			state.publishBridgeInfo(state.coordinator)
		}
	case domain.DeviceEvent:
		state.onDeviceEvent(msg.Payload)
	case *actor.Terminated:
		// if the transceiver cannot be recovered, terminate
		if !state.stopping && msg.Who.Equal(state.rfxcomActor) {
			state.logger.Error("master@default rfxcom terminated")
			panic(errors.New("rfxcom terminated"))
		}
	case *actor.Stopping:
		state.stop()
	default:
		state.logger.Debug("master@default unhandled", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (state *BridgeActor) HealthCheckReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.ReceiveTimeout:
		// if some actor does not respond to healthCheck, assume not healthy
		state.finishHealthCheck(ctx)
	case domain.ActorHealthResponse:
		state.logger.Debug("master@healthcheck ActorHealthResponse", zap.String("sender", msg.Id), zap.Bool("healthy", msg.Healthy))
		state.currentHealthCheck.checksReceived++
		if msg.Healthy {
			switch msg.Id {
			case domain.ACTOR_ID_RFXCOM:
				state.currentHealthCheck.rfxcomActorHealthy = true
			case domain.ACTOR_ID_MQTT:
				state.currentHealthCheck.mqttActorHealthy = true
			}
		}
		if state.currentHealthCheck.allReceived() {
			state.finishHealthCheck(ctx)
		} else {
			ctx.SetReceiveTimeout(1 * time.Second)
		}
	case *actor.Stopping:
		state.stop()
	default:
		state.logger.Debug("master@healthcheck stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *BridgeActor) finishHealthCheck(ctx actor.Context) {
	ctx.CancelReceiveTimeout()
	state.currentHealthCheck.respond(ctx)
	state.behavior.UnbecomeStacked()
	state.stash.UnstashAll(ctx)
}

func (state *BridgeActor) onDeviceEvent(payload domain.DevicePayload) {
	state.logger.Debug("master@default DeviceEvent", zap.String("id", payload.ID()), zap.String("type", payload.Type()))

	data, err := json.Marshal(payload)
	if err != nil {
		state.logger.Error("master@default could not encode device state", zap.Error(err))
		return
	}
	topic := state.discovery.DeviceStateTopic(payload)
	state.publisher.Publish(topic, data, STATE_QOS, true, state.logPublishError(topic))

	if state.telemetry != nil {
		state.telemetry.WriteEvent(payload)
	}

	if state.config.Homeassistant.Discovery {
		err := state.discovery.PublishDiscoveryToMQTT(discovery.PublishRequest{Device: true, Payload: payload})
		if err != nil {
			state.logger.Error("master@default device discovery", zap.String("id", payload.ID()), zap.Error(err))
		}
	}
}

func (state *BridgeActor) publishBridgeInfo(coordinator *domain.CoordinatorInfo) {
	info := domain.BridgeInfo{
		Version:  versioninfo.Short(),
		LogLevel: state.levels.Level(),
	}
	if coordinator != nil {
		info.Coordinator = *coordinator
	}
	data, err := json.Marshal(info)
	if err != nil {
		state.logger.Error("master@default could not encode bridge info", zap.Error(err))
		return
	}
	topic := domain.NewTopics(state.config.MQTT.BaseTopic).InfoTopic()
	state.publisher.Publish(topic, data, STATE_QOS, true, state.logPublishError(topic))

	if state.config.Homeassistant.Discovery {
		if err := state.discovery.PublishDiscoveryToMQTT(discovery.PublishRequest{Payload: info}); err != nil {
			state.logger.Error("master@default bridge discovery", zap.Error(err))
		}
	}
}

func (state *BridgeActor) logPublishError(topic string) func(error) {
	return func(err error) {
		if err != nil {
			state.logger.Error("master@publish failed", zap.String("topic", topic), zap.Error(err))
		}
	}
}

func (state *BridgeActor) stop() {
	state.logger.Debug("master: stopping")
	state.stopping = true
	if state.discovery != nil {
		if err := state.discovery.Stop(); err != nil {
			state.logger.Error("master: discovery stop", zap.Error(err))
		}
	}
	if state.telemetry != nil {
		state.telemetry.Close()
	}
}

func (state *BridgeActor) startRfxcomActor(ctx actor.Context) (*actor.PID, error) {

	supervisor := actor.NewExponentialBackoffStrategy(10*time.Second, 1*time.Second)

	rfxcomProps := actor.PropsFromProducer(func() actor.Actor {
		return state.rfxcomActorProvider()
	}, actor.WithSupervisor(supervisor))
	rfxcomActorPID, err := ctx.SpawnNamed(rfxcomProps, domain.ACTOR_ID_RFXCOM)
	if err != nil {
		return nil, err
	}

	return rfxcomActorPID, nil
}

func (state *BridgeActor) startMQTTActor(ctx actor.Context, filters []string) (*actor.PID, error) {

	decider := func(reason interface{}) actor.Directive {
		log.Printf("handling failure for child. reason: %v", reason)
		return actor.RestartDirective
	}
	supervisor := actor.NewOneForOneStrategy(10, 1*time.Minute, decider)

	mqttProps := actor.PropsFromProducer(func() actor.Actor {
		return state.mqttActorProvider(filters)
	}, actor.WithSupervisor(supervisor))
	mqttActorPID, err := ctx.SpawnNamed(mqttProps, domain.ACTOR_ID_MQTT)
	if err != nil {
		return nil, err
	}

	return mqttActorPID, nil
}

func (state *healthCheckResult) reset() {
	state.rfxcomActorHealthy = false
	state.mqttActorHealthy = false
	state.checksReceived = 0
}

func (state *healthCheckResult) allReceived() bool {
	return state.checksReceived == 2
}

func (state *healthCheckResult) allHealthy() bool {
	return state.rfxcomActorHealthy && state.mqttActorHealthy
}

func (state *healthCheckResult) respond(ctx actor.Context) {
	resp := domain.ActorHealthResponse{
		Id:      domain.ACTOR_ID_MASTER,
		Healthy: state.allHealthy(),
	}
	if state.respondTo != nil {
		ctx.Send(state.respondTo, resp)
	}
}
