package actor

import (
	"fmt"
	"time"

	"github.com/berfenger/rfxcom2mqtt/internal/core/domain"
	"github.com/berfenger/rfxcom2mqtt/pkg/rfxcom"

	"github.com/asynkron/protoactor-go/actor"
	"go.uber.org/zap"
)

const (
	PUBLISH_REQUEST_TIMEOUT = 15 * time.Second
	COMMAND_REQUEST_TIMEOUT = 5 * time.Second
)

// ActorPublisher publishes through the MQTT actor. Requests are enqueued in
// call order; the response is awaited off the caller's goroutine.
type ActorPublisher struct {
	root    *actor.RootContext
	mqtt    *actor.PID
	timeout time.Duration
}

func NewActorPublisher(root *actor.RootContext, mqtt *actor.PID) *ActorPublisher {
	return &ActorPublisher{
		root:    root,
		mqtt:    mqtt,
		timeout: PUBLISH_REQUEST_TIMEOUT,
	}
}

func (p *ActorPublisher) Publish(topic string, payload []byte, qos byte, retain bool, continuation func(error)) {
	future := p.root.RequestFuture(p.mqtt, domain.PublishMessageRequest{
		Topic:   topic,
		Payload: payload,
		QoS:     qos,
		Retain:  retain,
	}, p.timeout)
	if continuation == nil {
		return
	}
	go func() {
		continuation(responseError(future.Result()))
	}()
}

// ActorCommandSender hands commands to the Rfxcom actor. Transmission
// failures are logged, the caller is not blocked.
type ActorCommandSender struct {
	root    *actor.RootContext
	rfxcom  *actor.PID
	timeout time.Duration
	logger  *zap.Logger
}

func NewActorCommandSender(root *actor.RootContext, rfxcom *actor.PID, logger *zap.Logger) *ActorCommandSender {
	return &ActorCommandSender{
		root:    root,
		rfxcom:  rfxcom,
		timeout: COMMAND_REQUEST_TIMEOUT,
		logger:  logger,
	}
}

func (s *ActorCommandSender) SendCommand(deviceType string, subtype string, function string, entityTopic string) error {
	future := s.root.RequestFuture(s.rfxcom, domain.SendCommandRequest{
		DeviceType:  deviceType,
		Subtype:     subtype,
		Function:    function,
		EntityTopic: entityTopic,
	}, s.timeout)
	go func() {
		if err := responseError(future.Result()); err != nil {
			s.logger.Error("rfxcom: command failed", zap.String("entity", entityTopic),
				zap.String("function", function), zap.Error(err))
		}
	}()
	return nil
}

func (s *ActorCommandSender) IsGroup(payload domain.DevicePayload) bool {
	return rfxcom.IsGroup(rfxcom.Event(payload))
}

func responseError(res any, err error) error {
	if err != nil {
		return err
	}
	switch r := res.(type) {
	case domain.ActorResponse:
		return r.GetResponseError()
	default:
		return fmt.Errorf("unexpected response %T", res)
	}
}
