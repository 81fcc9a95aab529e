package domain

import (
	"github.com/asynkron/protoactor-go/actor"
)

const (
	ACTOR_ID_MASTER = "master"
	ACTOR_ID_MQTT   = "mqtt"
	ACTOR_ID_RFXCOM = "rfxcom"
)

type ActorRef actor.PID

type ActorRequestMixIn struct {
	ReplyToRef *ActorRef
}

type ActorRequest interface {
	ReplyTo() *ActorRef
}

func (r ActorRequestMixIn) ReplyTo() *ActorRef {
	return r.ReplyToRef
}

type ActorResponseMixIn struct {
	ResponseError error
}

func (r ActorResponseMixIn) GetResponseError() error {
	return r.ResponseError
}

func (r ActorResponseMixIn) HasResponseError() bool {
	return r.ResponseError != nil
}

type ActorResponse interface {
	GetResponseError() error
	HasResponseError() bool
}

// MQTT

type PublishMessageRequest struct {
	ActorRequestMixIn
	Topic   string
	Payload []byte
	QoS     byte
	Retain  bool
}

type PublishMessageResponse struct {
	ActorResponseMixIn
}

// InboundMessage is a message received on one of the subscribed topics.
type InboundMessage struct {
	Topic   string
	Payload []byte
}

// RFXCOM

type SendCommandRequest struct {
	ActorRequestMixIn
	DeviceType  string
	Subtype     string
	Function    string
	EntityTopic string
}

type SendCommandResponse struct {
	ActorResponseMixIn
}

type GetBridgeInfoRequest struct {
	ActorRequestMixIn
}

type GetBridgeInfoResponse struct {
	ActorResponseMixIn
	Coordinator *CoordinatorInfo
}

// DeviceEvent carries a payload decoded by the transceiver.
type DeviceEvent struct {
	Payload DevicePayload
}

// Health

type ActorHealthRequest struct {
	ActorRequestMixIn
}

type ActorHealthResponse struct {
	ActorResponseMixIn
	Id      string
	Healthy bool
	State   string
}
