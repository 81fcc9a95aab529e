package actor

import (
	"fmt"
	"time"

	"github.com/berfenger/rfxcom2mqtt/internal/core/domain"
	"github.com/berfenger/rfxcom2mqtt/internal/util/actorutil"
	"github.com/berfenger/rfxcom2mqtt/pkg/rfxcom"

	"github.com/asynkron/protoactor-go/actor"
	"go.uber.org/zap"
)

const (
	RFXCOM_TASK_TIMEOUT = 2 * time.Second
)

// RfxcomActor owns the transceiver. Decoded events go to the parent as
// domain.DeviceEvent; transmissions are serialized, one at a time.
type RfxcomActor struct {
	behavior    actor.Behavior
	stash       *actorutil.Stash
	transceiver rfxcom.Transceiver
	logger      *zap.Logger
}

type backgroundTaskResult struct {
	message any
	replyTo *actor.PID
}

func NewRfxcomActor(transceiver rfxcom.Transceiver, logger *zap.Logger) *RfxcomActor {
	act := &RfxcomActor{
		transceiver: transceiver,
		behavior:    actor.NewBehavior(),
		stash:       &actorutil.Stash{},
		logger:      actorutil.ActorLogger(domain.ACTOR_ID_RFXCOM, logger),
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *RfxcomActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *RfxcomActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("rfxcom@starting started")

		root := ctx.ActorSystem().Root
		parent := ctx.Parent()
		state.transceiver.OnEvent(func(event rfxcom.Event) {
			if parent == nil {
				state.logger.Warn("rfxcom@default event without parent", zap.String("type", event.Type()))
				return
			}
			root.Send(parent, domain.DeviceEvent{Payload: domain.DevicePayload(event)})
		})

		if err := state.transceiver.Open(); err != nil {
			state.logger.Error("rfxcom@starting open failed", zap.Error(err))
			panic(err)
		}
		state.behavior.Become(state.DefaultReceive)
		state.stash.UnstashAll(ctx)
	case *actor.Restarting:
		state.close()
	default:
		state.logger.Debug("rfxcom@starting stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *RfxcomActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		state.logger.Debug("rfxcom@default ActorHealthRequest")
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_RFXCOM,
			Healthy: true,
			State:   "idle",
		})
	case domain.SendCommandRequest:
		state.logger.Debug("rfxcom@default SendCommandRequest",
			zap.String("type", msg.DeviceType), zap.String("function", msg.Function), zap.String("entity", msg.EntityTopic))
		replyTo := actorutil.ForRequest(msg).ReplyTo(ctx)
		actorutil.NewBackgroundTask(ctx, func() (*backgroundTaskResult, error) {
			err := state.transceiver.SendCommand(msg.DeviceType, msg.Subtype, msg.Function, msg.EntityTopic)
			if err != nil {
				return nil, err
			}
			return &backgroundTaskResult{message: domain.SendCommandResponse{}, replyTo: replyTo}, nil
		}).Recover(func(err error) backgroundTaskResult {
			return backgroundTaskResult{
				message: domain.SendCommandResponse{
					ActorResponseMixIn: domain.ActorResponseMixIn{
						ResponseError: err,
					},
				},
				replyTo: replyTo,
			}
		}).WithTimeout(RFXCOM_TASK_TIMEOUT).PipeTo(ctx.Self())
		state.behavior.BecomeStacked(state.WaitingTransceiver)
	case domain.GetBridgeInfoRequest:
		state.logger.Debug("rfxcom@default GetBridgeInfoRequest")
		replyTo := actorutil.ForRequest(msg).ReplyTo(ctx)
		actorutil.NewBackgroundTask(ctx, func() (*backgroundTaskResult, error) {
			info, err := state.getCoordinatorInfo()
			if err != nil {
				return nil, err
			}
			return &backgroundTaskResult{message: domain.GetBridgeInfoResponse{Coordinator: info}, replyTo: replyTo}, nil
		}).Recover(func(err error) backgroundTaskResult {
			return backgroundTaskResult{
				message: domain.GetBridgeInfoResponse{
					ActorResponseMixIn: domain.ActorResponseMixIn{
						ResponseError: err,
					},
				},
				replyTo: replyTo,
			}
		}).WithTimeout(RFXCOM_TASK_TIMEOUT).PipeTo(ctx.Self())
		state.behavior.BecomeStacked(state.WaitingTransceiver)
	case *actor.Restarting:
		state.close()
	case *actor.Stopping:
		state.close()
	default:
		state.logger.Debug("rfxcom@default default recv", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (state *RfxcomActor) WaitingTransceiver(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case backgroundTaskResult:
		state.logger.Debug("rfxcom@waiting backgroundTaskResult", zap.String("type", fmt.Sprintf("%T", msg.message)))
		if resp, ok := msg.message.(domain.ActorResponse); ok && resp.HasResponseError() {
			state.logger.Error("rfxcom@waiting transceiver error", zap.Error(resp.GetResponseError()))
		}
		if msg.replyTo != nil {
			ctx.Send(msg.replyTo, msg.message)
		}
		state.behavior.UnbecomeStacked()
		state.stash.UnstashAll(ctx)
	case *actor.Restarting:
		state.close()
	case *actor.Stopping:
		state.close()
	default:
		state.logger.Debug("rfxcom@waiting stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *RfxcomActor) getCoordinatorInfo() (*domain.CoordinatorInfo, error) {
	status, err := state.transceiver.Status()
	if err != nil {
		return nil, err
	}
	return &domain.CoordinatorInfo{
		ReceiverTypeCode: status.ReceiverTypeCode,
		ReceiverType:     status.ReceiverType,
		HardwareVersion:  status.HardwareVersion,
		FirmwareVersion:  status.FirmwareVersion,
		FirmwareType:     status.FirmwareType,
		EnabledProtocols: status.EnabledProtocols,
		TransmitterPower: status.TransmitterPower,
	}, nil
}

func (state *RfxcomActor) close() {
	if err := state.transceiver.Close(); err != nil {
		state.logger.Warn("rfxcom: close", zap.Error(err))
	}
}
