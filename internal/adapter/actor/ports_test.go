package actor

import (
	"errors"
	"testing"
	"time"

	"github.com/berfenger/rfxcom2mqtt/internal/core/domain"
	"github.com/berfenger/rfxcom2mqtt/internal/util"
	"github.com/berfenger/rfxcom2mqtt/internal/util/actorutil"
	"github.com/berfenger/rfxcom2mqtt/pkg/rfxcom"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestActorPublisher(t *testing.T) {

	assert := assert.New(t)

	cfg := util.LoadTestConfig()
	logger := zap.Must(zap.NewDevelopment())
	as := actorutil.NewActorSystemWithZapLogger(logger)

	published := make(chan domain.PublishMessageRequest, 4)
	pid := as.Root.Spawn(actor.PropsFromProducer(func() actor.Actor { return NewTestMQTTActor(&cfg, published, logger) }))

	publisher := NewActorPublisher(as.Root, pid)

	done := make(chan error, 1)
	publisher.Publish("homeassistant/switch/x/config", []byte("{}"), 1, true, func(err error) {
		done <- err
	})

	select {
	case err := <-done:
		assert.NoError(err)
	case <-time.After(2 * time.Second):
		t.Fatal("continuation not called")
	}

	msg := <-published
	assert.Equal("homeassistant/switch/x/config", msg.Topic)
	assert.True(msg.Retain)

	// nil continuation is allowed
	publisher.Publish("rfxcom2mqtt/devices/a", []byte("{}"), 0, false, nil)
	msg = <-published
	assert.Equal("rfxcom2mqtt/devices/a", msg.Topic)

	as.Shutdown()
}

func TestActorCommandSender(t *testing.T) {

	transceiver := &rfxcom.TestTransceiver{}
	logger := zap.Must(zap.NewDevelopment())
	as := actorutil.NewActorSystemWithZapLogger(logger)

	pid := spawnRfxcomActor(t, as.Root, transceiver, make(chan domain.DeviceEvent, 4), logger)

	sender := NewActorCommandSender(as.Root, pid, logger)
	require.NoError(t, sender.SendCommand(rfxcom.LIGHTING2, "AC", rfxcom.FUNCTION_GROUP_ON, "0x5C02"))

	assert.Eventually(t, func() bool {
		return len(transceiver.Commands()) == 1
	}, 2*time.Second, 20*time.Millisecond)

	assert.True(t, sender.IsGroup(domain.DevicePayload{"type": rfxcom.LIGHTING2, "commandNumber": 4}))
	assert.False(t, sender.IsGroup(domain.DevicePayload{"type": rfxcom.LIGHTING2, "commandNumber": 1}))

	as.Shutdown()
}

func TestResponseError(t *testing.T) {
	assert := assert.New(t)

	failure := errors.New("boom")
	assert.NoError(responseError(domain.PublishMessageResponse{}, nil))
	assert.ErrorIs(responseError(nil, failure), failure)
	assert.ErrorIs(responseError(domain.SendCommandResponse{
		ActorResponseMixIn: domain.ActorResponseMixIn{ResponseError: failure},
	}, nil), failure)
	assert.Error(responseError("unexpected", nil))
}
