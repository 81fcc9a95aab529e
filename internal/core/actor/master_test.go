package actor

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	adactor "github.com/berfenger/rfxcom2mqtt/internal/adapter/actor"
	"github.com/berfenger/rfxcom2mqtt/internal/adapter/store"
	"github.com/berfenger/rfxcom2mqtt/internal/core/domain"
	"github.com/berfenger/rfxcom2mqtt/internal/core/service"
	"github.com/berfenger/rfxcom2mqtt/internal/util"
	"github.com/berfenger/rfxcom2mqtt/pkg/rfxcom"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingSink struct {
	events chan domain.DevicePayload
}

func (s *recordingSink) WriteEvent(payload domain.DevicePayload) {
	s.events <- payload
}

func (s *recordingSink) Close() {}

type masterFixture struct {
	system      *actor.ActorSystem
	pid         *actor.PID
	transceiver *rfxcom.TestTransceiver
	published   chan domain.PublishMessageRequest
	sink        *recordingSink
}

func newMasterFixture(t *testing.T) *masterFixture {
	cfg := util.LoadTestConfig()
	logCfg := zap.NewDevelopmentConfig()
	logCfg.Level = zap.NewAtomicLevelAt(cfg.LogLevel)
	logger := zap.Must(logCfg.Build())

	stateStore, err := store.NewStateStore(cfg.State, logger)
	require.NoError(t, err)

	f := &masterFixture{
		system:      actor.NewActorSystem(),
		transceiver: &rfxcom.TestTransceiver{},
		published:   make(chan domain.PublishMessageRequest, 64),
		sink:        &recordingSink{events: make(chan domain.DevicePayload, 16)},
	}
	levels := service.NewLogLevelController(logCfg.Level, logger)

	props := actor.PropsFromProducer(func() actor.Actor {
		return NewBridgeActor(&cfg, stateStore, levels, f.sink, func() *adactor.RfxcomActor {
			return adactor.NewRfxcomActor(f.transceiver, logger)
		}, func(filters []string) *adactor.MQTTActor {
			return adactor.NewTestMQTTActor(&cfg, f.published, logger)
		}, logger)
	})
	pid, err := f.system.Root.SpawnNamed(props, domain.ACTOR_ID_MASTER)
	require.NoError(t, err)
	f.pid = pid

	t.Cleanup(func() {
		_ = f.system.Root.StopFuture(f.pid).Wait()
		f.system.Shutdown()
	})
	return f
}

// awaitPublish returns the first publish whose topic satisfies match.
func (f *masterFixture) awaitPublish(t *testing.T, match func(topic string) bool) domain.PublishMessageRequest {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case msg := <-f.published:
			if match(msg.Topic) {
				return msg
			}
		case <-timeout:
			t.Fatal("expected publish not seen")
			return domain.PublishMessageRequest{}
		}
	}
}

func topicIs(expected string) func(string) bool {
	return func(topic string) bool { return topic == expected }
}

func TestMasterActor(t *testing.T) {

	f := newMasterFixture(t)

	res, err := f.system.Root.RequestFuture(f.pid, domain.ActorHealthRequest{}, 10*time.Second).Result()
	require.NoError(t, err)
	healthResp, ok := res.(domain.ActorHealthResponse)
	assert.True(t, ok)
	assert.Equal(t, domain.ACTOR_ID_MASTER, healthResp.Id)
	assert.True(t, healthResp.Healthy, "healthy is true")
}

func TestMasterPublishesBridgeInfo(t *testing.T) {

	assert := assert.New(t)

	f := newMasterFixture(t)

	msg := f.awaitPublish(t, topicIs("rfxcom2mqtt/bridge/info"))
	assert.True(msg.Retain)

	var info domain.BridgeInfo
	require.NoError(t, json.Unmarshal(msg.Payload, &info))
	assert.Equal(242, info.Coordinator.FirmwareVersion)
	assert.Equal("433.92MHz transceiver", info.Coordinator.ReceiverType)
	assert.Equal("debug", info.LogLevel)
	assert.NotEmpty(info.Version)

	// bridge discovery follows the info
	doc := f.awaitPublish(t, func(topic string) bool {
		return strings.HasPrefix(topic, "homeassistant/") && strings.Contains(topic, "rfxcom2mqtt_log_level")
	})
	assert.True(doc.Retain)
	assert.Equal(byte(1), doc.QoS)
}

func TestMasterRepublishesBridgeInfoOnLogLevel(t *testing.T) {

	f := newMasterFixture(t)

	f.system.Root.Send(f.pid, domain.InboundMessage{
		Topic:   "rfxcom2mqtt/bridge/request/log_level",
		Payload: []byte(`{"log_level":"error"}`),
	})

	// the startup info may still carry the previous level
	for {
		msg := f.awaitPublish(t, topicIs("rfxcom2mqtt/bridge/info"))
		var info domain.BridgeInfo
		require.NoError(t, json.Unmarshal(msg.Payload, &info))
		if info.LogLevel == "error" {
			assert.True(t, msg.Retain)
			return
		}
	}
}

func TestMasterCommandRoundTrip(t *testing.T) {

	assert := assert.New(t)

	f := newMasterFixture(t)

	f.system.Root.Send(f.pid, domain.InboundMessage{
		Topic:   "rfxcom2mqtt/cmd/lighting2/AC/0x5C02/set",
		Payload: []byte("On"),
	})

	// state of the commanded entity
	msg := f.awaitPublish(t, topicIs("rfxcom2mqtt/devices/0x5C02"))
	var state map[string]any
	require.NoError(t, json.Unmarshal(msg.Payload, &state))
	assert.Equal(rfxcom.FUNCTION_SWITCH_ON, state["rfxFunction"])

	// the transceiver echo arrives as a device event under the configured alias
	msg = f.awaitPublish(t, topicIs("rfxcom2mqtt/devices/living_room"))
	assert.True(msg.Retain)

	f.awaitPublish(t, func(topic string) bool {
		return strings.HasPrefix(topic, "homeassistant/switch/")
	})

	commands := f.transceiver.Commands()
	require.Len(t, commands, 1)
	assert.Equal(rfxcom.FUNCTION_SWITCH_ON, commands[0].Function)

	select {
	case ev := <-f.sink.events:
		assert.Equal("0x5C02", ev.ID())
	case <-time.After(2 * time.Second):
		t.Error("telemetry not written")
	}
}

func TestMasterDropsUnsupportedCommand(t *testing.T) {

	f := newMasterFixture(t)

	f.system.Root.Send(f.pid, domain.InboundMessage{
		Topic:   "rfxcom2mqtt/cmd/temperaturehumidity1/THGN122/0x1234/set",
		Payload: []byte("On"),
	})

	// the actor keeps serving after a dropped command
	res, err := f.system.Root.RequestFuture(f.pid, domain.ActorHealthRequest{}, 10*time.Second).Result()
	require.NoError(t, err)
	_, ok := res.(domain.ActorHealthResponse)
	assert.True(t, ok)
	assert.Empty(t, f.transceiver.Commands())
}

func TestMasterSensorEvent(t *testing.T) {

	assert := assert.New(t)

	f := newMasterFixture(t)

	// wait for the transceiver handler to be registered
	_, err := f.system.Root.RequestFuture(f.pid, domain.ActorHealthRequest{}, 10*time.Second).Result()
	require.NoError(t, err)

	f.transceiver.Emit(rfxcom.Event{
		"type":         "temperaturehumidity1",
		"subtype":      "THGN122",
		"subTypeValue": "THGN122",
		"id":           "0x0B1E",
		"temperature":  21.5,
		"humidity":     40,
		"batteryLevel": 9,
		"rssi":         5,
	})

	msg := f.awaitPublish(t, topicIs("rfxcom2mqtt/devices/garden"))
	var state map[string]any
	require.NoError(t, json.Unmarshal(msg.Payload, &state))
	assert.Equal(21.5, state["temperature"])

	f.awaitPublish(t, func(topic string) bool {
		return strings.HasPrefix(topic, "homeassistant/sensor/") && strings.Contains(topic, "temperature")
	})
}
