package discovery

import (
	"encoding/json"
	"testing"

	"github.com/berfenger/rfxcom2mqtt/internal/core/domain"
	"github.com/berfenger/rfxcom2mqtt/pkg/rfxcom"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var lightingTypes = []string{"lighting1", "lighting2", "lighting3", "lighting5", "lighting6"}

func stateFor(deviceType string) domain.EntityState {
	return domain.EntityState{domain.STATE_DEVICE_TYPE: deviceType}
}

func TestLightingVerbs(t *testing.T) {
	assert := assert.New(t)

	for _, deviceType := range lightingTypes {
		st := stateFor(deviceType)
		assert.NoError(UpdateEntityStateFromValue(st, "on"))
		assert.Equal(rfxcom.FUNCTION_SWITCH_ON, st.RfxFunction(), deviceType)

		st = stateFor(deviceType)
		assert.NoError(UpdateEntityStateFromValue(st, "OFF"))
		assert.Equal(rfxcom.FUNCTION_SWITCH_OFF, st.RfxFunction(), deviceType)

		st = stateFor(deviceType)
		assert.NoError(UpdateEntityStateFromValue(st, "level 7"))
		assert.Equal(rfxcom.FUNCTION_SET_LEVEL, st.RfxFunction(), deviceType)
		assert.Equal("7", st[domain.STATE_RFX_OPT], deviceType)
	}
}

func TestGroupVerbsDifferFromUnitVerbs(t *testing.T) {
	assert := assert.New(t)

	for _, deviceType := range lightingTypes {
		for _, verb := range []string{"on", "off"} {
			unit := stateFor(deviceType)
			group := stateFor(deviceType)
			assert.NoError(UpdateEntityStateFromValue(unit, verb))
			assert.NoError(UpdateEntityStateFromValue(group, "Group "+verb))

			assert.NotEqual(unit.RfxFunction(), group.RfxFunction(), "%s %s", deviceType, verb)
			assert.NotEqual(unit[domain.STATE_COMMAND_NUMBER], group[domain.STATE_COMMAND_NUMBER], "%s %s", deviceType, verb)
		}
	}

	on := stateFor("lighting2")
	assert.NoError(UpdateEntityStateFromValue(on, "on"))
	assert.Equal(1, on[domain.STATE_COMMAND_NUMBER])
	assert.Equal(rfxcom.FUNCTION_SWITCH_ON, on[domain.STATE_RFX_COMMAND])

	groupOff := stateFor("lighting2")
	assert.NoError(UpdateEntityStateFromValue(groupOff, "group off"))
	assert.Equal(3, groupOff[domain.STATE_COMMAND_NUMBER])
	assert.Equal(rfxcom.FUNCTION_GROUP_OFF, groupOff[domain.STATE_RFX_COMMAND])
}

func TestOtherFamilies(t *testing.T) {
	assert := assert.New(t)

	st := stateFor("lighting4")
	assert.NoError(UpdateEntityStateFromValue(st, "0x123456"))
	assert.Equal(rfxcom.FUNCTION_SEND_DATA, st.RfxFunction())

	st = stateFor("chime1")
	assert.NoError(UpdateEntityStateFromValue(st, "anything"))
	assert.Equal(rfxcom.FUNCTION_CHIME, st.RfxFunction())

	st = stateFor("blinds1")
	assert.ErrorIs(UpdateEntityStateFromValue(st, "on"), ErrUnsupportedDeviceType)
	assert.NotContains(st, domain.STATE_RFX_FUNCTION)

	for _, value := range []string{"", "toggle", "group", "group level 3", "level"} {
		st = stateFor("lighting2")
		assert.ErrorIs(UpdateEntityStateFromValue(st, value), ErrUnknownCommand, value)
		assert.NotContains(st, domain.STATE_RFX_FUNCTION, value)
	}
}

func TestUnknownVerbKeepsPreviousFunction(t *testing.T) {
	assert := assert.New(t)

	st := stateFor("lighting2")
	assert.NoError(UpdateEntityStateFromValue(st, "on"))

	for _, value := range []string{"toggle", "level"} {
		assert.ErrorIs(UpdateEntityStateFromValue(st, value), ErrUnknownCommand, value)
		assert.Equal(rfxcom.FUNCTION_SWITCH_ON, st.RfxFunction(), value)
	}
}

func TestParseCommandTopic(t *testing.T) {
	assert := assert.New(t)
	topics := domain.NewTopics("rfxcom2mqtt")

	cmd, err := ParseCommandTopic(topics, "rfxcom2mqtt/cmd/lighting2/0/0x00ABCDEF/set")
	assert.NoError(err)
	assert.Equal("lighting2", cmd.DeviceType)
	assert.Equal("0", cmd.Subtype)
	assert.Equal("0x00ABCDEF", cmd.EntityName)
	assert.Equal("0x00ABCDEF", cmd.EntityTopic)
	assert.Nil(cmd.UnitCode)

	cmd, err = ParseCommandTopic(topics, "rfxcom2mqtt/cmd/lighting2/0/0x00ABCDEF/3/set")
	assert.NoError(err)
	assert.Equal("0x00ABCDEF_3", cmd.EntityName)
	assert.Equal("0x00ABCDEF/3", cmd.EntityTopic)
	assert.Equal(3, *cmd.UnitCode)

	// unit codes are keyed in their numeric form
	cmd, err = ParseCommandTopic(topics, "rfxcom2mqtt/cmd/lighting2/0/0x01/03/set")
	assert.NoError(err)
	assert.Equal("0x01_3", cmd.EntityName)
	assert.Equal("0x01/3", cmd.EntityTopic)
	assert.Equal(3, *cmd.UnitCode)

	_, err = ParseCommandTopic(topics, "rfxcom2mqtt/cmd/lighting2/0")
	assert.ErrorIs(err, ErrInvalidTopic)
	_, err = ParseCommandTopic(topics, "rfxcom2mqtt/cmd/lighting2/0/0x00ABCDEF/three/set")
	assert.ErrorIs(err, ErrInvalidTopic)
	_, err = ParseCommandTopic(topics, "other/cmd/lighting2/0/0x00ABCDEF/set")
	assert.ErrorIs(err, ErrInvalidTopic)
}

func TestCommandSendsAndPublishesState(t *testing.T) {
	assert := assert.New(t)
	f := newFixture(t)

	key := domain.StateKey{Id: "0x00ABCDEF_3", Type: "lighting2", Subtype: "0"}
	f.store.states[key] = domain.EntityState{"deviceType": "lighting1", "temperature": 12}

	require.NoError(t, f.discovery.OnMQTTMessage(domain.InboundMessage{
		Topic:   "rfxcom2mqtt/cmd/lighting2/0/0x00ABCDEF/3/set",
		Payload: []byte("Group On"),
	}))

	assert.Equal([]sentCommand{{"lighting2", "0", rfxcom.FUNCTION_GROUP_ON, "0x00ABCDEF/3"}}, f.sender.sent)

	require.Len(t, f.publisher.messages, 1)
	msg := f.publisher.messages[0]
	assert.Equal("rfxcom2mqtt/devices/0x00ABCDEF_3", msg.topic)
	assert.True(msg.retain)
	assert.Equal(byte(1), msg.qos)

	var published map[string]any
	require.NoError(t, json.Unmarshal(msg.payload, &published))
	assert.Equal("lighting2", published["deviceType"])
	assert.Equal("groupOn", published["rfxFunction"])
	assert.Equal(float64(4), published["commandNumber"])
	assert.Equal(float64(12), published["temperature"])

	assert.Equal("lighting2", f.store.states[key].DeviceType())
	assert.Equal([]storeWrite{{key, STATE_REASON_COMMAND}}, f.store.writes)
}

func TestUnsupportedCommandIsDropped(t *testing.T) {
	assert := assert.New(t)
	f := newFixture(t)

	err := f.discovery.OnMQTTMessage(domain.InboundMessage{
		Topic:   "rfxcom2mqtt/cmd/blinds1/0/0x0100/set",
		Payload: []byte("on"),
	})
	assert.ErrorIs(err, ErrUnsupportedDeviceType)
	assert.Empty(f.sender.sent)
	assert.Empty(f.publisher.messages)
	assert.Empty(f.store.writes)

	// the next message is handled normally
	assert.NoError(f.discovery.OnMQTTMessage(domain.InboundMessage{
		Topic:   "rfxcom2mqtt/cmd/chime1/0/0x0100/set",
		Payload: []byte("ring"),
	}))
	assert.Len(f.sender.sent, 1)
}

func TestSwitchCommandTopicRoundTrip(t *testing.T) {
	assert := assert.New(t)

	payloads := []domain.DevicePayload{
		{"type": "lighting2", "subtype": 0, "id": "0x00ABCDEF", "unitCode": 3, "commandNumber": 1},
		{"type": "lighting2", "subtype": 0, "id": "0x00ABCDEF", "unitCode": 3, "commandNumber": 4},
		{"type": "lighting1", "subtype": 1, "id": "0x43", "unitCode": 2, "commandNumber": 0},
		{"type": "lighting5", "subtype": 0, "id": "0xF09AC8", "commandNumber": 1},
	}
	for _, payload := range payloads {
		f := newFixture(t)
		require.NoError(t, f.discovery.homeassistant.PublishDiscoveryToMQTT(payload))
		addr := f.discovery.homeassistant.Resolve(payload)
		doc := f.publisher.document(t, "homeassistant/switch/"+addr.EntityTopic+"/config")
		commandTopic := doc["command_topic"].(string)

		cmd, err := ParseCommandTopic(domain.NewTopics("rfxcom2mqtt"), commandTopic)
		require.NoError(t, err)
		assert.Equal(payload.Type(), cmd.DeviceType)
		assert.Equal(payload.Subtype(), cmd.Subtype)
		assert.Equal(addr.EntityTopic, cmd.EntityTopic)

		require.NoError(t, f.discovery.OnMQTTMessage(domain.InboundMessage{Topic: commandTopic, Payload: []byte("on")}))
		require.Len(t, f.sender.sent, 1)
		assert.Equal(addr.EntityTopic, f.sender.sent[0].entityTopic)
	}
}
