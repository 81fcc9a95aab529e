package discovery

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/berfenger/rfxcom2mqtt/internal/core/domain"
	"github.com/berfenger/rfxcom2mqtt/pkg/rfxcom"

	"go.uber.org/zap"
)

// EntityCommand is an entity command topic decoded as
// <base>/cmd/<deviceType>/<subtype>/<id>[/<unitCode>]/set.
type EntityCommand struct {
	DeviceType  string
	Subtype     string
	EntityName  string
	EntityTopic string
	UnitCode    *int
}

func ParseCommandTopic(topics domain.Topics, topic string) (EntityCommand, error) {
	rel, found := strings.CutPrefix(topic, topics.CommandPrefix())
	if !found {
		return EntityCommand{}, fmt.Errorf("%w: %s", ErrInvalidTopic, topic)
	}
	segments := strings.Split(rel, "/")
	if len(segments) < 3 || segments[0] == "" || segments[1] == "" || segments[2] == "" {
		return EntityCommand{}, fmt.Errorf("%w: %s", ErrInvalidTopic, topic)
	}
	cmd := EntityCommand{
		DeviceType:  segments[0],
		Subtype:     segments[1],
		EntityName:  segments[2],
		EntityTopic: segments[2],
	}
	if len(segments) > 3 && segments[3] != "set" && segments[3] != "" {
		unitCode, err := strconv.Atoi(segments[3])
		if err != nil {
			return EntityCommand{}, fmt.Errorf("%w: unit code %q", ErrInvalidTopic, segments[3])
		}
		cmd.UnitCode = &unitCode
		cmd.EntityTopic += "/" + strconv.Itoa(unitCode)
		cmd.EntityName += "_" + strconv.Itoa(unitCode)
	}
	return cmd, nil
}

func (h *HomeassistantDiscovery) OnMQTTMessage(msg domain.InboundMessage) error {
	value := string(msg.Payload)
	h.logger.Info("discovery@command received", zap.String("topic", msg.Topic), zap.String("value", value))

	cmd, err := ParseCommandTopic(h.topics, msg.Topic)
	if err != nil {
		h.logger.Warn("discovery@command dropped", zap.Error(err))
		return err
	}
	h.logger.Debug("discovery@command update entity",
		zap.String("deviceType", cmd.DeviceType), zap.String("entity", cmd.EntityName), zap.String("value", value))

	key := domain.StateKey{Id: cmd.EntityName, Type: cmd.DeviceType, Subtype: cmd.Subtype}
	state := h.store.Get(key)
	state[domain.STATE_DEVICE_TYPE] = cmd.DeviceType
	if err := UpdateEntityStateFromValue(state, value); err != nil {
		h.logger.Error("discovery@command could not translate command",
			zap.String("deviceType", cmd.DeviceType), zap.String("value", value), zap.Error(err))
		return err
	}
	h.store.Set(key, state, STATE_REASON_COMMAND)

	if err := h.sender.SendCommand(cmd.DeviceType, cmd.Subtype, state.RfxFunction(), cmd.EntityTopic); err != nil {
		return fmt.Errorf("could not send %s to %s: %w", state.RfxFunction(), cmd.EntityTopic, err)
	}

	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("could not encode state of %s: %w", cmd.EntityName, err)
	}
	topic := h.topics.DeviceTopic(cmd.EntityName)
	h.publisher.Publish(topic, payload, DISCOVERY_QOS, true, h.publishContinuation(topic))
	return nil
}

// UpdateEntityStateFromValue sets the RF function to replay for value on
// state, according to state's device type.
func UpdateEntityStateFromValue(state domain.EntityState, value string) error {
	deviceType := state.DeviceType()
	switch {
	case rfxcom.IsSwitchable(deviceType):
		return updateLightingState(state, value)
	case deviceType == rfxcom.LIGHTING4:
		state[domain.STATE_RFX_FUNCTION] = rfxcom.FUNCTION_SEND_DATA
	case deviceType == rfxcom.CHIME1:
		state[domain.STATE_RFX_FUNCTION] = rfxcom.FUNCTION_CHIME
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedDeviceType, deviceType)
	}
	return nil
}

func updateLightingState(state domain.EntityState, value string) error {
	cmd := strings.Fields(strings.ToLower(value))
	if len(cmd) == 0 {
		return fmt.Errorf("%w: empty value", ErrUnknownCommand)
	}
	group := cmd[0] == "group"
	if group {
		cmd = cmd[1:]
		if len(cmd) == 0 {
			return fmt.Errorf("%w: %q", ErrUnknownCommand, value)
		}
	}

	var function string
	switch {
	case cmd[0] == "on" && group:
		function = rfxcom.FUNCTION_GROUP_ON
	case cmd[0] == "on":
		function = rfxcom.FUNCTION_SWITCH_ON
	case cmd[0] == "off" && group:
		function = rfxcom.FUNCTION_GROUP_OFF
	case cmd[0] == "off":
		function = rfxcom.FUNCTION_SWITCH_OFF
	case cmd[0] == "level" && !group && len(cmd) > 1:
		state[domain.STATE_RFX_FUNCTION] = rfxcom.FUNCTION_SET_LEVEL
		state[domain.STATE_RFX_OPT] = cmd[1]
		return nil
	default:
		// rejected, the stored rfxFunction is not replayed
		return fmt.Errorf("%w: %q", ErrUnknownCommand, value)
	}

	state[domain.STATE_RFX_FUNCTION] = function
	state[domain.STATE_RFX_COMMAND] = function
	// numbering of the lighting2 family
	if code, ok := rfxcom.FunctionCode(rfxcom.LIGHTING2, function); ok {
		state[domain.STATE_COMMAND_NUMBER] = code
	}
	return nil
}
