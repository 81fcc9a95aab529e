package discovery

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/berfenger/rfxcom2mqtt/internal/config"
	"github.com/berfenger/rfxcom2mqtt/internal/core/domain"
	"github.com/berfenger/rfxcom2mqtt/internal/core/port"
	"github.com/berfenger/rfxcom2mqtt/pkg/rfxcom"

	"go.uber.org/zap"
)

const (
	STATE_REASON_EVENT   = "event"
	STATE_REASON_COMMAND = "command"
)

// HomeassistantDiscovery maps RF devices to Home Assistant entities and
// translates entity commands back into RF commands.
type HomeassistantDiscovery struct {
	base
	store  port.StateStore
	rfxcfg config.RfxcomConfig
}

// EntityAddress is the set of names under which one device event is exposed.
type EntityAddress struct {
	DeviceId    string
	DeviceName  string
	DeviceTopic string
	EntityId    string
	EntityName  string
	EntityTopic string
	Group       bool
}

func NewHomeassistantDiscovery(publisher port.Publisher, sender port.CommandSender, store port.StateStore,
	cfg *config.Config, logger *zap.Logger) *HomeassistantDiscovery {
	return &HomeassistantDiscovery{
		base:   newBase(publisher, sender, cfg, logger),
		store:  store,
		rfxcfg: cfg.Rfxcom,
	}
}

func (h *HomeassistantDiscovery) Start() error {
	h.start()
	return h.store.Start(context.Background())
}

func (h *HomeassistantDiscovery) Stop() error {
	return h.store.Stop(context.Background())
}

// Resolve derives the entity naming of payload, applying the configured
// device and unit aliases.
func (h *HomeassistantDiscovery) Resolve(payload domain.DevicePayload) EntityAddress {
	id := payload.ID()
	deviceId := fmt.Sprintf("%s_%s", payload.SubtypeValue(), strings.Replace(id, "0x", "", 1))
	addr := EntityAddress{
		DeviceId:    deviceId,
		DeviceName:  deviceId,
		DeviceTopic: id,
		EntityId:    deviceId,
		EntityName:  id,
		EntityTopic: id,
		Group:       h.sender.IsGroup(payload),
	}

	deviceConf, hasConf := h.rfxcfg.FindDevice(id)
	if hasConf && deviceConf.Name != "" {
		addr.EntityTopic = deviceConf.Name
		addr.DeviceTopic = deviceConf.Name
	}

	if unitCode, ok := payload.UnitCode(); ok && !addr.Group {
		unit := strconv.Itoa(unitCode)
		addr.EntityId += "_" + unit
		addr.EntityTopic += "/" + unit
		addr.EntityName += "_" + unit
		if unitConf, ok := deviceConf.FindUnit(unitCode); ok && unitConf.Name != "" {
			addr.EntityTopic = unitConf.Name
		}
	}

	if hasConf && deviceConf.FriendlyName != "" {
		addr.DeviceName = deviceConf.FriendlyName
	}
	return addr
}

func (h *HomeassistantDiscovery) PublishDiscoveryToMQTT(payload any) error {
	devicePayload, ok := payload.(domain.DevicePayload)
	if !ok {
		return fmt.Errorf("%w: %T", ErrUnexpectedPayload, payload)
	}
	addr := h.Resolve(devicePayload)

	h.store.Set(domain.StateKey{
		Id:      addr.EntityName,
		Type:    devicePayload.Type(),
		Subtype: devicePayload.Subtype(),
	}, devicePayload, STATE_REASON_EVENT)

	prefix := h.ha.DiscoveryDevice
	device := domain.NewDeviceEntity([]string{
		prefix + "_" + addr.DeviceId,
		prefix + "_" + addr.DeviceName,
	}, addr.DeviceName)

	if err := h.publishSensors(devicePayload, device, addr); err != nil {
		return err
	}
	return h.publishSwitch(devicePayload, device, addr)
}

func (h *HomeassistantDiscovery) publishSwitch(payload domain.DevicePayload, device domain.DeviceInfo, addr EntityAddress) error {
	if !rfxcom.IsSwitchable(payload.Type()) {
		return nil
	}
	stateOff := "Off"
	stateOn := "On"
	name := addr.EntityId
	if addr.Group {
		stateOff = "Group off"
		stateOn = "Group On"
		name += "_group"
	}
	prefix := h.ha.DiscoveryDevice
	doc := domain.DiscoveryDocument{
		Availability:        h.availability(),
		Device:              &device,
		EnabledByDefault:    boolPtr(true),
		PayloadOff:          stateOff,
		PayloadOn:           stateOn,
		JsonAttributesTopic: h.topics.DeviceTopic(addr.EntityTopic),
		CommandTopic:        h.topics.CommandTopic(payload.Type(), payload.Subtype(), addr.EntityTopic),
		Name:                name,
		ObjectId:            addr.EntityId,
		Origin:              &h.origin,
		StateOff:            stateOff,
		StateOn:             stateOn,
		StateTopic:          h.topics.DeviceTopic(addr.EntityTopic),
		UniqueId:            addr.EntityId + "_" + prefix,
		ValueTemplate:       "{{ value_json.command }}",
	}
	return h.publishDiscovery(fmt.Sprintf("%s/%s/config", domain.COMPONENT_SWITCH, addr.EntityTopic), doc)
}

func (h *HomeassistantDiscovery) publishSensors(payload domain.DevicePayload, device domain.DeviceInfo, addr EntityAddress) error {
	common := domain.DiscoveryDocument{
		Availability:        h.availability(),
		Device:              &device,
		JsonAttributesTopic: h.topics.DeviceTopic(addr.EntityTopic),
		Origin:              &h.origin,
		StateTopic:          h.topics.DeviceTopic(addr.EntityTopic),
	}
	for _, sensor := range sensorRegistry {
		if !payload.Has(sensor.field) {
			continue
		}
		doc := sensor.build(common, addr.DeviceName, addr.DeviceTopic, h.ha.DiscoveryDevice)
		topic := fmt.Sprintf("%s/%s/%s/config", domain.COMPONENT_SENSOR, addr.DeviceTopic, sensor.key)
		if err := h.publishDiscovery(topic, doc); err != nil {
			return err
		}
	}
	return nil
}
