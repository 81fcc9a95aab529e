package domain

import "fmt"

const (
	TOPIC_DEVICES        = "devices"
	TOPIC_WILL           = "bridge/state"
	TOPIC_INFO           = "bridge/info"
	TOPIC_CMD            = "cmd"
	TOPIC_BRIDGE_REQUEST = "bridge/request"
	TOPIC_LOG_LEVEL      = "log_level"

	PAYLOAD_ONLINE  = "online"
	PAYLOAD_OFFLINE = "offline"
)

// Topics is the topic naming convention of the bridge, rooted at Base.
type Topics struct {
	Base    string
	Devices string
	Will    string
	Info    string
}

func NewTopics(base string) Topics {
	return Topics{
		Base:    base,
		Devices: TOPIC_DEVICES,
		Will:    TOPIC_WILL,
		Info:    TOPIC_INFO,
	}
}

func (t Topics) WillTopic() string {
	return fmt.Sprintf("%s/%s", t.Base, t.Will)
}

func (t Topics) InfoTopic() string {
	return fmt.Sprintf("%s/%s", t.Base, t.Info)
}

func (t Topics) DevicesTopic() string {
	return fmt.Sprintf("%s/%s", t.Base, t.Devices)
}

func (t Topics) DeviceTopic(entity string) string {
	return fmt.Sprintf("%s/%s", t.DevicesTopic(), entity)
}

func (t Topics) CommandPrefix() string {
	return fmt.Sprintf("%s/%s/", t.Base, TOPIC_CMD)
}

func (t Topics) CommandTopic(deviceType, subtype, entityTopic string) string {
	return fmt.Sprintf("%s%s/%s/%s/set", t.CommandPrefix(), deviceType, subtype, entityTopic)
}

func (t Topics) BridgeRequestTopic(request string) string {
	return fmt.Sprintf("%s/%s/%s", t.Base, TOPIC_BRIDGE_REQUEST, request)
}
