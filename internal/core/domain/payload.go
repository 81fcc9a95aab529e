package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

const (
	FIELD_ID             = "id"
	FIELD_TYPE           = "type"
	FIELD_SUBTYPE        = "subtype"
	FIELD_SUBTYPE_VALUE  = "subTypeValue"
	FIELD_UNIT_CODE      = "unitCode"
	FIELD_COMMAND        = "command"
	FIELD_COMMAND_NUMBER = "commandNumber"

	STATE_DEVICE_TYPE    = "deviceType"
	STATE_RFX_FUNCTION   = "rfxFunction"
	STATE_RFX_COMMAND    = "rfxCommand"
	STATE_RFX_OPT        = "rfxOpt"
	STATE_COMMAND_NUMBER = FIELD_COMMAND_NUMBER
)

// DevicePayload is a device event as decoded by the RF transceiver. Besides
// the addressing fields it carries whatever sensor fields the device family
// reports (temperature, humidity, batteryLevel, rssi...).
type DevicePayload map[string]any

func (p DevicePayload) ID() string {
	return AsString(p[FIELD_ID])
}

func (p DevicePayload) Type() string {
	return AsString(p[FIELD_TYPE])
}

func (p DevicePayload) Subtype() string {
	return AsString(p[FIELD_SUBTYPE])
}

// SubtypeValue returns the symbolic subtype name when the driver provides one,
// the numeric subtype otherwise.
func (p DevicePayload) SubtypeValue() string {
	if v := AsString(p[FIELD_SUBTYPE_VALUE]); v != "" {
		return v
	}
	return p.Subtype()
}

func (p DevicePayload) UnitCode() (int, bool) {
	v, ok := p[FIELD_UNIT_CODE]
	if !ok || v == nil {
		return 0, false
	}
	return AsInt(v)
}

// Has reports whether field is present with a non-nil value.
func (p DevicePayload) Has(field string) bool {
	v, ok := p[field]
	return ok && v != nil
}

// EntityState is the persisted state of one entity. It is keyed by StateKey
// and serialized flat, so the same record doubles as the MQTT state payload.
type EntityState map[string]any

func (s EntityState) DeviceType() string {
	return AsString(s[STATE_DEVICE_TYPE])
}

func (s EntityState) RfxFunction() string {
	return AsString(s[STATE_RFX_FUNCTION])
}

func (s EntityState) Clone() EntityState {
	c := make(EntityState, len(s))
	for k, v := range s {
		c[k] = v
	}
	return c
}

type StateKey struct {
	Id      string
	Type    string
	Subtype string
}

func (k StateKey) String() string {
	return fmt.Sprintf("%s/%s/%s", k.Type, k.Subtype, k.Id)
}

// CoordinatorInfo describes the RF transceiver hardware.
type CoordinatorInfo struct {
	ReceiverTypeCode int      `json:"receiverTypeCode"`
	ReceiverType     string   `json:"receiverType"`
	HardwareVersion  string   `json:"hardwareVersion"`
	FirmwareVersion  int      `json:"firmwareVersion"`
	FirmwareType     string   `json:"firmwareType"`
	EnabledProtocols []string `json:"enabledProtocols"`
	TransmitterPower int      `json:"transmitterPower"`
}

// BridgeInfo is published retained on <base>/bridge/info.
type BridgeInfo struct {
	Coordinator CoordinatorInfo `json:"coordinator"`
	Version     string          `json:"version"`
	LogLevel    string          `json:"logLevel"`
}

func AsString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case json.Number:
		return t.String()
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprintf("%v", t)
	}
}

func AsInt(v any) (int, bool) {
	switch t := v.(type) {
	case int:
		return t, true
	case int8:
		return int(t), true
	case int16:
		return int(t), true
	case int32:
		return int(t), true
	case int64:
		return int(t), true
	case uint:
		return int(t), true
	case uint8:
		return int(t), true
	case uint16:
		return int(t), true
	case uint32:
		return int(t), true
	case float64:
		return int(t), true
	case float32:
		return int(t), true
	case json.Number:
		i, err := t.Int64()
		return int(i), err == nil
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(t))
		return i, err == nil
	}
	return 0, false
}
