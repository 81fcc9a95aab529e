package port

import (
	"context"

	"github.com/berfenger/rfxcom2mqtt/internal/core/domain"
)

// Publisher delivers a message to the broker. Delivery is not awaited:
// the outcome is reported to continuation, which may be nil.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retain bool, continuation func(error))
}

// CommandSender is the RF side of the bridge.
type CommandSender interface {
	SendCommand(deviceType string, subtype string, function string, entityTopic string) error
	IsGroup(payload domain.DevicePayload) bool
}

// StateStore keeps the last known state of every entity.
type StateStore interface {
	// Get returns a copy of the stored state, an empty record when absent.
	Get(key domain.StateKey) domain.EntityState
	// Set replaces the stored state of key with payload.
	Set(key domain.StateKey, payload map[string]any, reason string)
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

type LogLevelController interface {
	SetLevel(level string) error
	Level() string
}

type TelemetrySink interface {
	WriteEvent(payload domain.DevicePayload)
	Close()
}
