package rfxcom

import (
	"errors"
	"strconv"
)

var ErrNoDriver = errors.New("no transceiver driver for port")

const (
	DUMMY_PORT = "dummy"
)

// Event is a decoded device message.
type Event map[string]any

func (e Event) Type() string {
	s, _ := e["type"].(string)
	return s
}

func (e Event) CommandNumber() (int, bool) {
	switch v := e["commandNumber"].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	case string:
		i, err := strconv.Atoi(v)
		return i, err == nil
	}
	return 0, false
}

// Status describes the transceiver hardware as reported on open.
type Status struct {
	ReceiverTypeCode int
	ReceiverType     string
	HardwareVersion  string
	FirmwareVersion  int
	FirmwareType     string
	EnabledProtocols []string
	TransmitterPower int
}

// Transceiver is an RF transceiver driver. Implementations decode the radio
// protocol; the bridge only deals with decoded events and named functions.
type Transceiver interface {
	Open() error
	Close() error
	OnEvent(handler func(Event))
	SendCommand(deviceType string, subtype string, function string, entityTopic string) error
	Status() (*Status, error)
}

func CreateTransceiver(port string) (Transceiver, error) {
	if port == DUMMY_PORT {
		return CreateTestTransceiver()
	}
	return nil, errors.Join(ErrNoDriver, errors.New(port))
}
